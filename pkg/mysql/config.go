package mysql

import (
	"fmt"
	"time"
)

// Config 定義 MySQL 連線與連線池的配置
type Config struct {
	Host     string `koanf:"host"`     // 資料庫主機地址
	Port     int    `koanf:"port"`     // 資料庫埠號 (預設 3306)
	User     string `koanf:"user"`     // 使用者名稱
	Password string `koanf:"password"` // 密碼
	DBName   string `koanf:"db_name"`  // 資料庫名稱

	// 連線池設定 (Connection Pool)
	// 參考: https://github.com/go-sql-driver/mysql#important-settings
	MaxOpenConns    int           `koanf:"max_open_conns"`    // 最大開啟連線數
	MaxIdleConns    int           `koanf:"max_idle_conns"`    // 最大閒置連線數
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"` // 連線最大存活時間

	// 連線重試
	ConnectAttempts uint          `koanf:"connect_attempts"`
	ConnectDelay    time.Duration `koanf:"connect_delay"`

	// GORM 設定
	LogLevel string `koanf:"log_level"` // Log 等級: "silent", "error", "warn", "info"
}

// withDefaults 補上未設定的欄位
func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 3306
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 10
	}
	if c.ConnectDelay == 0 {
		c.ConnectDelay = 2 * time.Second
	}
	return c
}

// DSN (Data Source Name) 產生連線字串
// 格式: user:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true
// clientFoundRows 讓 RowsAffected 回傳符合條件的筆數，而非實際變更的筆數
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
	)
}
