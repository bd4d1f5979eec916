package postgres

import (
	"fmt"
	"strings"
	"time"
)

// Config 定義 PostgreSQL 連線與連線池的配置
type Config struct {
	// URL 若有設定則直接使用，忽略 Host/Port 等欄位
	URL string `koanf:"url"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"` // 預設 5432
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"ssl_mode"` // 預設 disable

	// 連線池設定
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`

	// 連線重試
	ConnectAttempts uint          `koanf:"connect_attempts"`
	ConnectDelay    time.Duration `koanf:"connect_delay"`
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 10
	}
	if c.ConnectDelay == 0 {
		c.ConnectDelay = 2 * time.Second
	}
	return c
}

// ConnString 產生 pgx 連線字串 (key=value 格式)
// 值一律加上單引號，空密碼才不會吃掉下一個欄位
func (c Config) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(c.Host), c.Port, quote(c.User), quote(c.Password), quote(c.Database), quote(c.SSLMode),
	)
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(v string) string {
	return "'" + quoter.Replace(v) + "'"
}
