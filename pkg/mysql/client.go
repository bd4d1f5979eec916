package mysql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client 封裝 GORM DB 實例
type Client struct {
	db *gorm.DB
}

// NewClient 建立並回傳一個新的 MySQL 客戶端實例 (GORM)
// 連線失敗時依 ConnectAttempts/ConnectDelay 重試
//
// 參數:
//
//	ctx: 上下文，取消時停止重試
//	cfg: MySQL 連線配置
//	log: 記錄重試過程，nil 時使用 slog.Default()
//
// 回傳值:
//
//	*Client: 封裝後的 MySQL 客戶端
//	error: 若連線失敗則回傳錯誤
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()

	gormConfig := &gorm.Config{
		// 預設跳過事務模式，需要一致性的寫入由呼叫端自行開 Transaction
		SkipDefaultTransaction: true,
		Logger:                 newLogger(cfg.LogLevel),
	}

	var db *gorm.DB
	err := retry.Do(
		func() error {
			conn, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
			if err != nil {
				return err
			}
			rawDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := rawDB.PingContext(ctx); err != nil {
				_ = rawDB.Close()
				return err
			}
			db = conn
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("failed to connect to mysql, retrying",
				"attempt", n+1,
				"max_attempts", cfg.ConnectAttempts,
				"host", cfg.Host,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql after %d attempts: %w", cfg.ConnectAttempts, err)
	}

	// 取得底層 sql.DB 物件以設定連線池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("connected to mysql", "host", cfg.Host, "port", cfg.Port, "database", cfg.DBName)
	return &Client{db: db}, nil
}

// DB 回傳底層的 *gorm.DB 實例，供 adapter 使用
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Close 關閉資料庫連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newLogger 根據配置建立 GORM Logger
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error // 預設只記錄錯誤
	}

	return logger.Default.LogMode(logLevel)
}
