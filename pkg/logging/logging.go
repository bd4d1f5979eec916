// Package logging 以 log/slog 建立結構化日誌
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config 日誌設定
type Config struct {
	// Level 最低輸出等級
	Level slog.Level
	// JSON 是否輸出 JSON 格式
	JSON bool
	// Output 輸出目標，預設 os.Stderr
	Output io.Writer
}

// DefaultConfig 回傳開發用的預設設定
// 等級由環境變數 LOG_LEVEL 決定 (DEBUG, INFO, WARN, ERROR)，預設 INFO
func DefaultConfig() Config {
	level := slog.LevelInfo
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		level = ParseLevel(logLevel)
	}
	return Config{
		Level:  level,
		Output: os.Stderr,
	}
}

// ParseLevel 將字串轉為 slog.Level，無法辨識時回傳 INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New 依設定建立 logger，不修改預設 logger
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// Setup 建立 logger 並設為 slog 預設 logger
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
