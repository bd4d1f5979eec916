package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaultsAndDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "bank", Password: "secret", DBName: "ledger"}.withDefaults()

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, uint(10), cfg.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.ConnectDelay)
	assert.Equal(t, "bank:secret@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true", cfg.DSN())
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"info", "warn", "error", "silent", ""} {
		assert.NotNil(t, newLogger(level), level)
	}
}
