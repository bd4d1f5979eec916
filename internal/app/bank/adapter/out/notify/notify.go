// Package notify 提供帳戶異動通知的輸出端
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// Writer 將通知以 "<通道> Notification: <訊息>" 逐行寫到 io.Writer (通常是終端機)
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter 建立 Writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify 實作 domain.Notifier，寫入失敗直接忽略
func (n *Writer) Notify(note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s Notification: %s\n", note.Channel, note.Message)
}

// Logger 將通知寫入結構化日誌
type Logger struct {
	logger *slog.Logger
}

// NewLogger 建立 Logger，nil 時使用 slog.Default()
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "notifier")}
}

// Notify 實作 domain.Notifier
func (n *Logger) Notify(note domain.Notification) {
	n.logger.Info("account notification",
		"channel", string(note.Channel),
		"account_number", note.AccountNumber,
		"message", note.Message,
	)
}

// Multi 依序轉發給多個 Notifier
type Multi []domain.Notifier

// Notify 實作 domain.Notifier
func (m Multi) Notify(note domain.Notification) {
	for _, n := range m {
		n.Notify(note)
	}
}

var (
	_ domain.Notifier = (*Writer)(nil)
	_ domain.Notifier = (*Logger)(nil)
	_ domain.Notifier = Multi(nil)
)
