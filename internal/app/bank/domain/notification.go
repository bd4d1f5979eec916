package domain

// Channel 帳戶異動通知的管道
type Channel string

const (
	// 支票帳戶使用簡訊
	ChannelSMS Channel = "SMS"
	// 儲蓄帳戶使用電子郵件
	ChannelEmail Channel = "Email"
)

// Notification 一筆帳戶異動通知
type Notification struct {
	Channel       Channel
	AccountNumber int64
	Message       string
}

// Notifier 接收帳戶異動通知 (driven port)
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc 讓一般函式可以當作 Notifier 使用
type NotifierFunc func(n Notification)

// Notify 實作 Notifier
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// Outbox 暫存帳戶在一次異動中發出的通知
// Flush 才交給原本的接收者，Discard 則全部丟棄
type Outbox struct {
	account Account
	target  Notifier
	pending []Notification
}

// HoldNotifications 將帳戶的通知改送進 Outbox，直到 Flush 或 Discard
func HoldNotifications(a Account) *Outbox {
	b := a.core()
	o := &Outbox{account: a, target: b.notifier}
	b.notifier = o
	return o
}

// Notify 實作 Notifier
func (o *Outbox) Notify(n Notification) {
	o.pending = append(o.pending, n)
}

// Flush 還原帳戶的接收者並依序送出暫存的通知
func (o *Outbox) Flush() {
	o.release()
	for _, n := range o.pending {
		o.target.Notify(n)
	}
	o.pending = nil
}

// Discard 還原帳戶的接收者並丟棄暫存的通知
func (o *Outbox) Discard() {
	o.release()
	o.pending = nil
}

func (o *Outbox) release() {
	o.account.core().notifier = o.target
}
