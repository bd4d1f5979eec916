package domain

import "errors"

var (
	// ErrInvalidAmount 金額必須為正數，且最多到分 (兩位小數)
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")

	// ErrInsufficientFunds 餘額 (含透支額度) 不足
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrMalformedRecord 持久化資料損毀或格式錯誤
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSameAccount 轉出與轉入帳戶相同
	ErrSameAccount = errors.New("source and destination account are the same")

	// ErrNotSavings 只有儲蓄帳戶可以計息
	ErrNotSavings = errors.New("account is not a savings account")

	// ErrPersistFailed 寫入儲存層失敗，記憶體狀態已回滾
	ErrPersistFailed = errors.New("persist failed")
)
