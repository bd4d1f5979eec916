package domain

import "strconv"

// Contact 客戶的聯絡資料，UpdateClient 只會改動這一塊
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Client 客戶資料，以 AccountNumber 作為唯一鍵
// AccountNumber 由 BankManager 在建立時指派一次，之後不可變更
type Client struct {
	AccountNumber int64
	Contact
}

// NewClient 建立尚未指派帳號的客戶 (AccountNumber = 0)
func NewClient(firstName, lastName, email, phone string) Client {
	return Client{
		Contact: Contact{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Phone:     phone,
		},
	}
}

// FullName 回傳 "名 姓"
func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// String 以客戶清單的單行格式輸出: number,first,last,email,phone
func (c Client) String() string {
	return strconv.FormatInt(c.AccountNumber, 10) + "," +
		c.FirstName + "," + c.LastName + "," + c.Email + "," + c.Phone
}
