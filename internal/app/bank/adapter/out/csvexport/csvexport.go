// Package csvexport 將帳本匯出成 CSV
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// Header CSV 欄位順序
var Header = []string{
	"account_number",
	"first_name",
	"last_name",
	"email",
	"phone",
	"account_type",
	"balance",
	"annual_fee",
}

// Write 寫入表頭與每筆 Record 一列，順序與 records 相同
func Write(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatInt(rec.Client.AccountNumber, 10),
			rec.Client.FirstName,
			rec.Client.LastName,
			rec.Client.Email,
			rec.Client.Phone,
			rec.Kind.String(),
			rec.Balance.StringFixed(2),
			rec.AnnualFee.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing account %d: %w", rec.Client.AccountNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile 覆寫 path 並匯出，必要時建立上層目錄
func WriteFile(path string, records []domain.Record) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing csv file: %w", closeErr)
		}
	}()
	return Write(file, records)
}
