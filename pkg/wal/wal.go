package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// 常用的權限常量
const (
	// rw-r--r-- 適用於大多數檔案
	FileModeDefault fs.FileMode = 0644

	// rwxr-xr-x 適用於目錄
	FileModeDir fs.FileMode = 0755
)

// ErrCorrupt 日誌中出現無法解析的行
var ErrCorrupt = errors.New("wal: corrupt entry")

// WAL 是一個 append-only 的 JSON Lines 日誌檔
// 每次 Append 都會 fsync，回傳成功代表資料已落地
type WAL struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open 開啟或建立一個 WAL 檔案，必要時建立上層目錄
// O_RDWR 讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func Open(path string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), FileModeDir); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeDefault)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	return &WAL{path: path, file: file}, nil
}

// Path 回傳日誌檔路徑
func (w *WAL) Path() string {
	return w.path
}

// Append 寫入一筆資料並刷入硬碟
// 寫入失敗時截回原本的長度，檔尾不會留下半行
func (w *WAL) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	if _, err := w.file.Write(data); err != nil {
		return errors.Join(err, w.truncate(info.Size()))
	}
	return w.file.Sync()
}

func (w *WAL) truncate(size int64) error {
	if err := w.file.Truncate(size); err != nil {
		return fmt.Errorf("wal: truncate to %d: %w", size, err)
	}
	return w.file.Sync()
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// Replay 從頭依序讀取所有資料
// callback 收到單行的原始 JSON，逐筆處理避免一次載入全部
// 沒有換行結尾的最後一行是中斷的寫入 (從未回報成功)，直接截掉
//
// 回傳:
//
//	error: 讀取錯誤、ErrCorrupt 或 callback 回傳的錯誤
func (w *WAL) Replay(callback func(line int, raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(w.file)
	var offset int64
	for line := 1; ; line++ {
		raw, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(raw) == 0 {
				return nil
			}
			return w.truncate(offset)
		}
		if err != nil {
			return err
		}
		offset += int64(len(raw))

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		if !json.Valid(raw) {
			return fmt.Errorf("%w at entry %d", ErrCorrupt, line)
		}
		if err := callback(line, json.RawMessage(raw)); err != nil {
			return err
		}
	}
}
