// Package config 載入應用程式設定
//
// 來源依序為 YAML 設定檔與 BANK_ 開頭的環境變數，後者覆蓋前者
// 環境變數以 "__" 分隔層級，例如 BANK_STORE__BACKEND=mysql
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/postgres"
)

// EnvPrefix 環境變數前綴
const EnvPrefix = "BANK_"

// 支援的儲存後端
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// Config 應用程式設定
type Config struct {
	Log      LogConfig       `koanf:"log"`
	Store    StoreConfig     `koanf:"store"`
	MySQL    mysql.Config    `koanf:"mysql"`
	Postgres postgres.Config `koanf:"postgres"`
}

// LogConfig 日誌設定，File 為空時輸出到 stderr
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
	File  string `koanf:"file"`
}

// StoreConfig 儲存層設定
type StoreConfig struct {
	Backend     string `koanf:"backend"`
	ClientsFile string `koanf:"clients_file"`
	DataDir     string `koanf:"data_dir"`
	ExportFile  string `koanf:"export_file"`
}

// Load 讀取設定檔 (path 為空則略過) 與環境變數，補上預設值後驗證
//
// 參數:
//
//	path: YAML 設定檔路徑
//
// 回傳:
//
//	*Config: 設定
//	error: 讀檔、解析或驗證錯誤
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey BANK_STORE__DATA_DIR -> store.data_dir
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.ClientsFile == "" {
		c.Store.ClientsFile = "data/clients.jsonl"
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Store.ExportFile == "" {
		c.Store.ExportFile = "data/clients.csv"
	}
}

// Validate 檢查設定是否可用
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory:
	case BackendMySQL:
		if c.MySQL.Host == "" {
			return fmt.Errorf("store backend %q requires mysql.host", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Postgres.Host == "" && c.Postgres.URL == "" {
			return fmt.Errorf("store backend %q requires postgres.host or postgres.url", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
