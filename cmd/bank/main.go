package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/in/console"
	file_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/file"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/notify"
	postgres_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/postgres"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
	"github.com/JoeShih716/go-bank-ledger/internal/config"
	"github.com/JoeShih716/go-bank-ledger/pkg/logging"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/postgres"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML config file")
	flag.Parse()

	// 1. 載入設定 (預設路徑不存在時只用環境變數)
	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// 2. 初始化 Logger
	logger, closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	// Ctrl+C 取消 ctx，Dashboard 會在下一次回到選單時結束
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化儲存層
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. 初始化 UseCase
	manager, err := usecase.NewBankManager(ctx, store,
		usecase.WithLogger(logger.With("component", "bank_manager")),
		usecase.WithNotifier(notify.Multi{notify.NewWriter(os.Stdout), notify.NewLogger(logger)}),
	)
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	logger.Info("bank started", "backend", cfg.Store.Backend, "clients", len(manager.ListAllClients()))

	// 5. 啟動終端機選單 (Driving Adapter)
	dashboard := console.NewDashboard(manager, os.Stdin, os.Stdout,
		console.WithExportPath(cfg.Store.ExportFile),
		console.WithLogger(logger),
	)
	err = dashboard.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("received shutdown signal")
		return nil
	}
	return err
}

func setupLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Level)
	logCfg.JSON = cfg.JSON

	closer := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logCfg.Output = f
		closer = func() { _ = f.Close() }
	}
	return logging.Setup(logCfg), closer, nil
}

// openStore 依 store.backend 建立對應的 LedgerStore
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (usecase.LedgerStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory_adapter.NewStore(), func() {}, nil

	case config.BackendMySQL:
		client, err := mysql.NewClient(ctx, cfg.MySQL, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := mysql_adapter.NewStore(ctx, client, logger)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres_adapter.NewStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		store, err := file_adapter.NewStore(cfg.Store.ClientsFile, cfg.Store.DataDir, file_adapter.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

