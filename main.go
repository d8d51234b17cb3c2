package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futuresbot/account"
	"futuresbot/cli"
	"futuresbot/config"
	"futuresbot/exchange/binance"
	"futuresbot/i18n"
	"futuresbot/logger"
	"futuresbot/metrics"
	"futuresbot/order"
	"futuresbot/storage"
	"futuresbot/symbol"
	"futuresbot/utils"
)

// Version 版本号
var Version = "1.0.0"

func main() {
	// 检查版本参数
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Printf("futuresbot - Binance USDⓈ-M futures CLI\n")
		fmt.Printf("Version: %s\n", Version)
		os.Exit(0)
	}

	// 解析调试参数（-debug / --debug）
	debugMode := false
	filteredArgs := []string{os.Args[0]}
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-debug", "--debug":
			debugMode = true
		default:
			filteredArgs = append(filteredArgs, arg)
		}
	}
	os.Args = filteredArgs

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// 1. 凭证（.env 可选）
	creds, err := config.LoadCredentials(".env")
	if err != nil {
		log.Fatalf("[FATAL] %v，请设置环境变量或在 .env 中配置", err)
	}

	// 2. 配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("[FATAL] 加载配置失败: %v", err)
	}
	// -debug 只影响本次运行，不写回 cfg，热更新比较的仍是文件中的值
	logLevel := cfg.System.LogLevel
	if debugMode {
		logLevel = "debug"
	}

	// 3. 日志
	if err := logger.Init(logger.Config{
		Level:      logLevel,
		File:       cfg.System.LogFile,
		MaxSizeMB:  cfg.System.LogMaxSizeMB,
		MaxBackups: cfg.System.LogMaxBackups,
		MaxAgeDays: cfg.System.LogMaxAgeDays,
		Compress:   true,
	}); err != nil {
		log.Fatalf("[FATAL] 初始化日志失败: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.System.LogDB != "" {
		logStorage, err := storage.NewLogStorage(cfg.System.LogDB)
		if err != nil {
			logger.Warn("⚠️ 初始化日志存储失败: %v，将继续运行但不保存日志到数据库", err)
		} else {
			logger.InitLogStorage(logStorage.WriteLog)
			defer logStorage.Close()
			logger.RegisterExitHook(func() { logStorage.Close() })
			logger.Info("✅ 日志存储已初始化: %s", cfg.System.LogDB)
			go cleanLogsPeriodically(ctx, logStorage, cfg.System.LogMaxAgeDays)
		}
	}

	// 4. 时区
	if err := utils.SetLocation(cfg.System.Timezone); err != nil {
		logger.Warn("⚠️ 设置时区失败: %v，使用本地时区", err)
	}
	logger.SetLocation(utils.GlobalLocation)

	// 5. 多语言
	if err := i18n.Init(cfg.System.LogLanguage); err != nil {
		logger.Fatal("❌ 初始化多语言失败: %v", err)
	}

	logger.Info("🚀 futuresbot 启动...")
	logger.Info("📦 版本号: %s", Version)
	logger.Info("🌍 界面语言: %s", i18n.GetSystemLanguage())

	// 6. 交易所客户端（整个进程只创建一次）
	adapter, err := binance.NewBinanceAdapter(binance.Config{
		APIKey:            creds.APIKey,
		SecretKey:         creds.SecretKey,
		Testnet:           cfg.Exchange.Testnet,
		BaseURL:           cfg.Exchange.BaseURL,
		RecvWindow:        cfg.Exchange.RecvWindowMs,
		RequestsPerSecond: cfg.Exchange.RequestsPerSecond,
		Burst:             cfg.Exchange.Burst,
	})
	if err != nil {
		logger.Fatal("❌ 创建交易所客户端失败: %v", err)
	}

	initCtx, cancelInit := context.WithTimeout(ctx, cfg.RequestTimeout())
	if err := adapter.SyncServerTime(initCtx); err != nil {
		logger.Warn("⚠️ 同步服务器时间失败: %v", err)
	}

	// 7. 连接测试
	view := account.NewView(adapter)
	snap, err := view.Balance(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("❌ 连接测试失败: %v", err)
	}
	logger.Info("✅ 已连接 %s (%s)，钱包余额: %s USDT", adapter.GetName(), adapter.BaseURL(), snap.TotalWalletBalance)

	// 8. 业务组件
	var cache symbol.Cache
	if cfg.CatalogTTL() > 0 {
		switch cfg.SymbolCatalog.Cache {
		case "redis":
			redisCache, err := symbol.NewRedisCacheFromOptions(ctx, symbol.RedisOptions{
				Addr:     cfg.SymbolCatalog.Redis.Addr,
				Password: cfg.SymbolCatalog.Redis.Password,
				DB:       cfg.SymbolCatalog.Redis.DB,
				Prefix:   cfg.SymbolCatalog.Redis.Prefix,
			})
			if err != nil {
				logger.Warn("⚠️ %v，交易对缓存改用内存", err)
				cache = symbol.NewMemoryCache()
			} else {
				defer redisCache.Close()
				cache = redisCache
			}
		default:
			cache = symbol.NewMemoryCache()
		}
	}
	catalog := symbol.NewCatalog(adapter, cfg.CatalogTTL(), cache)
	builder := order.NewBuilder(catalog, cfg.Trading.DefaultTimeInForce)
	gateway := order.NewGateway(adapter)

	// 9. 指标服务
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.ListenAddr)
		metricsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("⚠️ 关闭指标服务失败: %v", err)
			}
		}()
	}

	// 10. 配置热更新（日志级别、语言）
	hotReloader := config.NewHotReloader(cfg)
	hotReloader.RegisterCallback(reloadCallback(debugMode))
	if watcher, err := config.NewConfigWatcher(configPath, hotReloader); err != nil {
		logger.Warn("⚠️ 创建配置监控器失败: %v", err)
	} else if err := watcher.Start(ctx); err != nil {
		logger.Warn("⚠️ 启动配置监控失败: %v", err)
	} else {
		defer watcher.Stop()
	}

	network := "mainnet"
	if adapter.IsTestnet() {
		network = "testnet"
	}
	menu := cli.NewMenu(os.Stdin, os.Stdout, cli.Deps{
		Builder:            builder,
		Gateway:            gateway,
		Account:            view,
		Timeout:            cfg.RequestTimeout(),
		Network:            network,
		DefaultTimeInForce: cfg.Trading.DefaultTimeInForce,
	})
	if err := menu.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("❌ 菜单异常退出: %v", err)
	}

	logger.Info("👋 futuresbot 已退出")
}

// reloadCallback 应用日志级别和语言的热更新；-debug 运行时保持 DEBUG 级别
func reloadCallback(debugMode bool) config.ConfigUpdateCallback {
	return func(newCfg *config.Config, changes []config.ConfigChange) error {
		for _, change := range changes {
			switch change.Path {
			case "system.log_level":
				if debugMode {
					logger.Info("ℹ️ 调试模式下忽略日志级别变更: %s", newCfg.System.LogLevel)
					continue
				}
				logger.SetLevel(logger.ParseLogLevel(newCfg.System.LogLevel))
			case "system.log_language":
				i18n.SetSystemLanguage(newCfg.System.LogLanguage)
			}
		}
		return nil
	}
}

// cleanLogsPeriodically 每天清理一次过期日志并优化数据库
func cleanLogsPeriodically(ctx context.Context, logStorage *storage.LogStorage, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		logger.Info("🧹 开始清理日志...")
		rowsAffected, err := logStorage.CleanOldLogs(days)
		if err != nil {
			logger.Warn("⚠️ 清理日志失败: %v", err)
		} else {
			logger.Info("✅ 已清理 %d 条日志（%d天前）", rowsAffected, days)
		}
		if err := logStorage.Vacuum(); err != nil {
			logger.Warn("⚠️ 数据库优化失败: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
