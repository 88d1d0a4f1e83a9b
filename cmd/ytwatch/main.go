package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/ytwatch/internal/app"
	"github.com/iabetor/ytwatch/internal/config"
	"github.com/iabetor/ytwatch/internal/logger"
)

// configEnv 指向可选的 YAML 配置文件。
const configEnv = "YTWATCH_CONFIG"

func main() {
	cfg, err := config.Load(os.Getenv(configEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] ytwatch 启动中 (channel=%s, interval=%v)", cfg.YouTube.ChannelID, cfg.Poll.Interval())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		logger.Warnf("[main] 关闭资源失败: %v", err)
	}
	if runErr != nil {
		logger.Errorf("[main] 运行出错: %v", runErr)
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("[main] ytwatch 已停止")
}
