// Package app 组装各组件并按顺序启动：保活服务 → 登录 → 等待就绪 → 轮询。
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iabetor/ytwatch/internal/config"
	"github.com/iabetor/ytwatch/internal/discord"
	"github.com/iabetor/ytwatch/internal/logger"
	"github.com/iabetor/ytwatch/internal/notifier"
	"github.com/iabetor/ytwatch/internal/rss"
	"github.com/iabetor/ytwatch/internal/server"
	"github.com/iabetor/ytwatch/internal/state"
	"github.com/iabetor/ytwatch/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

// Session 是消息平台客户端。
type Session interface {
	notifier.Messenger
	Open() error
	Ready() <-chan struct{}
	Close() error
}

// Application 持有进程内唯一的客户端、状态存储和轮询配置。
type Application struct {
	Config  *config.Config
	Store   state.Store
	Session Session
	Fetcher *rss.Fetcher
	Watcher *watcher.Watcher
	Server  *server.Server
}

// New 根据配置创建应用，连接 Discord 前不会产生网络请求。
func New(cfg *config.Config) (*Application, error) {
	session, err := discord.New(cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	return newWithSession(cfg, session)
}

func newWithSession(cfg *config.Config, session Session) (*Application, error) {
	store, err := state.Open(state.Options{
		Backend: cfg.State.Backend,
		Path:    cfg.State.Path,
		DSN:     cfg.State.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("打开状态存储失败: %w", err)
	}

	feedURL := rss.FeedURL(cfg.YouTube.FeedBase, cfg.YouTube.ChannelID)
	fetcher := rss.NewFetcher(feedURL, cfg.Poll.Timeout())
	n := notifier.New(store, session, cfg.Discord.ChannelID)

	return &Application{
		Config:  cfg,
		Store:   store,
		Session: session,
		Fetcher: fetcher,
		Watcher: watcher.New(fetcher, n, cfg.Poll.Interval()),
		Server:  server.New(cfg.Server.Addr(), cfg.Server.Message),
	}, nil
}

// Run 启动保活服务、登录 Discord，就绪后开始轮询，阻塞到 ctx 结束。
func (a *Application) Run(ctx context.Context) error {
	// 保活服务与轮询互不影响，监听失败只记录日志
	if err := a.Server.Start(); err != nil {
		logger.Errorf("[app] 保活服务启动失败，继续运行轮询: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.Server.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("[app] 关闭保活服务失败: %v", err)
			}
		}()
	}

	if err := a.Session.Open(); err != nil {
		return err
	}
	logger.Infof("[app] 等待 Discord 就绪，订阅源: %s", a.Fetcher.URL())

	err := a.Watcher.Run(ctx, a.Session.Ready())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close 释放客户端和状态存储。
func (a *Application) Close() error {
	var errs []error
	if a.Session != nil {
		if err := a.Session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭 discord 会话失败: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("关闭状态存储失败: %w", err))
		}
	}
	return errors.Join(errs...)
}
