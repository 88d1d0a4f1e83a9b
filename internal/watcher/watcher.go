// Package watcher 按固定间隔轮询订阅源，把最新条目交给通知器。
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iabetor/ytwatch/internal/logger"
	"github.com/iabetor/ytwatch/internal/notifier"
	"github.com/iabetor/ytwatch/internal/rss"
)

// DefaultInterval 默认轮询间隔。
const DefaultInterval = 5 * time.Minute

// Source 提供每次轮询的候选条目。
type Source interface {
	Latest(ctx context.Context) (*rss.Entry, error)
}

// Announcer 处理候选条目。
type Announcer interface {
	Notify(entry *rss.Entry) (bool, error)
}

// Watcher 串行执行轮询：上一次 tick 结束后才会开始下一次。
type Watcher struct {
	source    Source
	announcer Announcer
	interval  time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// New 创建轮询器，interval 不大于 0 时使用默认值。
func New(source Source, announcer Announcer, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		source:    source,
		announcer: announcer,
		interval:  interval,
	}
}

// Interval 返回轮询间隔。
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Running 报告轮询循环是否已启动。
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start 启动轮询循环，立即执行第一次 tick。已在运行时什么都不做并返回 false。
// ctx 取消后循环退出。
func (w *Watcher) Start(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		logger.Debugf("[watcher] 轮询已在运行，忽略重复启动")
		return false
	}
	w.running = true
	w.done = make(chan struct{})

	go w.loop(ctx, w.done)
	logger.Infof("[watcher] 轮询已启动，间隔 %v", w.interval)
	return true
}

// Wait 阻塞直到轮询循环退出；未启动时立即返回。
func (w *Watcher) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Run 等待 ready 关闭后启动轮询，并阻塞到 ctx 结束且循环退出。
func (w *Watcher) Run(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.Start(ctx)
	<-ctx.Done()
	w.Wait()
	return ctx.Err()
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Tick(ctx)
		select {
		case <-ctx.Done():
			logger.Infof("[watcher] 轮询已停止")
			return
		case <-ticker.C:
		}
	}
}

// Tick 执行一次轮询。任何错误（包括 panic）都只记录日志，不会中断循环。
func (w *Watcher) Tick(ctx context.Context) {
	log := logger.With("tick", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[watcher] 轮询 panic: %v", r)
		}
	}()

	if ctx.Err() != nil {
		return
	}

	entry, err := w.source.Latest(ctx)
	if err != nil {
		if errors.Is(err, rss.ErrNoEntries) {
			log.Infof("[watcher] 订阅源暂无条目")
		} else {
			log.Warnf("[watcher] 抓取订阅源失败: %v", err)
		}
		return
	}

	announced, err := w.announcer.Notify(entry)
	switch {
	case errors.Is(err, notifier.ErrPersist):
		log.Errorf("[watcher] %v（下次轮询可能重复通知）", err)
	case errors.Is(err, notifier.ErrChannelUnavailable):
		log.Warnf("[watcher] %v", err)
	case err != nil:
		log.Warnf("[watcher] 通知失败，下次轮询重试: %v", err)
	case announced:
		log.Infof("[watcher] 已通知新视频 %s", entry.ID)
	default:
		log.Debugf("[watcher] 最新视频 %s 已通知过", entry.ID)
	}
}
