// Package state 持久化最近一次成功通知的视频 ID。
package state

import (
	"errors"
	"fmt"

	"github.com/iabetor/ytwatch/internal/database"
)

// ErrUnknownBackend 表示配置了不支持的存储后端。
var ErrUnknownBackend = errors.New("未知的状态存储后端")

// Store 保存最近一次成功通知的视频 ID。
//
// Load 永远不返回错误：存储不存在、无法读取或内容损坏都视为没有历史状态。
// Save 原子地替换旧值，失败时返回错误，由调用方记录日志。
type Store interface {
	Load() (string, bool)
	Save(id string) error
	Close() error
}

// Options 选择存储后端。
type Options struct {
	Backend string // file, sqlite, postgres
	Path    string
	DSN     string
}

// Open 按配置打开状态存储。
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.Path), nil
	case database.DriverSQLite:
		return openSQL(database.DriverSQLite, opts.Path)
	case database.DriverPostgres:
		return openSQL(database.DriverPostgres, opts.DSN)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
}

func openSQL(driver, dsn string) (Store, error) {
	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLStore(db), nil
}
