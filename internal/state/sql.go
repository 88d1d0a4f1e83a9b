package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/iabetor/ytwatch/internal/database"
	"github.com/iabetor/ytwatch/internal/logger"
)

const lastVideoKey = "last_video"

// SQLStore 将状态保存在 watcher_state 表中。
type SQLStore struct {
	db *database.DB
}

// NewSQLStore 使用已迁移的数据库创建状态存储。
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load 读取最近一次通知的视频 ID。
func (s *SQLStore) Load() (string, bool) {
	var value string
	err := s.db.QueryRow(
		s.db.Bind(`SELECT value FROM watcher_state WHERE state_key = ?`),
		lastVideoKey,
	).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Warnf("[state] 查询 %s 状态失败（视为无历史状态）: %v", s.db.Driver(), err)
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// Save 以 upsert 写入视频 ID，单条语句保证原子性。
func (s *SQLStore) Save(id string) error {
	_, err := s.db.Exec(s.db.Bind(`
		INSERT INTO watcher_state (state_key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (state_key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`),
		lastVideoKey, id,
	)
	if err != nil {
		return fmt.Errorf("写入状态失败: %w", err)
	}
	return nil
}

// Close 关闭数据库连接。
func (s *SQLStore) Close() error {
	return s.db.Close()
}
