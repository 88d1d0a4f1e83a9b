package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iabetor/ytwatch/internal/logger"
	"github.com/natefinch/atomic"
)

// fileState 是状态文件的内容，未知字段在加载时忽略。
type fileState struct {
	LastVideo *string `json:"last_video,omitempty"`
}

// FileStore 以单个 JSON 文件保存状态。
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore 创建文件状态存储，文件不存在时视为空状态。
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// Path 返回状态文件路径。
func (s *FileStore) Path() string {
	return s.filePath
}

// Load 读取最近一次通知的视频 ID。
func (s *FileStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[state] 读取状态文件 %s 失败（视为无历史状态）: %v", s.Path(), err)
		}
		return "", false
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warnf("[state] 状态文件 %s 已损坏（视为无历史状态）: %v", s.Path(), err)
		return "", false
	}
	if st.LastVideo == nil || *st.LastVideo == "" {
		return "", false
	}
	return *st.LastVideo, true
}

// Save 原子地写入视频 ID：先写临时文件再 rename，崩溃不会留下半截内容。
func (s *FileStore) Save(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileState{LastVideo: &id})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建状态目录失败: %w", err)
		}
	}
	if err := atomic.WriteFile(s.filePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("写入状态文件失败: %w", err)
	}
	return nil
}

// Close 文件存储无需释放资源。
func (s *FileStore) Close() error { return nil }
