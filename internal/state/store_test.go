package state

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileStoreLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_video.json")
	store := NewFileStore(path)
	if store.Path() != path {
		t.Errorf("Path 不匹配: %s", store.Path())
	}

	id, ok := store.Load()
	if ok || id != "" {
		t.Fatalf("从未写入的存储应返回空状态，得到 %q, %v", id, ok)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_video.json")
	store := NewFileStore(path)

	if err := store.Save("A1"); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	id, ok := store.Load()
	if !ok || id != "A1" {
		t.Fatalf("期望 A1，得到 %q, %v", id, ok)
	}

	if err := store.Save("A2"); err != nil {
		t.Fatalf("第二次 Save 失败: %v", err)
	}
	if id, _ := store.Load(); id != "A2" {
		t.Fatalf("覆盖后期望 A2，得到 %q", id)
	}

	// 文件格式与原有状态文件兼容
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取状态文件失败: %v", err)
	}
	if string(data) != `{"last_video":"A2"}` {
		t.Errorf("状态文件内容不匹配: %s", data)
	}
}

func TestFileStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last_video.json")

	store1 := NewFileStore(path)
	if err := store1.Save("dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	// 模拟进程重启
	store2 := NewFileStore(path)
	id, ok := store2.Load()
	if !ok || id != "dQw4w9WgXcQ" {
		t.Fatalf("重启后期望读取到旧状态，得到 %q, %v", id, ok)
	}
}

func TestFileStoreCorruptOrForeign(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  string
		wantOK  bool
	}{
		{"corrupt", `{"last_video": "A1"`, "", false},
		{"empty file", ``, "", false},
		{"null value", `{"last_video": null}`, "", false},
		{"missing key", `{"other": 1}`, "", false},
		{"unknown keys ignored", `{"last_video": "A1", "version": 2, "extra": {"a": 1}}`, "A1", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "last_video.json")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			id, ok := NewFileStore(path).Load()
			if id != tc.wantID || ok != tc.wantOK {
				t.Errorf("得到 %q, %v，期望 %q, %v", id, ok, tc.wantID, tc.wantOK)
			}
		})
	}
}

func TestFileStoreSaveError(t *testing.T) {
	dir := t.TempDir()
	// 用普通文件占住父目录位置，使写入失败
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(filepath.Join(blocker, "last_video.json"))
	if err := store.Save("A1"); err == nil {
		t.Fatal("期望写入失败")
	}
}

func TestFileStoreConcurrency(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "last_video.json"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Save("v" + string(rune('0'+i)))
		}(i)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()

	if _, ok := store.Load(); !ok {
		t.Fatal("并发写入后应存在状态")
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store, err := Open(Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "ytwatch.db")})
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	defer store.Close()

	if id, ok := store.Load(); ok || id != "" {
		t.Fatalf("新数据库应返回空状态，得到 %q, %v", id, ok)
	}
	if err := store.Save("A1"); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	if id, ok := store.Load(); !ok || id != "A1" {
		t.Fatalf("期望 A1，得到 %q, %v", id, ok)
	}
	if err := store.Save("A2"); err != nil {
		t.Fatalf("upsert 失败: %v", err)
	}
	if id, _ := store.Load(); id != "A2" {
		t.Fatalf("期望 A2，得到 %q", id)
	}
}

func TestSQLStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytwatch.db")

	store1, err := Open(Options{Backend: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	if err := store1.Save("A1"); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	store1.Close()

	store2, err := Open(Options{Backend: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("重新 Open 失败: %v", err)
	}
	defer store2.Close()
	if id, ok := store2.Load(); !ok || id != "A1" {
		t.Fatalf("重启后期望 A1，得到 %q, %v", id, ok)
	}
}

func TestOpenBackends(t *testing.T) {
	store, err := Open(Options{Path: filepath.Join(t.TempDir(), "s.json")})
	if err != nil {
		t.Fatalf("默认后端 Open 失败: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Errorf("默认后端应为 FileStore，得到 %T", store)
	}

	_, err = Open(Options{Backend: "etcd"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("期望 ErrUnknownBackend，得到 %v", err)
	}
}
