package database

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ytwatch.db")
	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open 失败: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate 失败: %v", err)
	}
	// 迁移可重复执行
	if err := db.Migrate(); err != nil {
		t.Fatalf("重复 Migrate 失败: %v", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='watcher_state'`).Scan(&name)
	if err != nil {
		t.Fatalf("watcher_state 表不存在: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("期望未知驱动返回错误")
	}
}

func TestBind(t *testing.T) {
	query := `INSERT INTO watcher_state (state_key, value) VALUES (?, ?)`

	sqlite := &DB{driver: DriverSQLite}
	if got := sqlite.Bind(query); got != query {
		t.Errorf("sqlite 不应改写占位符: %s", got)
	}

	pg := &DB{driver: DriverPostgres}
	want := `INSERT INTO watcher_state (state_key, value) VALUES ($1, $2)`
	if got := pg.Bind(query); got != want {
		t.Errorf("postgres 占位符改写错误: %s", got)
	}
}
