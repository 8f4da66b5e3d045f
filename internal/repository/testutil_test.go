package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/nextchow/internal/models"

	"gorm.io/gorm"
)

// setupRepositoryTestDB 初始化内存 SQLite 测试数据库
func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, "silent", models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() {
		_ = models.CloseDB(db)
	})
	return db
}

func uintPtr(v uint) *uint {
	return &v
}
