package storage

import (
	"path/filepath"
	"testing"
)

func TestLogStorageWriteAndClean(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "logs.db")

	ls, err := NewLogStorage(dbPath)
	if err != nil {
		t.Fatalf("创建日志存储失败: %v", err)
	}

	ls.WriteLog("INFO", "API 请求 endpoint=createOrder symbol=BTCUSDT")
	ls.WriteLog("ERROR", "API 错误 endpoint=createOrder code=-2019")
	ls.WriteLog("INFO", "账户余额已获取")

	// Close 会先把队列中的日志写完
	if err := ls.Close(); err != nil {
		t.Fatalf("关闭日志存储失败: %v", err)
	}
	// 重复关闭不报错
	if err := ls.Close(); err != nil {
		t.Fatalf("重复关闭不应报错: %v", err)
	}
	// 关闭后写入被忽略
	ls.WriteLog("INFO", "关闭后写入")

	ls, err = NewLogStorage(dbPath)
	if err != nil {
		t.Fatalf("重新打开日志存储失败: %v", err)
	}
	defer ls.Close()

	var total int
	if err := ls.db.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&total); err != nil {
		t.Fatalf("统计日志失败: %v", err)
	}
	if total != 3 {
		t.Fatalf("期望 3 条日志, 得到 %d", total)
	}

	var level string
	err = ls.db.QueryRow(`SELECT level FROM logs WHERE message = ?`, "API 错误 endpoint=createOrder code=-2019").Scan(&level)
	if err != nil || level != "ERROR" {
		t.Errorf("错误日志级别不正确: level=%q err=%v", level, err)
	}

	// 刚写入的日志不会被 7 天清理删除
	removed, err := ls.CleanOldLogs(7)
	if err != nil {
		t.Fatalf("清理日志失败: %v", err)
	}
	if removed != 0 {
		t.Errorf("不应清理新日志, 实际删除 %d 条", removed)
	}
	if err := ls.Vacuum(); err != nil {
		t.Errorf("VACUUM 失败: %v", err)
	}
}
