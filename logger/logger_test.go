package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"WARN":    WARN,
		"error":   ERROR,
		"fatal":   FATAL,
		"unknown": INFO,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %s, 期望 %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Close()

	SetLevel(WARN)
	defer SetLevel(INFO)

	Info("不应该输出 %d", 1)
	Warn("应该输出 %d", 2)

	out := buf.String()
	if strings.Contains(out, "不应该输出") {
		t.Errorf("INFO 日志在 WARN 级别下被输出: %s", out)
	}
	if !strings.Contains(out, "应该输出 2") {
		t.Errorf("WARN 日志没有输出: %s", out)
	}
	if GetLevel() != WARN {
		t.Errorf("GetLevel 期望 WARN, 得到 %s", GetLevel())
	}
}

func TestStorageHookReceivesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Close()

	var (
		mu     sync.Mutex
		levels []string
		msgs   []string
	)
	InitLogStorage(func(level, message string) {
		mu.Lock()
		defer mu.Unlock()
		levels = append(levels, level)
		msgs = append(msgs, message)
	})

	WithFields(Fields{"symbol": "BTCUSDT", "endpoint": "createOrder"}).Warn("API 请求")

	mu.Lock()
	defer mu.Unlock()
	if len(msgs) != 1 {
		t.Fatalf("期望 1 条存储日志, 得到 %d", len(msgs))
	}
	if levels[0] != "WARN" {
		t.Errorf("级别期望 WARN, 得到 %s", levels[0])
	}
	want := "API 请求 endpoint=createOrder symbol=BTCUSDT"
	if msgs[0] != want {
		t.Errorf("存储消息期望 %q, 得到 %q", want, msgs[0])
	}
}

func TestFatalRunsExitHooksBeforeExit(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Close()

	var events []string
	InitLogStorage(func(level, message string) {
		events = append(events, level+" "+message)
	})
	RegisterExitHook(func() { events = append(events, "flush") })

	exitCode := -1
	exit = func(code int) { exitCode = code }
	defer func() { exit = os.Exit }()

	Fatal("连接测试失败: %s", "timeout")

	if exitCode != 1 {
		t.Errorf("退出码期望 1, 得到 %d", exitCode)
	}
	want := []string{"FATAL 连接测试失败: timeout", "flush"}
	if len(events) != len(want) {
		t.Fatalf("期望事件 %v, 得到 %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("第 %d 个事件期望 %q, 得到 %q", i, want[i], events[i])
		}
	}

	// 钩子只执行一次
	events = nil
	Fatal("再次退出")
	if len(events) != 1 {
		t.Errorf("钩子不应重复执行: %v", events)
	}
}
