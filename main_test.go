package main

import (
	"testing"

	"futuresbot/config"
	"futuresbot/logger"
)

func TestReloadCallbackKeepsDebugLevel(t *testing.T) {
	defer logger.SetLevel(logger.INFO)

	fileCfg := config.DefaultConfig()
	fileCfg.System.LogLevel = "info"

	edited := *fileCfg
	edited.System.LogLevel = "error"

	// -debug 运行：文件里的级别变更不覆盖 DEBUG
	logger.SetLevel(logger.DEBUG)
	reloader := config.NewHotReloader(fileCfg)
	reloader.RegisterCallback(reloadCallback(true))
	if _, err := reloader.UpdateConfig(&edited); err != nil {
		t.Fatalf("热更新失败: %v", err)
	}
	if got := logger.GetLevel(); got != logger.DEBUG {
		t.Errorf("调试模式下级别应保持 DEBUG, 得到 %s", got)
	}

	// 只改语言时不产生日志级别变更
	langOnly := *fileCfg
	langOnly.System.LogLanguage = "en-US"
	diff := config.DiffConfig(fileCfg, &langOnly)
	for _, c := range diff.Changes {
		if c.Path == "system.log_level" {
			t.Errorf("未修改日志级别却产生了变更: %s", c)
		}
	}

	// 普通运行：级别跟随文件
	reloader = config.NewHotReloader(fileCfg)
	reloader.RegisterCallback(reloadCallback(false))
	if _, err := reloader.UpdateConfig(&edited); err != nil {
		t.Fatalf("热更新失败: %v", err)
	}
	if got := logger.GetLevel(); got != logger.ERROR {
		t.Errorf("级别期望 ERROR, 得到 %s", got)
	}
}
