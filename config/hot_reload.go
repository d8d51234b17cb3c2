package config

import (
	"fmt"
	"sync"
)

// HotReloader 配置热更新器
type HotReloader struct {
	mu              sync.RWMutex
	currentConfig   *Config
	updateCallbacks []ConfigUpdateCallback
}

// ConfigUpdateCallback 配置更新回调函数类型，只会收到可以热更新的变更
type ConfigUpdateCallback func(newConfig *Config, changes []ConfigChange) error

// NewHotReloader 创建热更新器
func NewHotReloader(initialConfig *Config) *HotReloader {
	return &HotReloader{currentConfig: initialConfig}
}

// RegisterCallback 注册配置更新回调
func (hr *HotReloader) RegisterCallback(callback ConfigUpdateCallback) {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	hr.updateCallbacks = append(hr.updateCallbacks, callback)
}

// GetCurrentConfig 获取当前生效的配置
func (hr *HotReloader) GetCurrentConfig() *Config {
	hr.mu.RLock()
	defer hr.mu.RUnlock()
	return hr.currentConfig
}

// UpdateConfig 只应用可热更新的变更；需要重启的变更保留在返回的 diff 中
func (hr *HotReloader) UpdateConfig(newConfig *Config) (*ConfigDiff, error) {
	hr.mu.Lock()
	defer hr.mu.Unlock()

	diff := DiffConfig(hr.currentConfig, newConfig)

	var hot []ConfigChange
	for _, change := range diff.Changes {
		if !change.RequiresRestart {
			hot = append(hot, change)
		}
	}
	if len(hot) == 0 {
		return diff, nil
	}

	updated := *hr.currentConfig
	updated.System.LogLevel = newConfig.System.LogLevel
	updated.System.LogLanguage = newConfig.System.LogLanguage

	for _, callback := range hr.updateCallbacks {
		if err := callback(&updated, hot); err != nil {
			return diff, fmt.Errorf("执行配置更新回调失败: %w", err)
		}
	}
	hr.currentConfig = &updated
	return diff, nil
}
