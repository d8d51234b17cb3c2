package config

import (
	"fmt"
	"reflect"
	"strings"
)

// ConfigChange 配置变更
type ConfigChange struct {
	Path            string      `json:"path"` // 配置路径（如 "system.log_level"）
	OldValue        interface{} `json:"old_value"`
	NewValue        interface{} `json:"new_value"`
	RequiresRestart bool        `json:"requires_restart"`
}

// ConfigDiff 配置差异
type ConfigDiff struct {
	Changes         []ConfigChange `json:"changes"`
	RequiresRestart bool           `json:"requires_restart"` // 是否有需要重启的变更
}

// 运行时可以直接生效的配置项，其余变更需要重启
var hotReloadablePaths = map[string]bool{
	"system.log_level":    true,
	"system.log_language": true,
}

// DiffConfig 对比两个配置，生成差异
func DiffConfig(oldConfig, newConfig *Config) *ConfigDiff {
	diff := &ConfigDiff{Changes: []ConfigChange{}}
	diff.compare(reflect.ValueOf(*oldConfig), reflect.ValueOf(*newConfig), "")

	for _, change := range diff.Changes {
		if change.RequiresRestart {
			diff.RequiresRestart = true
			break
		}
	}
	return diff
}

// compare 按 yaml 标签递归比较结构体字段
func (d *ConfigDiff) compare(oldVal, newVal reflect.Value, prefix string) {
	t := oldVal.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		o, n := oldVal.Field(i), newVal.Field(i)
		if field.Type.Kind() == reflect.Struct {
			d.compare(o, n, path)
			continue
		}
		if reflect.DeepEqual(o.Interface(), n.Interface()) {
			continue
		}
		d.Changes = append(d.Changes, ConfigChange{
			Path:            path,
			OldValue:        o.Interface(),
			NewValue:        n.Interface(),
			RequiresRestart: !hotReloadablePaths[path],
		})
	}
}

// String 变更摘要（日志使用），密码类字段不输出值
func (c ConfigChange) String() string {
	if strings.Contains(c.Path, "password") {
		return fmt.Sprintf("%s: ***", c.Path)
	}
	return fmt.Sprintf("%s: %v -> %v", c.Path, c.OldValue, c.NewValue)
}
