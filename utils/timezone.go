package utils

import (
	"time"
)

var (
	// GlobalLocation 全局配置的时区
	GlobalLocation = time.Local
)

// SetLocation 设置全局时区，name 为空时保持当前时区
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata 缺失时常见的东8区写法兜底
		if name == "UTC+8" || name == "Asia/Shanghai" {
			GlobalLocation = time.FixedZone("UTC+8", 8*60*60)
			return nil
		}
		return err
	}
	GlobalLocation = loc
	return nil
}

// ToConfiguredTimezone 将时间转换为配置的时区
func ToConfiguredTimezone(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(GlobalLocation)
}

// NowUTC 获取当前UTC时间
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FromMillis 将交易所毫秒时间戳转换为配置时区的时间
func FromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return ToConfiguredTimezone(time.UnixMilli(ms))
}
