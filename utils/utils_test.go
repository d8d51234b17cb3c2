package utils

import (
	"strings"
	"testing"
	"time"
)

func TestNewClientOrderID(t *testing.T) {
	id1 := NewClientOrderID()
	id2 := NewClientOrderID()

	if !strings.HasPrefix(id1, ClientOrderIDPrefix) {
		t.Errorf("订单ID缺少前缀: %s", id1)
	}
	if len(id1) > 36 {
		t.Errorf("订单ID超长: %d", len(id1))
	}
	if !IsValidClientOrderID(id1) {
		t.Errorf("订单ID不符合交易所规则: %s", id1)
	}
	if id1 == id2 {
		t.Errorf("生成的订单ID不唯一: %s == %s", id1, id2)
	}
}

func TestIsValidClientOrderID(t *testing.T) {
	if IsValidClientOrderID("") {
		t.Error("空订单ID应该无效")
	}
	if IsValidClientOrderID("含中文") {
		t.Error("非 ASCII 订单ID应该无效")
	}
	if IsValidClientOrderID(strings.Repeat("a", 37)) {
		t.Error("超过 36 个字符的订单ID应该无效")
	}
}

func TestTimezone(t *testing.T) {
	old := GlobalLocation
	defer func() { GlobalLocation = old }()

	if err := SetLocation("UTC"); err != nil {
		t.Fatalf("设置 UTC 时区失败: %v", err)
	}
	ts := FromMillis(1700000000000)
	if ts.Location().String() != "UTC" || ts.Unix() != 1700000000 {
		t.Errorf("毫秒时间戳转换错误: %v", ts)
	}
	if !FromMillis(0).IsZero() {
		t.Error("0 时间戳应返回零值时间")
	}
	if err := SetLocation("Not/AZone"); err == nil {
		t.Error("无效时区应该报错")
	}
	if GlobalLocation != time.UTC && GlobalLocation.String() != "UTC" {
		t.Errorf("无效时区不应修改当前时区: %v", GlobalLocation)
	}
}
