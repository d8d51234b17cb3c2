package i18n

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTranslate(t *testing.T) {
	if err := Init("zh-CN"); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	defer SetSystemLanguage(defaultLang)

	if got := T("menu.option_exit"); got != "8. 退出" {
		t.Errorf("中文翻译错误: %s", got)
	}
	if got := TWithLang("en-US", "menu.option_exit"); got != "8. Exit" {
		t.Errorf("英文翻译错误: %s", got)
	}

	got := T("result.canceled", map[string]interface{}{"ID": 42, "Status": "CANCELED"})
	if got != "撤单成功: orderId=42, 状态=CANCELED" {
		t.Errorf("模板渲染错误: %s", got)
	}

	SetSystemLanguage("en-US")
	if got := T("orders.empty"); got != "No open orders" {
		t.Errorf("切换语言后翻译错误: %s", got)
	}

	if got := T("no.such.key"); got != "no.such.key" {
		t.Errorf("找不到消息时应返回 key, 得到 %s", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	zh, err := readKeys("locales/zh-CN.yaml")
	if err != nil {
		t.Fatal(err)
	}
	en, err := readKeys("locales/en-US.yaml")
	if err != nil {
		t.Fatal(err)
	}
	for k := range zh {
		if !en[k] {
			t.Errorf("en-US 缺少 %s", k)
		}
	}
	for k := range en {
		if !zh[k] {
			t.Errorf("zh-CN 缺少 %s", k)
		}
	}
}

func TestInitRejectsBadTag(t *testing.T) {
	if err := Init("not a tag!"); err == nil {
		t.Error("无效语言标签应该报错")
	}
}

func readKeys(name string) (map[string]bool, error) {
	data, err := localeFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(m))
	for k := range m {
		keys[k] = true
	}
	return keys, nil
}
