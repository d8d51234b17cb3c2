package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ClientOrderIDPrefix 本程序生成的自定义订单ID前缀
const ClientOrderIDPrefix = "fb-"

// 币安 newClientOrderId 规则
var clientOrderIDPattern = regexp.MustCompile(`^[.A-Z:/a-z0-9_-]{1,36}$`)

// NewClientOrderID 生成自定义订单ID（前缀 + 去掉连字符的 UUID，共 35 个字符）
func NewClientOrderID() string {
	return ClientOrderIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsValidClientOrderID 检查自定义订单ID是否符合交易所规则
func IsValidClientOrderID(id string) bool {
	return clientOrderIDPattern.MatchString(id)
}
