package order

import "fmt"

// ValidationKind 本地校验失败的类别
type ValidationKind string

const (
	InvalidSide        ValidationKind = "InvalidSide"
	InvalidSymbol      ValidationKind = "InvalidSymbol"
	SymbolUnavailable  ValidationKind = "SymbolUnavailable" // 交易对列表获取失败，无法确认
	InvalidQuantity    ValidationKind = "InvalidQuantity"
	InvalidPrice       ValidationKind = "InvalidPrice"
	InvalidTimeInForce ValidationKind = "InvalidTimeInForce"
)

// ValidationError 本地校验失败，未发送任何请求
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败 [%s]: %s=%q", e.Kind, e.Field, e.Value)
}
