package order

import (
	"errors"
	"fmt"
	"strings"

	"futuresbot/exchange"

	"github.com/shopspring/decimal"
)

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TimeInForce 限价单有效方式
type TimeInForce string

const (
	GTC TimeInForce = "GTC" // 一直有效直到撤销
	IOC TimeInForce = "IOC" // 立即成交否则撤销
	FOK TimeInForce = "FOK" // 全部成交否则撤销
)

// Kind 订单类型，取值即交易所的 type 字段
type Kind string

const (
	KindMarket    Kind = "MARKET"
	KindLimit     Kind = "LIMIT"
	KindStopLimit Kind = "STOP"
)

// Label 指标和日志中使用的类型名
func (k Kind) Label() string {
	switch k {
	case KindMarket:
		return "market"
	case KindLimit:
		return "limit"
	case KindStopLimit:
		return "stop_limit"
	default:
		return "unknown"
	}
}

// ParseSide 解析方向（不区分大小写）
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	}
	return "", false
}

// ParseTimeInForce 解析有效方式（不区分大小写）
func ParseTimeInForce(s string) (TimeInForce, bool) {
	switch TimeInForce(strings.ToUpper(strings.TrimSpace(s))) {
	case GTC:
		return GTC, true
	case IOC:
		return IOC, true
	case FOK:
		return FOK, true
	}
	return "", false
}

// Request 经过校验的订单请求
// 止损限价单的限价放在 Price，触发价放在 StopPrice
type Request struct {
	Kind        Kind
	Symbol      string
	Side        Side
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
}

var errEmptyRequest = errors.New("空订单请求")

// Params 按订单类型映射为交易所字段，不属于该类型的字段不会发送
func (r Request) Params() (exchange.OrderParams, error) {
	if r.Kind == "" {
		return exchange.OrderParams{}, errEmptyRequest
	}
	if r.Symbol == "" {
		return exchange.OrderParams{}, fmt.Errorf("缺少交易对")
	}
	if _, ok := ParseSide(string(r.Side)); !ok {
		return exchange.OrderParams{}, fmt.Errorf("无效方向: %q", r.Side)
	}
	if !r.Quantity.IsPositive() {
		return exchange.OrderParams{}, fmt.Errorf("数量必须大于0: %s", r.Quantity)
	}

	p := exchange.OrderParams{
		Symbol:   r.Symbol,
		Side:     string(r.Side),
		Type:     string(r.Kind),
		Quantity: r.Quantity.String(),
	}

	switch r.Kind {
	case KindMarket:
		return p, nil
	case KindLimit, KindStopLimit:
		if !r.Price.IsPositive() {
			return exchange.OrderParams{}, fmt.Errorf("价格必须大于0: %s", r.Price)
		}
		if _, ok := ParseTimeInForce(string(r.TimeInForce)); !ok {
			return exchange.OrderParams{}, fmt.Errorf("无效有效方式: %q", r.TimeInForce)
		}
		p.Price = r.Price.String()
		p.TimeInForce = string(r.TimeInForce)
		if r.Kind == KindStopLimit {
			if !r.StopPrice.IsPositive() {
				return exchange.OrderParams{}, fmt.Errorf("触发价必须大于0: %s", r.StopPrice)
			}
			p.StopPrice = r.StopPrice.String()
		}
		return p, nil
	default:
		return exchange.OrderParams{}, fmt.Errorf("不支持的订单类型: %q", r.Kind)
	}
}
