package order

import (
	"context"

	"futuresbot/logger"
	"futuresbot/metrics"
	"futuresbot/symbol"

	"github.com/shopspring/decimal"
)

// SymbolLookup 交易对查询
type SymbolLookup interface {
	Lookup(ctx context.Context, symbol string) symbol.Status
}

// Builder 校验参数并构造订单请求，不发送订单
// 每个入口按固定顺序校验，遇到第一个失败就返回
type Builder struct {
	symbols    SymbolLookup
	defaultTIF TimeInForce
}

// NewBuilder 创建订单构造器，defaultTIF 为空或无效时使用 GTC
func NewBuilder(symbols SymbolLookup, defaultTIF string) *Builder {
	tif, ok := ParseTimeInForce(defaultTIF)
	if !ok {
		tif = GTC
	}
	return &Builder{symbols: symbols, defaultTIF: tif}
}

// Market 市价单：方向 -> 交易对 -> 数量
func (b *Builder) Market(ctx context.Context, sym, side string, quantity decimal.Decimal) (Request, error) {
	req := Request{Kind: KindMarket, Quantity: quantity}
	if err := b.common(ctx, &req, sym, side); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	return req, nil
}

// Limit 限价单：方向 -> 交易对 -> 数量 -> 价格 -> 有效方式
func (b *Builder) Limit(ctx context.Context, sym, side string, quantity, price decimal.Decimal, tif string) (Request, error) {
	req := Request{Kind: KindLimit, Quantity: quantity, Price: price}
	if err := b.common(ctx, &req, sym, side); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	if err := checkPositive("price", InvalidPrice, price); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	if err := b.timeInForce(&req, tif); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	return req, nil
}

// StopLimit 止损限价单：方向 -> 交易对 -> 数量 -> 触发价 -> 限价 -> 有效方式
func (b *Builder) StopLimit(ctx context.Context, sym, side string, quantity, stopPrice, limitPrice decimal.Decimal, tif string) (Request, error) {
	req := Request{Kind: KindStopLimit, Quantity: quantity, Price: limitPrice, StopPrice: stopPrice}
	if err := b.common(ctx, &req, sym, side); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	if err := checkPositive("stopPrice", InvalidPrice, stopPrice); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	if err := checkPositive("limitPrice", InvalidPrice, limitPrice); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	if err := b.timeInForce(&req, tif); err != nil {
		return Request{}, b.fail(req.Kind, err)
	}
	return req, nil
}

// common 方向在查询交易对之前校验，避免无意义的网络请求
func (b *Builder) common(ctx context.Context, req *Request, sym, side string) error {
	s, ok := ParseSide(side)
	if !ok {
		return &ValidationError{Kind: InvalidSide, Field: "side", Value: side}
	}
	req.Side = s

	switch b.symbols.Lookup(ctx, sym) {
	case symbol.Valid:
		req.Symbol = symbol.Normalize(sym)
	case symbol.Unknown:
		return &ValidationError{Kind: SymbolUnavailable, Field: "symbol", Value: sym}
	default:
		return &ValidationError{Kind: InvalidSymbol, Field: "symbol", Value: sym}
	}

	return checkPositive("quantity", InvalidQuantity, req.Quantity)
}

func (b *Builder) timeInForce(req *Request, tif string) error {
	if tif == "" {
		req.TimeInForce = b.defaultTIF
		return nil
	}
	parsed, ok := ParseTimeInForce(tif)
	if !ok {
		return &ValidationError{Kind: InvalidTimeInForce, Field: "timeInForce", Value: tif}
	}
	req.TimeInForce = parsed
	return nil
}

func (b *Builder) fail(kind Kind, err error) error {
	if ve, ok := err.(*ValidationError); ok {
		metrics.GetPrometheusMetrics().RecordValidationFailure(kind.Label(), string(ve.Kind))
		logger.Warn("⚠️ [%s] 订单参数无效: %v", kind.Label(), ve)
	}
	return err
}

func checkPositive(field string, kind ValidationKind, v decimal.Decimal) error {
	if !v.IsPositive() {
		return &ValidationError{Kind: kind, Field: field, Value: v.String()}
	}
	return nil
}
