package account

import (
	"context"
	"time"

	"futuresbot/exchange"
	"futuresbot/logger"
	"futuresbot/order"
	"futuresbot/symbol"
	"futuresbot/utils"

	"github.com/shopspring/decimal"
)

// Asset 单个资产余额
type Asset struct {
	Asset     string
	Balance   decimal.Decimal
	Available decimal.Decimal
}

// Snapshot 账户余额快照，只包含钱包余额大于0的资产
type Snapshot struct {
	TotalWalletBalance decimal.Decimal
	AvailableBalance   decimal.Decimal
	Assets             []Asset
}

// Position 非零持仓
type Position struct {
	Symbol        string
	PositionAmt   decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Leverage      string
}

// OrderSummary 挂单摘要
type OrderSummary struct {
	OrderID     int64
	Symbol      string
	Side        string
	Type        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	Status      string
	TimeInForce string
	UpdatedAt   time.Time
}

// View 账户只读操作和撤单；每个操作只调用一次交易所
type View struct {
	api exchange.FuturesAPI
}

// NewView 创建账户视图
func NewView(api exchange.FuturesAPI) *View {
	return &View{api: api}
}

// Balance 查询余额
func (v *View) Balance(ctx context.Context) (*Snapshot, error) {
	info, err := v.api.Account(ctx)
	if err != nil {
		logger.Error("❌ 获取账户信息失败: %v", err)
		return nil, order.Classify(err)
	}

	snap := &Snapshot{
		TotalWalletBalance: parseDecimal(info.TotalWalletBalance),
		AvailableBalance:   parseDecimal(info.AvailableBalance),
	}
	for _, a := range info.Assets {
		balance := parseDecimal(a.WalletBalance)
		if !balance.IsPositive() {
			continue
		}
		snap.Assets = append(snap.Assets, Asset{
			Asset:     a.Asset,
			Balance:   balance,
			Available: parseDecimal(a.AvailableBalance),
		})
	}
	logger.Debug("💰 账户余额: 钱包=%s, 可用=%s, 资产数=%d",
		snap.TotalWalletBalance, snap.AvailableBalance, len(snap.Assets))
	return snap, nil
}

// OpenOrders 查询挂单，symbol 为空表示全部交易对
func (v *View) OpenOrders(ctx context.Context, sym string) ([]OrderSummary, error) {
	sym = symbol.Normalize(sym)
	orders, err := v.api.OpenOrders(ctx, sym)
	if err != nil {
		logger.Error("❌ 获取挂单失败: %v", err)
		return nil, order.Classify(err)
	}

	result := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderSummary{
			OrderID:     o.OrderID,
			Symbol:      o.Symbol,
			Side:        o.Side,
			Type:        o.Type,
			Quantity:    parseDecimal(o.OrigQty),
			Price:       parseDecimal(o.Price),
			StopPrice:   parseDecimal(o.StopPrice),
			Status:      o.Status,
			TimeInForce: o.TimeInForce,
			UpdatedAt:   utils.FromMillis(o.UpdateTime),
		})
	}
	return result, nil
}

// Positions 查询持仓，过滤掉数量为0的交易对
func (v *View) Positions(ctx context.Context, sym string) ([]Position, error) {
	sym = symbol.Normalize(sym)
	risks, err := v.api.PositionRisk(ctx, sym)
	if err != nil {
		logger.Error("❌ 获取持仓失败: %v", err)
		return nil, order.Classify(err)
	}

	var positions []Position
	for _, p := range risks {
		amt := parseDecimal(p.PositionAmt)
		if amt.IsZero() {
			continue
		}
		positions = append(positions, Position{
			Symbol:        p.Symbol,
			PositionAmt:   amt,
			EntryPrice:    parseDecimal(p.EntryPrice),
			MarkPrice:     parseDecimal(p.MarkPrice),
			UnrealizedPnL: parseDecimal(p.UnRealizedProfit),
			Leverage:      p.Leverage,
		})
	}
	return positions, nil
}

// Cancel 撤单，结果归类方式与下单一致
func (v *View) Cancel(ctx context.Context, sym string, orderID int64) order.Result {
	sym = symbol.Normalize(sym)
	logger.WithFields(logger.Fields{
		"endpoint": "cancelOrder",
		"symbol":   sym,
		"orderId":  orderID,
	}).Info("📤 发送撤单请求")

	start := time.Now()
	raw, err := v.api.CancelOrder(ctx, sym, orderID)
	duration := time.Since(start)
	if err != nil {
		res := order.Reject(err)
		logger.WithFields(logger.Fields{
			"endpoint": "cancelOrder",
			"symbol":   sym,
			"duration": duration,
		}).Errorf("❌ 撤单失败: %v", res.Rejection)
		return res
	}

	logger.WithFields(logger.Fields{
		"endpoint": "cancelOrder",
		"symbol":   sym,
		"payload":  string(raw),
		"duration": duration,
	}).Info("📥 收到撤单响应")
	return order.FromPayload(raw)
}

// parseDecimal 交易所返回空字符串或非法数字时按 0 处理
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		logger.Warn("⚠️ 无法解析数值 %q: %v", s, err)
		return decimal.Zero
	}
	return v
}
