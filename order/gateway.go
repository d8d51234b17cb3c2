package order

import (
	"context"
	"encoding/json"
	"time"

	"futuresbot/exchange"
	"futuresbot/logger"
	"futuresbot/metrics"
	"futuresbot/utils"
)

// Gateway 提交订单并归类结果；每次只调用一次交易所，不做重试
type Gateway struct {
	api            exchange.FuturesAPI
	newClientOrder func() string
}

// NewGateway 创建订单网关
func NewGateway(api exchange.FuturesAPI) *Gateway {
	return &Gateway{
		api:            api,
		newClientOrder: utils.NewClientOrderID,
	}
}

// Submit 提交订单
func (g *Gateway) Submit(ctx context.Context, req Request) Result {
	label := req.Kind.Label()
	pm := metrics.GetPrometheusMetrics()

	params, err := req.Params()
	if err != nil {
		res := Reject(&exchange.RequestError{Op: "createOrder", Err: err})
		pm.RecordOrderSubmit(label, res.outcome())
		logger.Error("❌ [%s] 订单请求无效，未发送: %v", label, err)
		return res
	}
	params.ClientOrderID = g.newClientOrder()

	paramsJSON, _ := json.Marshal(params)
	logger.WithFields(logger.Fields{
		"endpoint": "createOrder",
		"symbol":   params.Symbol,
		"params":   string(paramsJSON),
	}).Info("📤 发送下单请求")

	start := time.Now()
	raw, err := g.api.CreateOrder(ctx, params)
	duration := time.Since(start)

	var res Result
	if err != nil {
		res = Reject(err)
		res.ClientOrderID = params.ClientOrderID
		logger.WithFields(logger.Fields{
			"endpoint": "createOrder",
			"symbol":   params.Symbol,
			"duration": duration,
		}).Errorf("❌ 下单失败: %v", res.Rejection)
	} else {
		res = FromPayload(raw)
		if res.ClientOrderID == "" {
			res.ClientOrderID = params.ClientOrderID
		}
		logger.WithFields(logger.Fields{
			"endpoint": "createOrder",
			"symbol":   params.Symbol,
			"payload":  string(raw),
			"duration": duration,
		}).Info("📥 收到下单响应")
		logResult(label, params.Symbol, res)
	}

	pm.RecordOrderSubmit(label, res.outcome())
	return res
}

func logResult(label, symbol string, res Result) {
	switch {
	case !res.Accepted():
		logger.Error("❌ [%s] %s 响应无法解析: %v", label, symbol, res.Rejection)
	case res.MissingID:
		logger.Warn("⚠️ [%s] %s 订单已接受，但响应中没有 orderId/algoId", label, symbol)
	default:
		name, id := res.ID()
		logger.Info("✅ [%s] %s 订单已接受: %s=%d, 状态=%s", label, symbol, name, id, res.Status)
	}
}
