package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"futuresbot/exchange"
	"futuresbot/logger"
	"futuresbot/metrics"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

const (
	// MainnetBaseURL U本位合约主网
	MainnetBaseURL = "https://fapi.binance.com"
	// TestnetBaseURL U本位合约测试网
	TestnetBaseURL = "https://testnet.binancefuture.com"
)

// Config 币安适配器配置
type Config struct {
	APIKey            string
	SecretKey         string
	Testnet           bool
	BaseURL           string  // 非空时覆盖主网/测试网地址
	RecvWindow        int64   // 毫秒，0 表示使用交易所默认值
	RequestsPerSecond float64 // 每秒请求上限，<=0 表示不限速
	Burst             int
}

// BinanceAdapter 币安 U本位合约适配器，实现 exchange.FuturesAPI
// 构造完成后不再修改，可以在多个 goroutine 中共享
type BinanceAdapter struct {
	client     *futures.Client
	limiter    *rate.Limiter
	recvWindow int64
	useTestnet bool
}

var _ exchange.FuturesAPI = (*BinanceAdapter)(nil)

// NewBinanceAdapter 创建币安适配器
func NewBinanceAdapter(cfg Config) (*BinanceAdapter, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("Binance API 配置不完整")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	// 下单/撤单需要交易所原始响应（SDK 的结构体不含 algoId 等字段）
	client.HTTPClient = &http.Client{Transport: &captureTransport{next: http.DefaultTransport}}
	// 直接设置 BaseURL，不修改 futures.UseTestnet 全局变量
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.Testnet:
		client.BaseURL = TestnetBaseURL
	default:
		client.BaseURL = MainnetBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.Testnet {
		logger.Info("🌐 [Binance] 使用测试网模式: %s", client.BaseURL)
	} else {
		logger.Info("🌐 [Binance] 使用主网: %s", client.BaseURL)
	}

	return &BinanceAdapter{
		client:     client,
		limiter:    limiter,
		recvWindow: cfg.RecvWindow,
		useTestnet: cfg.Testnet,
	}, nil
}

// GetName 获取交易所名称
func (b *BinanceAdapter) GetName() string {
	return "Binance"
}

// IsTestnet 是否连接测试网
func (b *BinanceAdapter) IsTestnet() bool {
	return b.useTestnet
}

// BaseURL 当前使用的 REST 地址
func (b *BinanceAdapter) BaseURL() string {
	return b.client.BaseURL
}

// SyncServerTime 同步服务器时间，避免签名时间戳超出 recvWindow
func (b *BinanceAdapter) SyncServerTime(ctx context.Context) error {
	return b.call(ctx, "time", func() error {
		offset, err := b.client.NewSetServerTimeService().Do(ctx)
		if err == nil {
			logger.Debug("⏱️ [Binance] 服务器时间偏移: %dms", offset)
		}
		return err
	})
}

func (b *BinanceAdapter) opts() []futures.RequestOption {
	if b.recvWindow <= 0 {
		return nil
	}
	return []futures.RequestOption{futures.WithRecvWindow(b.recvWindow)}
}

// call 限速、计时并把 SDK 错误转换为 exchange 包的错误类型；不做重试
func (b *BinanceAdapter) call(ctx context.Context, endpoint string, fn func() error) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s 等待限速失败: %w", endpoint, err)
	}

	logger.WithFields(logger.Fields{"endpoint": endpoint}).Debug("➡️ [Binance] 发送请求")

	start := time.Now()
	err := translateError(endpoint, fn())
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		logger.WithFields(logger.Fields{
			"endpoint": endpoint,
			"duration": duration,
		}).Warnf("⚠️ [Binance] 请求失败: %v", err)
	} else {
		logger.WithFields(logger.Fields{
			"endpoint": endpoint,
			"duration": duration,
		}).Debug("⬅️ [Binance] 收到响应")
	}
	metrics.GetPrometheusMetrics().RecordAPICall(endpoint, status, duration)

	return err
}

// translateError 错误分类：交易所错误 / 请求层错误 / 其他（原样包装）
func translateError(endpoint string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &exchange.APIError{Code: apiErr.Code, Message: apiErr.Message}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", endpoint, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return fmt.Errorf("%s 请求超时: %w", endpoint, err)
		}
		return &exchange.RequestError{Op: endpoint, Err: err}
	}

	return fmt.Errorf("%s: %w", endpoint, err)
}

// ExchangeInfo 获取全部合约交易对
func (b *BinanceAdapter) ExchangeInfo(ctx context.Context) ([]exchange.SymbolInfo, error) {
	var info *futures.ExchangeInfo
	err := b.call(ctx, "exchangeInfo", func() error {
		var err error
		info, err = b.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	symbols := make([]exchange.SymbolInfo, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols = append(symbols, exchange.SymbolInfo{
			Symbol: s.Symbol,
			Status: s.Status,
		})
	}
	return symbols, nil
}

// CreateOrder 下单，返回序列化后的交易所响应
func (b *BinanceAdapter) CreateOrder(ctx context.Context, p exchange.OrderParams) (json.RawMessage, error) {
	svc := b.client.NewCreateOrderService().
		Symbol(p.Symbol).
		Side(futures.SideType(p.Side)).
		Type(futures.OrderType(p.Type)).
		Quantity(p.Quantity)
	if p.Price != "" {
		svc = svc.Price(p.Price)
	}
	if p.StopPrice != "" {
		svc = svc.StopPrice(p.StopPrice)
	}
	if p.TimeInForce != "" {
		svc = svc.TimeInForce(futures.TimeInForceType(p.TimeInForce))
	}
	if p.ClientOrderID != "" {
		svc = svc.NewClientOrderID(p.ClientOrderID)
	}

	ctx, capture := withPayloadCapture(ctx)
	var resp *futures.CreateOrderResponse
	err := b.call(ctx, "createOrder", func() error {
		var err error
		resp, err = svc.Do(ctx, b.opts()...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rawPayload("createOrder", capture, resp)
}

// CancelOrder 撤单
func (b *BinanceAdapter) CancelOrder(ctx context.Context, symbol string, orderID int64) (json.RawMessage, error) {
	ctx, capture := withPayloadCapture(ctx)
	var resp *futures.CancelOrderResponse
	err := b.call(ctx, "cancelOrder", func() error {
		var err error
		resp, err = b.client.NewCancelOrderService().
			Symbol(symbol).
			OrderID(orderID).
			Do(ctx, b.opts()...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rawPayload("cancelOrder", capture, resp)
}

// OpenOrders 查询挂单
func (b *BinanceAdapter) OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error) {
	svc := b.client.NewListOpenOrdersService()
	if symbol != "" {
		svc = svc.Symbol(symbol)
	}

	var orders []*futures.Order
	err := b.call(ctx, "openOrders", func() error {
		var err error
		orders, err = svc.Do(ctx, b.opts()...)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]exchange.OpenOrder, 0, len(orders))
	for _, o := range orders {
		result = append(result, exchange.OpenOrder{
			OrderID:     o.OrderID,
			Symbol:      o.Symbol,
			Side:        string(o.Side),
			Type:        string(o.Type),
			Status:      string(o.Status),
			TimeInForce: string(o.TimeInForce),
			OrigQty:     o.OrigQuantity,
			Price:       o.Price,
			StopPrice:   o.StopPrice,
			UpdateTime:  o.UpdateTime,
		})
	}
	return result, nil
}

// Account 获取合约账户信息
func (b *BinanceAdapter) Account(ctx context.Context) (*exchange.AccountInfo, error) {
	var account *futures.Account
	err := b.call(ctx, "account", func() error {
		var err error
		account, err = b.client.NewGetAccountService().Do(ctx, b.opts()...)
		return err
	})
	if err != nil {
		return nil, err
	}

	info := &exchange.AccountInfo{
		TotalWalletBalance: account.TotalWalletBalance,
		AvailableBalance:   account.AvailableBalance,
		Assets:             make([]exchange.AccountAsset, 0, len(account.Assets)),
	}
	for _, asset := range account.Assets {
		info.Assets = append(info.Assets, exchange.AccountAsset{
			Asset:            asset.Asset,
			WalletBalance:    asset.WalletBalance,
			AvailableBalance: asset.AvailableBalance,
		})
	}
	return info, nil
}

// PositionRisk 获取持仓信息
func (b *BinanceAdapter) PositionRisk(ctx context.Context, symbol string) ([]exchange.PositionInfo, error) {
	svc := b.client.NewGetPositionRiskService()
	if symbol != "" {
		svc = svc.Symbol(symbol)
	}

	var risks []*futures.PositionRisk
	err := b.call(ctx, "positionRisk", func() error {
		var err error
		risks, err = svc.Do(ctx, b.opts()...)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := make([]exchange.PositionInfo, 0, len(risks))
	for _, pos := range risks {
		result = append(result, exchange.PositionInfo{
			Symbol:           pos.Symbol,
			PositionAmt:      pos.PositionAmt,
			EntryPrice:       pos.EntryPrice,
			UnRealizedProfit: pos.UnRealizedProfit,
			MarkPrice:        pos.MarkPrice,
			Leverage:         pos.Leverage,
		})
	}
	return result, nil
}

// rawPayload 优先返回抓取到的原始响应体，没有时退回到序列化 SDK 结构体
func rawPayload(endpoint string, capture *payloadCapture, v interface{}) (json.RawMessage, error) {
	if body := capture.Bytes(); len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s 序列化响应失败: %w", endpoint, err)
	}
	return data, nil
}
