package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// FuturesAPI 合约交易 REST API 的最小边界
// 实现负责签名、传输和限速；调用方只看到这里定义的类型和错误
type FuturesAPI interface {
	// ExchangeInfo 获取全部合约交易对
	ExchangeInfo(ctx context.Context) ([]SymbolInfo, error)
	// CreateOrder 下单，返回交易所原始响应
	CreateOrder(ctx context.Context, params OrderParams) (json.RawMessage, error)
	// CancelOrder 撤单，返回交易所原始响应
	CancelOrder(ctx context.Context, symbol string, orderID int64) (json.RawMessage, error)
	// OpenOrders 查询挂单，symbol 为空表示全部交易对
	OpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
	// Account 获取合约账户信息
	Account(ctx context.Context) (*AccountInfo, error)
	// PositionRisk 获取持仓信息，symbol 为空表示全部交易对
	PositionRisk(ctx context.Context, symbol string) ([]PositionInfo, error)
}

// SymbolInfo 交易对信息
type SymbolInfo struct {
	Symbol string
	Status string
}

// OrderParams 下单参数（字段名与交易所一致，空字符串表示不发送）
type OrderParams struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price,omitempty"`
	StopPrice     string `json:"stopPrice,omitempty"`
	TimeInForce   string `json:"timeInForce,omitempty"`
	ClientOrderID string `json:"newClientOrderId,omitempty"`
}

// OpenOrder 挂单（金额保持交易所返回的字符串）
type OpenOrder struct {
	OrderID     int64
	Symbol      string
	Side        string
	Type        string
	Status      string
	TimeInForce string
	OrigQty     string
	Price       string
	StopPrice   string
	UpdateTime  int64
}

// AccountAsset 单个资产余额
type AccountAsset struct {
	Asset            string
	WalletBalance    string
	AvailableBalance string
}

// AccountInfo 合约账户信息
type AccountInfo struct {
	TotalWalletBalance string
	AvailableBalance   string
	Assets             []AccountAsset
}

// PositionInfo 持仓信息
type PositionInfo struct {
	Symbol           string
	PositionAmt      string
	EntryPrice       string
	UnRealizedProfit string
	MarkPrice        string
	Leverage         string
}

// APIError 交易所拒绝了结构正确的请求（保证金不足、过滤器不满足等）
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("交易所错误 code=%d, msg=%s", e.Code, e.Message)
}

// RequestError 请求在到达交易所之前失败（连接、签名、请求构造）
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("请求失败: %v", e.Err)
	}
	return fmt.Sprintf("%s 请求失败: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsAPIError 判断 err 链上是否有交易所错误，并返回该错误
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsRequestError 判断 err 链上是否有请求层错误
func IsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
