package order

import (
	"encoding/json"
	"fmt"

	"futuresbot/exchange"
)

// RejectionKind 失败类别
type RejectionKind string

const (
	ApiError        RejectionKind = "ApiError"        // 交易所拒绝
	RequestError    RejectionKind = "RequestError"    // 请求未到达交易所
	UnexpectedError RejectionKind = "UnexpectedError" // 超时、响应无法解析等
)

// Rejection 归类后的失败原因
type Rejection struct {
	Kind    RejectionKind
	Code    int64 // 仅 ApiError 有效
	Message string
}

func (r *Rejection) Error() string {
	if r.Kind == ApiError {
		return fmt.Sprintf("%s code=%d: %s", r.Kind, r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// outcome 指标标签
func (r *Rejection) outcome() string {
	switch r.Kind {
	case ApiError:
		return "api_error"
	case RequestError:
		return "request_error"
	default:
		return "unexpected_error"
	}
}

// Classify 把调用错误归类为 Rejection
func Classify(err error) *Rejection {
	if err == nil {
		return nil
	}
	if apiErr, ok := exchange.IsAPIError(err); ok {
		return &Rejection{Kind: ApiError, Code: apiErr.Code, Message: apiErr.Message}
	}
	if reqErr, ok := exchange.IsRequestError(err); ok {
		return &Rejection{Kind: RequestError, Message: reqErr.Error()}
	}
	return &Rejection{Kind: UnexpectedError, Message: err.Error()}
}

// Result 下单/撤单结果；Rejection 为 nil 表示交易所已接受
type Result struct {
	OrderID       int64
	AlgoID        int64
	ClientOrderID string
	Status        string
	Raw           json.RawMessage
	MissingID     bool // 响应中既没有 orderId 也没有 algoId
	Rejection     *Rejection
}

// Accepted 交易所是否接受
func (r Result) Accepted() bool {
	return r.Rejection == nil
}

// ID 返回标识字段名和值，优先 orderId
func (r Result) ID() (string, int64) {
	switch {
	case r.OrderID != 0:
		return "orderId", r.OrderID
	case r.AlgoID != 0:
		return "algoId", r.AlgoID
	default:
		return "", 0
	}
}

func (r Result) outcome() string {
	if r.Rejection != nil {
		return r.Rejection.outcome()
	}
	return "accepted"
}

// Reject 由错误构造失败结果
func Reject(err error) Result {
	return Result{Rejection: Classify(err)}
}

// 订单响应中关心的字段；指针区分“缺失”和零值
type orderPayload struct {
	OrderID       *int64 `json:"orderId"`
	AlgoID        *int64 `json:"algoId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	AlgoStatus    string `json:"algoStatus"`
}

// FromPayload 解析交易所成功响应
// orderId 优先，其次 algoId；都没有（或为 0）时仍视为接受并标记 MissingID
func FromPayload(raw json.RawMessage) Result {
	var p orderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Result{
			Raw:       raw,
			Rejection: &Rejection{Kind: UnexpectedError, Message: fmt.Sprintf("解析响应失败: %v", err)},
		}
	}

	res := Result{
		ClientOrderID: p.ClientOrderID,
		Status:        p.Status,
		Raw:           raw,
	}
	if res.Status == "" {
		res.Status = p.AlgoStatus
	}
	switch {
	case p.OrderID != nil && *p.OrderID != 0:
		res.OrderID = *p.OrderID
	case p.AlgoID != nil && *p.AlgoID != 0:
		res.AlgoID = *p.AlgoID
	default:
		res.MissingID = true
	}
	return res
}
