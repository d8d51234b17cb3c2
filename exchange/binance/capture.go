package binance

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

type payloadCaptureKey struct{}

// payloadCapture 保存一次请求的原始响应体
type payloadCapture struct {
	mu   sync.Mutex
	body []byte
}

// Bytes 返回抓取到的响应体，没有时为 nil
func (c *payloadCapture) Bytes() []byte {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

func (c *payloadCapture) set(body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
}

// withPayloadCapture 在 ctx 上挂一个抓取槽，captureTransport 会把响应体写进去
func withPayloadCapture(ctx context.Context) (context.Context, *payloadCapture) {
	c := &payloadCapture{}
	return context.WithValue(ctx, payloadCaptureKey{}, c), c
}

// captureTransport 读出响应体存入请求 ctx 上的抓取槽，再原样交还给 SDK
// ctx 上没有抓取槽的请求直接透传
type captureTransport struct {
	next http.RoundTripper
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.next.RoundTrip(req)
	if err != nil {
		return res, err
	}

	c, ok := req.Context().Value(payloadCaptureKey{}).(*payloadCapture)
	if !ok {
		return res, nil
	}

	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, err
	}
	res.Body = io.NopCloser(bytes.NewReader(body))
	if res.StatusCode < http.StatusBadRequest {
		c.set(body)
	}
	return res, nil
}
