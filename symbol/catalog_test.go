package symbol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"futuresbot/exchange"
	"futuresbot/logger"

	"github.com/redis/go-redis/v9"
)

type fakeAPI struct {
	symbols []exchange.SymbolInfo
	err     error
	calls   int
}

func (f *fakeAPI) ExchangeInfo(ctx context.Context) ([]exchange.SymbolInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.symbols, nil
}

func (f *fakeAPI) CreateOrder(ctx context.Context, p exchange.OrderParams) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) CancelOrder(ctx context.Context, symbol string, orderID int64) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) OpenOrders(ctx context.Context, symbol string) ([]exchange.OpenOrder, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Account(ctx context.Context) (*exchange.AccountInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) PositionRisk(ctx context.Context, symbol string) ([]exchange.PositionInfo, error) {
	return nil, errors.New("not implemented")
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{symbols: []exchange.SymbolInfo{
		{Symbol: "BTCUSDT", Status: "TRADING"},
		{Symbol: "ETHUSDT", Status: "TRADING"},
		{Symbol: "OLDUSDT", Status: "SETTLING"},
		{Symbol: "XRPUSDT"},
	}}
}

func TestCatalogLookup(t *testing.T) {
	api := newFakeAPI()
	c := NewCatalog(api, 0, nil)
	ctx := context.Background()

	tests := []struct {
		symbol string
		want   Status
	}{
		{"BTCUSDT", Valid},
		{"btcusdt", Valid},
		{"  ethusdt ", Valid},
		{"XRPUSDT", Valid},
		{"OLDUSDT", Invalid},
		{"DOGEUSDT", Invalid},
		{"", Invalid},
	}
	for _, tt := range tests {
		if got := c.Lookup(ctx, tt.symbol); got != tt.want {
			t.Errorf("Lookup(%q) = %s, 期望 %s", tt.symbol, got, tt.want)
		}
	}

	// 不缓存时每次非空查询都会拉取
	if api.calls != 6 {
		t.Errorf("期望拉取 6 次交易所信息, 实际 %d", api.calls)
	}
}

func TestCatalogPausedSymbolIsInvalidWithStatusLog(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.Close()

	c := NewCatalog(newFakeAPI(), 0, nil)
	if got := c.Lookup(context.Background(), "oldusdt"); got != Invalid {
		t.Fatalf("SETTLING 交易对期望 Invalid, 得到 %s", got)
	}
	if out := buf.String(); !strings.Contains(out, "OLDUSDT") || !strings.Contains(out, "SETTLING") {
		t.Errorf("日志应注明交易对当前状态: %s", out)
	}

	buf.Reset()
	c.Lookup(context.Background(), "DOGEUSDT")
	if strings.Contains(buf.String(), "不可交易") {
		t.Errorf("不存在的交易对不应提示暂停状态: %s", buf.String())
	}
}

func TestCatalogFetchFailureIsUnknown(t *testing.T) {
	api := newFakeAPI()
	api.err = &exchange.RequestError{Op: "exchangeInfo", Err: errors.New("connection refused")}
	c := NewCatalog(api, 0, nil)

	if got := c.Lookup(context.Background(), "BTCUSDT"); got != Unknown {
		t.Errorf("拉取失败时期望 Unknown, 得到 %s", got)
	}
	if c.IsValid(context.Background(), "BTCUSDT") {
		t.Error("拉取失败时 IsValid 应返回 false")
	}
}

func TestCatalogMemoryCache(t *testing.T) {
	api := newFakeAPI()
	cache := NewMemoryCache()
	now := time.Unix(1700000000, 0)
	cache.now = func() time.Time { return now }

	c := NewCatalog(api, time.Minute, cache)
	ctx := context.Background()

	if !c.IsValid(ctx, "BTCUSDT") {
		t.Fatal("BTCUSDT 应该有效")
	}
	if c.IsValid(ctx, "DOGEUSDT") {
		t.Error("DOGEUSDT 应该无效")
	}
	if c.IsValid(ctx, "OLDUSDT") {
		t.Error("非 TRADING 状态的交易对不应进入缓存")
	}
	if api.calls != 1 {
		t.Errorf("缓存有效期内期望只拉取 1 次, 实际 %d", api.calls)
	}

	// 过期后重新拉取
	now = now.Add(2 * time.Minute)
	if !c.IsValid(ctx, "ETHUSDT") {
		t.Error("ETHUSDT 应该有效")
	}
	if api.calls != 2 {
		t.Errorf("缓存过期后期望拉取 2 次, 实际 %d", api.calls)
	}
}

type brokenCache struct{}

func (brokenCache) Contains(ctx context.Context, symbol string) (bool, bool, error) {
	return false, false, errors.New("cache down")
}

func (brokenCache) Replace(ctx context.Context, symbols []string, ttl time.Duration) error {
	return errors.New("cache down")
}

func TestCatalogCacheErrorFallsBackToFetch(t *testing.T) {
	api := newFakeAPI()
	c := NewCatalog(api, time.Minute, brokenCache{})

	if got := c.Lookup(context.Background(), "BTCUSDT"); got != Valid {
		t.Errorf("缓存故障时应直接查询交易所, 得到 %s", got)
	}
	if api.calls != 1 {
		t.Errorf("期望拉取 1 次, 实际 %d", api.calls)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("未设置 REDIS_ADDR，跳过 Redis 测试")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client, "futuresbot:test:")
	client.Del(ctx, cache.key)
	defer client.Del(ctx, cache.key)

	if _, ok, err := cache.Contains(ctx, "BTCUSDT"); err != nil || ok {
		t.Fatalf("空缓存期望 ok=false, 得到 ok=%v err=%v", ok, err)
	}

	if err := cache.Replace(ctx, []string{"BTCUSDT", "ETHUSDT"}, time.Minute); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	found, ok, err := cache.Contains(ctx, "BTCUSDT")
	if err != nil || !ok || !found {
		t.Errorf("BTCUSDT 期望命中, 得到 found=%v ok=%v err=%v", found, ok, err)
	}
	found, ok, err = cache.Contains(ctx, "DOGEUSDT")
	if err != nil || !ok || found {
		t.Errorf("DOGEUSDT 期望不存在, 得到 found=%v ok=%v err=%v", found, ok, err)
	}

	// 过期后应视为无快照，而不是“不存在”
	if err := cache.Replace(ctx, []string{"BTCUSDT"}, 50*time.Millisecond); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, ok, err := cache.Contains(ctx, "BTCUSDT"); err != nil || ok {
		t.Errorf("过期后期望 ok=false, 得到 ok=%v err=%v", ok, err)
	}

	api := newFakeAPI()
	catalog := NewCatalog(api, 50*time.Millisecond, cache)
	if got := catalog.Lookup(ctx, "ETHUSDT"); got != Valid {
		t.Errorf("快照过期后应重新拉取, 得到 %s", got)
	}
	if api.calls != 1 {
		t.Errorf("期望拉取 1 次, 实际 %d", api.calls)
	}
}
