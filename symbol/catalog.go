package symbol

import (
	"context"
	"strings"
	"time"

	"futuresbot/exchange"
	"futuresbot/logger"
	"futuresbot/metrics"
)

// Status 交易对查询结果
type Status int

const (
	Valid   Status = iota // 在当前快照中
	Invalid               // 快照中不存在
	Unknown               // 无法获取交易对列表
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// 只有可交易的合约才进入快照
const statusTrading = "TRADING"

// Catalog 交易对目录
// 快照只收录状态为 TRADING（或交易所未给出状态）的合约；SETTLING、PENDING_TRADING
// 等暂停交易的合约不在快照中，查询结果为 Invalid，并在日志中注明其当前状态
type Catalog struct {
	api   exchange.FuturesAPI
	ttl   time.Duration
	cache Cache
}

// NewCatalog 创建交易对目录
// ttl <= 0 或 cache 为 nil 时每次查询都重新拉取交易所信息
func NewCatalog(api exchange.FuturesAPI, ttl time.Duration, cache Cache) *Catalog {
	if ttl <= 0 {
		cache = nil
	}
	return &Catalog{api: api, ttl: ttl, cache: cache}
}

// Normalize 去掉空白并转为大写
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup 查询交易对状态
func (c *Catalog) Lookup(ctx context.Context, symbol string) Status {
	sym := Normalize(symbol)
	if sym == "" {
		return Invalid
	}
	pm := metrics.GetPrometheusMetrics()

	if c.cache != nil {
		found, ok, err := c.cache.Contains(ctx, sym)
		switch {
		case err != nil:
			logger.Warn("⚠️ 读取交易对缓存失败，改为直接查询交易所: %v", err)
		case ok:
			pm.RecordCatalogFetch("cached")
			if found {
				return Valid
			}
			return Invalid
		}
	}

	infos, err := c.api.ExchangeInfo(ctx)
	if err != nil {
		pm.RecordCatalogFetch("failed")
		logger.Error("❌ 获取交易对列表失败: %v", err)
		return Unknown
	}
	pm.RecordCatalogFetch("fetched")

	symbols, paused := tradable(infos)
	if c.cache != nil {
		if err := c.cache.Replace(ctx, symbols, c.ttl); err != nil {
			logger.Warn("⚠️ 写入交易对缓存失败: %v", err)
		}
	}

	for _, s := range symbols {
		if s == sym {
			return Valid
		}
	}
	if status, ok := paused[sym]; ok {
		logger.Warn("⚠️ 交易对 %s 当前状态为 %s，不可交易", sym, status)
	}
	return Invalid
}

// IsValid 只有确认存在时返回 true，查询失败按无效处理
func (c *Catalog) IsValid(ctx context.Context, symbol string) bool {
	return c.Lookup(ctx, symbol) == Valid
}

// tradable 拆分出可交易的交易对，其余的按交易对记录状态
func tradable(infos []exchange.SymbolInfo) ([]string, map[string]string) {
	symbols := make([]string, 0, len(infos))
	paused := make(map[string]string)
	for _, info := range infos {
		sym := Normalize(info.Symbol)
		if info.Status != "" && info.Status != statusTrading {
			paused[sym] = info.Status
			continue
		}
		symbols = append(symbols, sym)
	}
	return symbols, paused
}
