package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"futuresbot/account"
	"futuresbot/i18n"
	"futuresbot/logger"
	"futuresbot/order"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")) // 绿色

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")) // 黄色

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色
)

// OrderBuilder 订单参数校验
type OrderBuilder interface {
	Market(ctx context.Context, symbol, side string, quantity decimal.Decimal) (order.Request, error)
	Limit(ctx context.Context, symbol, side string, quantity, price decimal.Decimal, tif string) (order.Request, error)
	StopLimit(ctx context.Context, symbol, side string, quantity, stopPrice, limitPrice decimal.Decimal, tif string) (order.Request, error)
}

// OrderSubmitter 提交订单
type OrderSubmitter interface {
	Submit(ctx context.Context, req order.Request) order.Result
}

// AccountReader 账户查询和撤单
type AccountReader interface {
	Balance(ctx context.Context) (*account.Snapshot, error)
	OpenOrders(ctx context.Context, symbol string) ([]account.OrderSummary, error)
	Positions(ctx context.Context, symbol string) ([]account.Position, error)
	Cancel(ctx context.Context, symbol string, orderID int64) order.Result
}

// Deps 菜单依赖
type Deps struct {
	Builder OrderBuilder
	Gateway OrderSubmitter
	Account AccountReader
	Timeout time.Duration // 单次操作超时，0 表示不限制
	Network string        // 标题中显示的网络（testnet / mainnet）

	DefaultTimeInForce string // 提示中显示的默认有效方式
}

// Menu 交互式菜单
type Menu struct {
	in   *bufio.Reader
	out  io.Writer
	deps Deps
}

// NewMenu 创建菜单
func NewMenu(in io.Reader, out io.Writer, deps Deps) *Menu {
	return &Menu{
		in:   bufio.NewReader(in),
		out:  out,
		deps: deps,
	}
}

// Run 循环显示菜单，选择退出、输入结束或 ctx 取消时返回
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printMenu()
		choice, ok := m.readLine(i18n.T("menu.choose"))
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			m.placeMarket(ctx)
		case "2":
			m.placeLimit(ctx)
		case "3":
			m.placeStopLimit(ctx)
		case "4":
			m.showBalance(ctx)
		case "5":
			m.showOpenOrders(ctx)
		case "6":
			m.showPositions(ctx)
		case "7":
			m.cancelOrder(ctx)
		case "8":
			m.println(i18n.T("menu.bye"))
			return nil
		default:
			m.println(errorStyle.Render(i18n.T("menu.invalid_choice")))
		}
	}
}

func (m *Menu) printMenu() {
	m.println("")
	m.println(titleStyle.Render(i18n.T("menu.title")))
	if m.deps.Network != "" {
		m.println(i18n.T("menu.network", map[string]interface{}{"Network": m.deps.Network}))
	}
	for _, key := range []string{
		"menu.option_market",
		"menu.option_limit",
		"menu.option_stop_limit",
		"menu.option_balance",
		"menu.option_open_orders",
		"menu.option_positions",
		"menu.option_cancel",
		"menu.option_exit",
	} {
		m.println(i18n.T(key))
	}
}

func (m *Menu) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.deps.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.deps.Timeout)
}

func (m *Menu) placeMarket(ctx context.Context) {
	sym, side, qty, ok := m.readCommon()
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	req, err := m.deps.Builder.Market(ctx, sym, side, qty)
	if err != nil {
		m.showError(err)
		return
	}
	m.showOrderResult(m.deps.Gateway.Submit(ctx, req))
}

func (m *Menu) placeLimit(ctx context.Context) {
	sym, side, qty, ok := m.readCommon()
	if !ok {
		return
	}
	price, ok := m.readDecimal(i18n.T("prompt.price"))
	if !ok {
		return
	}
	tif, ok := m.readTimeInForce()
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	req, err := m.deps.Builder.Limit(ctx, sym, side, qty, price, tif)
	if err != nil {
		m.showError(err)
		return
	}
	m.showOrderResult(m.deps.Gateway.Submit(ctx, req))
}

func (m *Menu) placeStopLimit(ctx context.Context) {
	sym, side, qty, ok := m.readCommon()
	if !ok {
		return
	}
	stopPrice, ok := m.readDecimal(i18n.T("prompt.stop_price"))
	if !ok {
		return
	}
	limitPrice, ok := m.readDecimal(i18n.T("prompt.limit_price"))
	if !ok {
		return
	}
	tif, ok := m.readTimeInForce()
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	req, err := m.deps.Builder.StopLimit(ctx, sym, side, qty, stopPrice, limitPrice, tif)
	if err != nil {
		m.showError(err)
		return
	}
	m.showOrderResult(m.deps.Gateway.Submit(ctx, req))
}

func (m *Menu) showBalance(ctx context.Context) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	snap, err := m.deps.Account.Balance(ctx)
	if err != nil {
		m.showError(err)
		return
	}

	m.println(headerStyle.Render(i18n.T("balance.header")))
	m.println(i18n.T("balance.total", map[string]interface{}{"Total": snap.TotalWalletBalance.String()}))
	m.println(i18n.T("balance.available", map[string]interface{}{"Available": snap.AvailableBalance.String()}))
	if len(snap.Assets) == 0 {
		m.println(i18n.T("balance.empty"))
		return
	}
	for _, a := range snap.Assets {
		m.println(i18n.T("balance.asset", map[string]interface{}{
			"Asset":     a.Asset,
			"Balance":   a.Balance.String(),
			"Available": a.Available.String(),
		}))
	}
}

func (m *Menu) showOpenOrders(ctx context.Context) {
	sym, ok := m.readLine(i18n.T("prompt.symbol_optional"))
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	orders, err := m.deps.Account.OpenOrders(ctx, sym)
	if err != nil {
		m.showError(err)
		return
	}

	m.println(headerStyle.Render(i18n.T("orders.header")))
	if len(orders) == 0 {
		m.println(i18n.T("orders.empty"))
		return
	}
	for _, o := range orders {
		m.println(i18n.T("orders.row", map[string]interface{}{
			"ID":          o.OrderID,
			"Symbol":      o.Symbol,
			"Side":        o.Side,
			"Type":        o.Type,
			"Quantity":    o.Quantity.String(),
			"Price":       o.Price.String(),
			"StopPrice":   o.StopPrice.String(),
			"TimeInForce": o.TimeInForce,
			"Status":      o.Status,
		}))
	}
}

func (m *Menu) showPositions(ctx context.Context) {
	sym, ok := m.readLine(i18n.T("prompt.symbol_optional"))
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	positions, err := m.deps.Account.Positions(ctx, sym)
	if err != nil {
		m.showError(err)
		return
	}

	m.println(headerStyle.Render(i18n.T("positions.header")))
	if len(positions) == 0 {
		m.println(i18n.T("positions.empty"))
		return
	}
	for _, p := range positions {
		m.println(i18n.T("positions.row", map[string]interface{}{
			"Symbol":     p.Symbol,
			"Amount":     p.PositionAmt.String(),
			"EntryPrice": p.EntryPrice.String(),
			"MarkPrice":  p.MarkPrice.String(),
			"PnL":        p.UnrealizedPnL.String(),
			"Leverage":   p.Leverage,
		}))
	}
}

func (m *Menu) cancelOrder(ctx context.Context) {
	sym, ok := m.readLine(i18n.T("prompt.symbol"))
	if !ok {
		return
	}
	orderID, ok := m.readOrderID()
	if !ok {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	res := m.deps.Account.Cancel(ctx, sym, orderID)
	if !res.Accepted() {
		m.showRejection(res.Rejection)
		return
	}
	m.println(successStyle.Render(i18n.T("result.canceled", map[string]interface{}{
		"ID":     res.OrderID,
		"Status": res.Status,
	})))
}

// readCommon 读取交易对、方向和数量
func (m *Menu) readCommon() (sym, side string, qty decimal.Decimal, ok bool) {
	if sym, ok = m.readLine(i18n.T("prompt.symbol")); !ok {
		return
	}
	if side, ok = m.readLine(i18n.T("prompt.side")); !ok {
		return
	}
	qty, ok = m.readDecimal(i18n.T("prompt.quantity"))
	return
}

func (m *Menu) readTimeInForce() (string, bool) {
	tif := m.deps.DefaultTimeInForce
	if tif == "" {
		tif = string(order.GTC)
	}
	return m.readLine(i18n.T("prompt.time_in_force", map[string]interface{}{"Default": tif}))
}

// readLine 读取一行，输入结束时返回 false
func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Fprint(m.out, prompt)
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// readDecimal 数字格式错误时重新提示；正负由订单构造器校验
func (m *Menu) readDecimal(prompt string) (decimal.Decimal, bool) {
	for {
		line, ok := m.readLine(prompt)
		if !ok {
			return decimal.Zero, false
		}
		v, err := decimal.NewFromString(line)
		if err == nil {
			return v, true
		}
		m.println(errorStyle.Render(i18n.T("error.not_number")))
	}
}

func (m *Menu) readOrderID() (int64, bool) {
	for {
		line, ok := m.readLine(i18n.T("prompt.order_id"))
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err == nil && id > 0 {
			return id, true
		}
		m.println(errorStyle.Render(i18n.T("error.not_order_id")))
	}
}

func (m *Menu) showOrderResult(res order.Result) {
	switch {
	case !res.Accepted():
		m.showRejection(res.Rejection)
	case res.MissingID:
		m.println(warnStyle.Render(i18n.T("result.missing_id", map[string]interface{}{"Status": res.Status})))
	default:
		name, id := res.ID()
		m.println(successStyle.Render(i18n.T("result.accepted", map[string]interface{}{
			"IDName": name,
			"ID":     id,
			"Status": res.Status,
		})))
	}
}

func (m *Menu) showError(err error) {
	var ve *order.ValidationError
	var rej *order.Rejection
	switch {
	case errors.As(err, &ve):
		m.println(errorStyle.Render(i18n.T("error.validation", map[string]interface{}{
			"Kind":  string(ve.Kind),
			"Field": ve.Field,
			"Value": ve.Value,
		})))
	case errors.As(err, &rej):
		m.showRejection(rej)
	default:
		logger.Error("❌ 未知错误: %v", err)
		m.showRejection(order.Classify(err))
	}
}

func (m *Menu) showRejection(r *order.Rejection) {
	if r.Kind == order.ApiError {
		m.println(errorStyle.Render(i18n.T("error.api", map[string]interface{}{
			"Code":    r.Code,
			"Message": r.Message,
		})))
		return
	}
	m.println(errorStyle.Render(i18n.T("error.rejected", map[string]interface{}{
		"Kind":    string(r.Kind),
		"Message": r.Message,
	})))
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}
