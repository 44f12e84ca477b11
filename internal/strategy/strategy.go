package strategy

import (
	"log"
	"math"
	"strings"
	"sync"
	"time"
)

// Direction of an open trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// ExitReason explains why a trade was closed.
type ExitReason string

const (
	ExitProfit ExitReason = "profit"
	ExitLoss   ExitReason = "loss"
	ExitManual ExitReason = "manual"
)

// Params tune a strategy instance. Percentages are decimals
// (0.03 = 3% target, 0.01 = 1% stop).
type Params struct {
	Lookback        int     `json:"lookback"`
	ProfitTargetPct float64 `json:"profit_target_pct"`
	StopLossPct     float64 `json:"stop_loss_pct"`
}

// DefaultParams returns the stock breakout settings: 10-candle lookback,
// 3% profit target, 1% stop loss.
func DefaultParams() Params {
	return Params{Lookback: 10, ProfitTargetPct: 0.03, StopLossPct: 0.01}
}

// Trade is the single open position a strategy may hold.
type Trade struct {
	Active       bool      `json:"is_active"`
	Direction    Direction `json:"direction,omitempty"`
	EntryPrice   float64   `json:"entry_price,omitempty"`
	EntryTime    time.Time `json:"entry_time"`
	Quantity     int       `json:"quantity"`
	EntryOrderID string    `json:"order_id,omitempty"`
	TargetPrice  float64   `json:"target_price,omitempty"`
	StopPrice    float64   `json:"stop_price,omitempty"`
}

// TradeSummary is the immutable record produced when a trade closes.
type TradeSummary struct {
	Symbol       string     `json:"symbol"`
	Direction    Direction  `json:"direction"`
	EntryPrice   float64    `json:"entry_price"`
	ExitPrice    float64    `json:"exit_price"`
	Quantity     int        `json:"quantity"`
	EntryTime    time.Time  `json:"entry_time"`
	ExitTime     time.Time  `json:"exit_time"`
	ExitReason   ExitReason `json:"exit_reason"`
	PnL          float64    `json:"pnl"`
	PnLPercent   float64    `json:"pnl_percent"`
	EntryOrderID string     `json:"entry_order_id,omitempty"`
	ExitOrderID  string     `json:"exit_order_id,omitempty"`
}

// Status is a read-only snapshot of one strategy instance.
type Status struct {
	Symbol       string   `json:"symbol"`
	Support      *float64 `json:"support_level"`
	Resistance   *float64 `json:"resistance_level"`
	LevelsLocked bool     `json:"levels_locked"`
	ActiveTrade  Trade    `json:"active_trade"`
	DataPoints   int      `json:"data_points"`
	Params       Params   `json:"strategy_params"`
}

// Strategy is the breakout state machine for one symbol: it accumulates
// price data, derives support/resistance, detects breakouts, and accounts
// for the single open trade. Every exported method takes the instance lock,
// so operations are atomic with respect to each other but not composed
// across calls; callers must tolerate ErrTradeActive / ErrNoActiveTrade
// from races between the ingress and monitoring paths.
type Strategy struct {
	mu     sync.Mutex
	symbol string
	params Params
	buffer *PriceBuffer
	levels Levels
	trade  Trade
}

// New creates a strategy for symbol. The symbol is uppercased and acts as
// the identity key.
func New(symbol string, params Params) *Strategy {
	if params.Lookback <= 0 {
		params = DefaultParams()
	}
	return &Strategy{
		symbol: strings.ToUpper(symbol),
		params: params,
		buffer: NewPriceBuffer(DefaultBufferSize),
	}
}

// Symbol returns the uppercased identity key.
func (s *Strategy) Symbol() string {
	return s.symbol
}

// Ingest appends an OHLC observation. A zero timestamp defaults to now.
func (s *Strategy) Ingest(high, low, close float64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ts.IsZero() {
		ts = time.Now()
	}
	s.buffer.Append(PricePoint{High: high, Low: low, Close: close, Timestamp: ts})
}

// RefreshLevels recomputes support/resistance from the buffer. It is a no-op
// while levels are locked by an open trade. A detection that yields an
// incomplete pair, or support >= resistance, leaves the stored levels
// untouched. Returns true only when the levels were replaced.
func (s *Strategy) RefreshLevels() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.levels.Locked {
		return false
	}

	window, err := s.buffer.Window(s.params.Lookback + 2)
	if err != nil {
		return false
	}

	support, resistance, hasSupport, hasResistance := detectLevels(window)
	if !hasSupport || !hasResistance {
		return false
	}
	if support >= resistance {
		log.Printf("strategy %s: discarding invalid levels support=%.2f resistance=%.2f", s.symbol, support, resistance)
		return false
	}

	s.levels.Support = support
	s.levels.Resistance = resistance
	s.levels.Set = true
	return true
}

// DetectBreakout checks price against the stored levels. It reports nothing
// while a trade is active or levels are unset. A close above resistance
// signals long; below support signals short.
func (s *Strategy) DetectBreakout(price float64) (Direction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trade.Active || !s.levels.Set {
		return "", false
	}
	if price > s.levels.Resistance {
		return Long, true
	}
	if price < s.levels.Support {
		return Short, true
	}
	return "", false
}

// Enter opens a trade and locks the levels. Target and stop prices are
// derived from the entry price and the instance percentages.
func (s *Strategy) Enter(direction Direction, entryPrice float64, quantity int, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trade.Active {
		return ErrTradeActive
	}

	var target, stop float64
	if direction == Long {
		target = entryPrice * (1 + s.params.ProfitTargetPct)
		stop = entryPrice * (1 - s.params.StopLossPct)
	} else {
		target = entryPrice * (1 - s.params.ProfitTargetPct)
		stop = entryPrice * (1 + s.params.StopLossPct)
	}

	s.trade = Trade{
		Active:       true,
		Direction:    direction,
		EntryPrice:   entryPrice,
		EntryTime:    time.Now(),
		Quantity:     quantity,
		EntryOrderID: orderID,
		TargetPrice:  target,
		StopPrice:    stop,
	}
	s.levels.Locked = true

	log.Printf("strategy %s: entered %s %d @ %.2f (target %.2f, stop %.2f)",
		s.symbol, direction, quantity, entryPrice, target, stop)
	return nil
}

// CheckExit evaluates the open trade against the current price. Target is
// checked before stop, so the target wins if a single read crosses both.
func (s *Strategy) CheckExit(price float64) (ExitReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.trade.Active {
		return "", false
	}

	if s.trade.Direction == Long {
		if price >= s.trade.TargetPrice {
			return ExitProfit, true
		}
		if price <= s.trade.StopPrice {
			return ExitLoss, true
		}
		return "", false
	}

	if price <= s.trade.TargetPrice {
		return ExitProfit, true
	}
	if price >= s.trade.StopPrice {
		return ExitLoss, true
	}
	return "", false
}

// Exit closes the open trade, computes realized P&L, unlocks and clears the
// levels so the next trade starts from fresh detection, and returns the
// summary record.
func (s *Strategy) Exit(exitPrice float64, reason ExitReason, exitOrderID string) (TradeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.trade.Active {
		return TradeSummary{}, ErrNoActiveTrade
	}

	var pnl, pnlPct float64
	if s.trade.Direction == Long {
		pnl = (exitPrice - s.trade.EntryPrice) * float64(s.trade.Quantity)
		pnlPct = (exitPrice - s.trade.EntryPrice) / s.trade.EntryPrice * 100
	} else {
		pnl = (s.trade.EntryPrice - exitPrice) * float64(s.trade.Quantity)
		pnlPct = (s.trade.EntryPrice - exitPrice) / s.trade.EntryPrice * 100
	}

	summary := TradeSummary{
		Symbol:       s.symbol,
		Direction:    s.trade.Direction,
		EntryPrice:   s.trade.EntryPrice,
		ExitPrice:    exitPrice,
		Quantity:     s.trade.Quantity,
		EntryTime:    s.trade.EntryTime,
		ExitTime:     time.Now(),
		ExitReason:   reason,
		PnL:          round2(pnl),
		PnLPercent:   round2(pnlPct),
		EntryOrderID: s.trade.EntryOrderID,
		ExitOrderID:  exitOrderID,
	}

	s.trade = Trade{}
	s.levels = Levels{}

	log.Printf("strategy %s: exited %s, pnl %.2f (%.2f%%)", s.symbol, reason, summary.PnL, summary.PnLPercent)
	return summary, nil
}

// ActiveTrade returns a copy of the open trade, if any.
func (s *Strategy) ActiveTrade() (Trade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trade, s.trade.Active
}

// Status snapshots the instance for the control plane.
func (s *Strategy) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Symbol:       s.symbol,
		LevelsLocked: s.levels.Locked,
		ActiveTrade:  s.trade,
		DataPoints:   s.buffer.Len(),
		Params:       s.params,
	}
	if s.levels.Set {
		support, resistance := s.levels.Support, s.levels.Resistance
		st.Support = &support
		st.Resistance = &resistance
	}
	return st
}

// Reset force-clears levels, trade, and buffer regardless of lock state.
// Out-of-band recovery only; any open position must be flattened elsewhere.
func (s *Strategy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.levels = Levels{}
	s.trade = Trade{}
	s.buffer = NewPriceBuffer(DefaultBufferSize)
	log.Printf("strategy %s: reset", s.symbol)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
