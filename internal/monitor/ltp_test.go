package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"breakout-core/internal/events"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/kite"
)

type fakeMarket struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
}

func (m *fakeMarket) LTP(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.prices[symbol], nil
}

type fakeTrader struct {
	mu      sync.Mutex
	orderID string
	err     error
	placed  []string // "SIDE SYMBOL"
}

func (tr *fakeTrader) PlaceMarket(_ context.Context, symbol, side string, _ int) (string, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.err != nil {
		return "", tr.err
	}
	tr.placed = append(tr.placed, side+" "+symbol)
	return tr.orderID, nil
}

func (tr *fakeTrader) count() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.placed)
}

func enteredStrategy(t *testing.T, r *strategy.Registry, symbol string, dir strategy.Direction) *strategy.Strategy {
	t.Helper()
	st := r.GetOrCreate(symbol)
	if err := st.Enter(dir, 100, 10, "entry-1"); err != nil {
		t.Fatalf("Enter returned error: %v", err)
	}
	return st
}

func TestEvaluateClosesTradeOnTarget(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "RELIANCE", strategy.Long)

	bus := events.NewBus()
	exited, unsub := bus.Subscribe(events.EventTradeExited, 1)
	defer unsub()

	trader := &fakeTrader{orderID: "exit-9"}
	l := &Loop{
		Registry: registry,
		Market:   &fakeMarket{prices: map[string]float64{"RELIANCE": 103}},
		Trader:   trader,
		Bus:      bus,
	}

	l.evaluate(context.Background(), st)

	if _, active := st.ActiveTrade(); active {
		t.Fatal("trade should be closed after target hit")
	}
	if trader.count() != 1 || trader.placed[0] != kite.SideSell+" RELIANCE" {
		t.Fatalf("placed=%v, expected one SELL RELIANCE", trader.placed)
	}

	select {
	case msg := <-exited:
		summary, ok := msg.(strategy.TradeSummary)
		if !ok {
			t.Fatalf("payload type %T", msg)
		}
		if summary.ExitReason != strategy.ExitProfit || summary.PnL != 30 || summary.ExitOrderID != "exit-9" {
			t.Fatalf("summary=%+v", summary)
		}
	case <-time.After(time.Second):
		t.Fatal("no EventTradeExited published")
	}
}

func TestEvaluateStopLossOnShort(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "INFY", strategy.Short)

	trader := &fakeTrader{orderID: "exit-1"}
	l := &Loop{
		Registry: registry,
		Market:   &fakeMarket{prices: map[string]float64{"INFY": 101}},
		Trader:   trader,
	}

	l.evaluate(context.Background(), st)

	if _, active := st.ActiveTrade(); active {
		t.Fatal("trade should be closed after stop hit")
	}
	if trader.count() != 1 || trader.placed[0] != kite.SideBuy+" INFY" {
		t.Fatalf("placed=%v, expected one BUY INFY", trader.placed)
	}
}

func TestEvaluateLeavesTradeWhenNoThresholdHit(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "TCS", strategy.Long)

	trader := &fakeTrader{}
	l := &Loop{
		Registry: registry,
		Market:   &fakeMarket{prices: map[string]float64{"TCS": 101}},
		Trader:   trader,
	}

	l.evaluate(context.Background(), st)

	if _, active := st.ActiveTrade(); !active {
		t.Fatal("trade should remain active between thresholds")
	}
	if trader.count() != 0 {
		t.Fatalf("no order should be placed, got %v", trader.placed)
	}
}

func TestEvaluateMarketFailureKeepsTrade(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "SBIN", strategy.Long)

	l := &Loop{
		Registry: registry,
		Market:   &fakeMarket{err: errors.New("quote service down")},
		Trader:   &fakeTrader{},
	}

	l.evaluate(context.Background(), st)

	if _, active := st.ActiveTrade(); !active {
		t.Fatal("trade must survive a market-data failure")
	}
}

func TestEvaluateOrderFailureKeepsTradeForRetry(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "SBIN", strategy.Long)

	market := &fakeMarket{prices: map[string]float64{"SBIN": 103}}
	trader := &fakeTrader{err: errors.New("order rejected")}
	l := &Loop{Registry: registry, Market: market, Trader: trader}

	l.evaluate(context.Background(), st)
	if _, active := st.ActiveTrade(); !active {
		t.Fatal("trade must stay active when the exit order fails")
	}

	// Next pass retries naturally and succeeds.
	trader.err = nil
	trader.orderID = "exit-2"
	l.evaluate(context.Background(), st)
	if _, active := st.ActiveTrade(); active {
		t.Fatal("trade should close once the exit order goes through")
	}
}

func TestLoopStartStopIdempotent(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	l := &Loop{
		Registry:       registry,
		Market:         &fakeMarket{},
		Trader:         &fakeTrader{},
		ActiveInterval: 10 * time.Millisecond,
		IdleInterval:   10 * time.Millisecond,
		StopTimeout:    time.Second,
	}

	if !l.Start() {
		t.Fatal("first Start should report true")
	}
	if l.Start() {
		t.Fatal("second Start should be a no-op")
	}
	if !l.Running() {
		t.Fatal("loop should be running")
	}

	if !l.Stop() {
		t.Fatal("first Stop should report true")
	}
	if l.Stop() {
		t.Fatal("second Stop should be a no-op")
	}
	if l.Running() {
		t.Fatal("loop should be stopped")
	}

	// The loop must be restartable after a stop.
	if !l.Start() {
		t.Fatal("restart should succeed")
	}
	l.Stop()
}

func TestLoopClosesTradeEndToEnd(t *testing.T) {
	registry := strategy.NewRegistry(strategy.DefaultParams())
	st := enteredStrategy(t, registry, "RELIANCE", strategy.Long)

	l := &Loop{
		Registry:       registry,
		Market:         &fakeMarket{prices: map[string]float64{"RELIANCE": 103}},
		Trader:         &fakeTrader{orderID: "exit-1"},
		ActiveInterval: 5 * time.Millisecond,
		IdleInterval:   5 * time.Millisecond,
		StopTimeout:    time.Second,
	}
	l.Start()
	defer l.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if _, active := st.ActiveTrade(); !active {
			return
		}
		select {
		case <-deadline:
			t.Fatal("loop did not close the trade in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
