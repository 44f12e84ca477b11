package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"breakout-core/internal/events"
	"breakout-core/internal/order"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/db"

	"github.com/google/uuid"
)

// MarketData is the price surface the loop polls.
type MarketData interface {
	LTP(ctx context.Context, symbol string) (float64, error)
}

// Trader places the exit orders.
type Trader interface {
	PlaceMarket(ctx context.Context, symbol, side string, qty int) (string, error)
}

// Loop polls the last traded price for every strategy holding an open trade
// and closes trades whose target or stop has been hit. One loop serves the
// whole registry; symbols are evaluated sequentially within a pass, so a
// slow broker call delays the rest of the pass but nothing else.
type Loop struct {
	Registry *strategy.Registry
	Market   MarketData
	Trader   Trader
	Journal  *db.Database
	Bus      *events.Bus

	// ActiveInterval is the pause between passes while trades are open;
	// IdleInterval applies when nothing is being watched.
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	// StopTimeout bounds how long Stop waits for the loop to wind down.
	StopTimeout time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start launches the background loop. Starting an already-running loop is a
// no-op; returns whether the loop was started by this call.
func (l *Loop) Start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return false
	}

	if l.ActiveInterval <= 0 {
		l.ActiveInterval = 2 * time.Second
	}
	if l.IdleInterval <= 0 {
		l.IdleInterval = 5 * time.Second
	}
	if l.StopTimeout <= 0 {
		l.StopTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true

	go l.run(ctx)
	log.Println("monitor: started")
	return true
}

// Stop signals the loop and waits up to StopTimeout for it to finish.
// Stopping a stopped loop is a no-op; returns whether this call stopped it.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return false
	}
	l.running = false
	cancel, done, timeout := l.cancel, l.done, l.StopTimeout
	l.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("monitor: stop timed out after %s; loop will exit on its own", timeout)
	}
	log.Println("monitor: stopped")
	return true
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	for {
		active := l.Registry.Active()
		if len(active) == 0 {
			if !l.sleep(ctx, l.IdleInterval) {
				return
			}
			continue
		}

		for _, st := range active {
			if ctx.Err() != nil {
				return
			}
			l.evaluate(ctx, st)
		}

		if !l.sleep(ctx, l.ActiveInterval) {
			return
		}
	}
}

// evaluate runs one exit check for a single strategy. Collaborator failures
// are logged and left for the next pass; nothing here is fatal.
func (l *Loop) evaluate(ctx context.Context, st *strategy.Strategy) {
	symbol := st.Symbol()

	price, err := l.Market.LTP(ctx, symbol)
	if err != nil {
		log.Printf("monitor: ltp %s: %v", symbol, err)
		return
	}

	reason, ok := st.CheckExit(price)
	if !ok {
		return
	}

	trade, active := st.ActiveTrade()
	if !active {
		// Closed between the check and the snapshot (e.g. manual exit).
		return
	}

	log.Printf("monitor: exit signal %s for %s at %.2f", reason, symbol, price)

	exitOrderID, err := l.Trader.PlaceMarket(ctx, symbol, order.ExitSide(trade.Direction), trade.Quantity)
	if err != nil {
		// Trade stays active; the next pass re-evaluates and re-attempts.
		log.Printf("monitor: exit order %s: %v", symbol, err)
		return
	}

	summary, err := st.Exit(price, reason, exitOrderID)
	if err != nil {
		log.Printf("monitor: exit %s: %v", symbol, err)
		return
	}

	l.record(ctx, summary)
	if l.Bus != nil {
		l.Bus.Publish(events.EventTradeExited, summary)
	}
}

// record persists the trade summary; journal failures are logged only.
func (l *Loop) record(ctx context.Context, s strategy.TradeSummary) {
	if l.Journal == nil {
		return
	}
	row := db.TradeSummary{
		ID:           uuid.NewString(),
		Symbol:       s.Symbol,
		Direction:    string(s.Direction),
		EntryPrice:   s.EntryPrice,
		ExitPrice:    s.ExitPrice,
		Qty:          s.Quantity,
		EntryTime:    s.EntryTime,
		ExitTime:     s.ExitTime,
		ExitReason:   string(s.ExitReason),
		PnL:          s.PnL,
		PnLPercent:   s.PnLPercent,
		EntryOrderID: s.EntryOrderID,
		ExitOrderID:  s.ExitOrderID,
	}
	if err := l.Journal.InsertTradeSummary(ctx, row); err != nil {
		log.Printf("monitor: journal trade %s: %v", s.Symbol, err)
	}
}

// sleep waits for d or until the context is canceled; reports whether the
// loop should continue.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
