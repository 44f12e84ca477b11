package order

import (
	"context"
	"fmt"
	"log"

	"breakout-core/internal/events"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/db"
	"breakout-core/pkg/kite"

	"github.com/google/uuid"
)

// Gateway is the broker surface the executor needs.
type Gateway interface {
	PlaceMarketOrder(ctx context.Context, symbol, side string, qty int) (string, error)
}

// EntrySide maps a trade direction to the order side that opens it.
func EntrySide(d strategy.Direction) string {
	if d == strategy.Short {
		return kite.SideSell
	}
	return kite.SideBuy
}

// ExitSide maps a trade direction to the order side that flattens it.
func ExitSide(d strategy.Direction) string {
	if d == strategy.Long {
		return kite.SideSell
	}
	return kite.SideBuy
}

// Executor journals orders, submits them through the broker gateway, and
// emits order events. In dry-run mode the gateway is skipped and a synthetic
// broker id is returned, so the full trade lifecycle works without
// credentials.
type Executor struct {
	Journal *db.Database
	Bus     *events.Bus
	Gateway Gateway
	DryRun  bool
}

// PlaceMarket submits a market order and returns the broker order id.
func (e *Executor) PlaceMarket(ctx context.Context, symbol, side string, qty int) (string, error) {
	if qty <= 0 {
		return "", fmt.Errorf("order quantity must be positive, got %d", qty)
	}

	rec := db.Order{
		ID:     uuid.NewString(),
		Symbol: symbol,
		Side:   side,
		Qty:    qty,
		Status: db.OrderStatusPending,
	}
	e.journal(ctx, func() error { return e.Journal.InsertOrder(ctx, rec) })

	if e.DryRun {
		brokerID := "dry-" + rec.ID
		e.journal(ctx, func() error {
			return e.Journal.UpdateOrderStatus(ctx, rec.ID, brokerID, db.OrderStatusDryRun, "")
		})
		e.publish(events.EventOrderPlaced, rec.ID, symbol, side, qty, brokerID)
		log.Printf("executor: dry-run %s %d %s -> %s", side, qty, symbol, brokerID)
		return brokerID, nil
	}

	if e.Gateway == nil {
		err := fmt.Errorf("executor: no broker gateway configured")
		e.journal(ctx, func() error {
			return e.Journal.UpdateOrderStatus(ctx, rec.ID, "", db.OrderStatusRejected, err.Error())
		})
		return "", err
	}

	brokerID, err := e.Gateway.PlaceMarketOrder(ctx, symbol, side, qty)
	if err != nil {
		e.journal(ctx, func() error {
			return e.Journal.UpdateOrderStatus(ctx, rec.ID, "", db.OrderStatusRejected, err.Error())
		})
		e.publish(events.EventOrderRejected, rec.ID, symbol, side, qty, "")
		return "", fmt.Errorf("place %s %d %s: %w", side, qty, symbol, err)
	}

	e.journal(ctx, func() error {
		return e.Journal.UpdateOrderStatus(ctx, rec.ID, brokerID, db.OrderStatusSubmitted, "")
	})
	e.publish(events.EventOrderPlaced, rec.ID, symbol, side, qty, brokerID)
	log.Printf("executor: placed %s %d %s -> %s", side, qty, symbol, brokerID)
	return brokerID, nil
}

// journal runs a journal write, logging instead of failing the trade path
// when persistence is unavailable.
func (e *Executor) journal(_ context.Context, fn func() error) {
	if e.Journal == nil {
		return
	}
	if err := fn(); err != nil {
		log.Printf("executor: journal write failed: %v", err)
	}
}

func (e *Executor) publish(ev events.Event, id, symbol, side string, qty int, brokerID string) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(ev, db.Order{ID: id, BrokerOrderID: brokerID, Symbol: symbol, Side: side, Qty: qty})
}
