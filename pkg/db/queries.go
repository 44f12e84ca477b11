package db

import (
	"context"
	"database/sql"
	"time"
)

// InsertOrder records a new order attempt.
func (d *Database) InsertOrder(ctx context.Context, o Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO orders (id, broker_order_id, symbol, side, qty, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.BrokerOrderID, o.Symbol, o.Side, o.Qty, o.Status, o.Error, o.CreatedAt)
	return err
}

// UpdateOrderStatus sets the outcome of a submission attempt.
func (d *Database) UpdateOrderStatus(ctx context.Context, id, brokerOrderID, status, errMsg string) error {
	_, err := d.DB.ExecContext(ctx, `
		UPDATE orders SET broker_order_id = ?, status = ?, error = ? WHERE id = ?`,
		brokerOrderID, status, errMsg, id)
	return err
}

// ListOrders returns the most recent order attempts, newest first.
func (d *Database) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, broker_order_id, symbol, side, qty, status, COALESCE(error, ''), created_at
		FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var brokerID sql.NullString
		if err := rows.Scan(&o.ID, &brokerID, &o.Symbol, &o.Side, &o.Qty, &o.Status, &o.Error, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.BrokerOrderID = brokerID.String
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsertTradeSummary records a completed round trip.
func (d *Database) InsertTradeSummary(ctx context.Context, t TradeSummary) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trade_summaries
			(id, symbol, direction, entry_price, exit_price, qty, entry_time, exit_time,
			 exit_reason, pnl, pnl_percent, entry_order_id, exit_order_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Direction, t.EntryPrice, t.ExitPrice, t.Qty, t.EntryTime, t.ExitTime,
		t.ExitReason, t.PnL, t.PnLPercent, t.EntryOrderID, t.ExitOrderID, t.CreatedAt)
	return err
}

// ListTradeSummaries returns completed trades, newest first. Pass an empty
// symbol for all symbols.
func (d *Database) ListTradeSummaries(ctx context.Context, symbol string, limit int) ([]TradeSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, symbol, direction, entry_price, exit_price, qty, entry_time, exit_time,
		       exit_reason, pnl, pnl_percent, COALESCE(entry_order_id, ''), COALESCE(exit_order_id, ''), created_at
		FROM trade_summaries`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY exit_time DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeSummary
	for rows.Next() {
		var t TradeSummary
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Direction, &t.EntryPrice, &t.ExitPrice, &t.Qty,
			&t.EntryTime, &t.ExitTime, &t.ExitReason, &t.PnL, &t.PnLPercent,
			&t.EntryOrderID, &t.ExitOrderID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
