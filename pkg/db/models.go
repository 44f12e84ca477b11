package db

import "time"

// Order is one submission attempt recorded in the journal.
type Order struct {
	ID            string    `json:"id"`
	BrokerOrderID string    `json:"broker_order_id,omitempty"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Qty           int       `json:"qty"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order statuses.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusSubmitted = "SUBMITTED"
	OrderStatusRejected  = "REJECTED"
	OrderStatusDryRun    = "DRY_RUN"
)

// TradeSummary is one completed round trip recorded in the journal.
type TradeSummary struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Direction    string    `json:"direction"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	Qty          int       `json:"qty"`
	EntryTime    time.Time `json:"entry_time"`
	ExitTime     time.Time `json:"exit_time"`
	ExitReason   string    `json:"exit_reason"`
	PnL          float64   `json:"pnl"`
	PnLPercent   float64   `json:"pnl_percent"`
	EntryOrderID string    `json:"entry_order_id,omitempty"`
	ExitOrderID  string    `json:"exit_order_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
