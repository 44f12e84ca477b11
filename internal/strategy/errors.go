package strategy

import "errors"

var (
	// ErrInsufficientData means the buffer does not yet hold enough points
	// for the requested computation. Callers wait for more ingests.
	ErrInsufficientData = errors.New("insufficient price data")

	// ErrTradeActive rejects an entry while another trade is open.
	ErrTradeActive = errors.New("trade already active")

	// ErrNoActiveTrade rejects an exit when nothing is open.
	ErrNoActiveTrade = errors.New("no active trade")
)
