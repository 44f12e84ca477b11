package events

// Event enumerates the topics inside the breakout core.
type Event string

const (
	// EventPriceTick fires for every price observation accepted by the webhook.
	EventPriceTick Event = "price_tick"
	// EventOrderPlaced fires after the executor submits an order.
	EventOrderPlaced Event = "order.placed"
	// EventOrderRejected fires when a submission fails at the broker.
	EventOrderRejected Event = "order.rejected"
	// EventTradeEntered fires after a breakout entry completes.
	EventTradeEntered Event = "trade.entered"
	// EventTradeExited carries the summary of a closed trade.
	EventTradeExited Event = "trade.exited"
)
