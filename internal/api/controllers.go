package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"breakout-core/internal/events"
	"breakout-core/internal/order"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// webhookRequest covers both payload shapes accepted on /webhook: a price
// observation (high/low/close) or a manual signal (action).
type webhookRequest struct {
	Symbol    string   `json:"symbol"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Timestamp string   `json:"timestamp"`
	Action    string   `json:"action"`
	Quantity  int      `json:"quantity"`
}

// tick is the payload published on EventPriceTick.
type tick struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
}

func errorResponse(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": "error", "message": msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"message":           "breakout strategy server is running",
		"service":           "support-resistance-strategy",
		"version":           s.Meta.Version,
		"dry_run":           s.Meta.DryRun,
		"monitoring_active": s.Monitor.Running(),
		"active_strategies": len(s.Registry.Active()),
	})
}

func (s *Server) webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "request must contain valid JSON")
		return
	}
	if req.Symbol == "" {
		errorResponse(c, http.StatusBadRequest, "missing required field: symbol")
		return
	}

	switch {
	case req.High != nil && req.Low != nil && req.Close != nil:
		s.handlePriceData(c, req)
	case req.Action != "":
		s.handleManualSignal(c, req)
	default:
		errorResponse(c, http.StatusBadRequest,
			"invalid payload: must contain either price data (high, low, close) or manual signal (action)")
	}
}

// handlePriceData runs the full ingress flow: ingest, refresh levels, check
// for a breakout, and on a signal place the entry order and open the trade.
func (s *Server) handlePriceData(c *gin.Context, req webhookRequest) {
	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "timestamp must be RFC3339")
			return
		}
		ts = parsed
	}

	st := s.Registry.GetOrCreate(req.Symbol)
	st.Ingest(*req.High, *req.Low, *req.Close, ts)
	levelsUpdated := st.RefreshLevels()

	if s.Bus != nil {
		s.Bus.Publish(events.EventPriceTick, tick{Symbol: st.Symbol(), Close: *req.Close})
	}

	status := st.Status()
	resp := gin.H{
		"status":           "success",
		"symbol":           st.Symbol(),
		"price_data_added": true,
		"levels_updated":   levelsUpdated,
		"current_levels": gin.H{
			"support":    status.Support,
			"resistance": status.Resistance,
			"locked":     status.LevelsLocked,
		},
	}

	direction, signaled := st.DetectBreakout(*req.Close)
	if !signaled {
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["breakout_signal"] = direction

	qty := req.Quantity
	if qty <= 0 {
		qty = s.DefaultQuantity
	}

	orderID, err := s.Executor.PlaceMarket(c.Request.Context(), st.Symbol(), order.EntrySide(direction), qty)
	if err != nil {
		resp["trade_entered"] = false
		resp["order_error"] = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	if err := st.Enter(direction, *req.Close, qty, orderID); err != nil {
		// A concurrent entry won the race; the order is journaled either way.
		resp["trade_entered"] = false
		resp["message"] = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}

	resp["trade_entered"] = true
	resp["order_id"] = orderID
	s.Monitor.Start()
	if s.Bus != nil {
		trade, _ := st.ActiveTrade()
		s.Bus.Publish(events.EventTradeEntered, trade)
	}
	c.JSON(http.StatusOK, resp)
}

// handleManualSignal routes a buy/sell directive straight to the executor,
// bypassing the state machine.
func (s *Server) handleManualSignal(c *gin.Context, req webhookRequest) {
	action := strings.ToUpper(req.Action)
	if action != "BUY" && action != "SELL" {
		errorResponse(c, http.StatusBadRequest, `action must be "buy" or "sell"`)
		return
	}

	qty := req.Quantity
	if qty <= 0 {
		qty = s.DefaultQuantity
	}

	orderID, err := s.Executor.PlaceMarket(c.Request.Context(), strings.ToUpper(req.Symbol), action, qty)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"symbol":       strings.ToUpper(req.Symbol),
		"manual_order": true,
		"order_id":     orderID,
	})
}

func (s *Server) generateToken(c *gin.Context) {
	if s.Sessions == nil {
		errorResponse(c, http.StatusServiceUnavailable, "session management not configured")
		return
	}

	var req struct {
		RequestToken string `json:"request_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RequestToken == "" {
		errorResponse(c, http.StatusBadRequest, "missing required field: request_token")
		return
	}

	token, err := s.Sessions(c.Request.Context(), req.RequestToken)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	preview := token
	if len(preview) > 10 {
		preview = preview[:10] + "..."
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      "access token generated and saved",
		"access_token": preview,
	})
}

func (s *Server) listStrategies(c *gin.Context) {
	symbols := s.Registry.Symbols()
	statuses := make([]strategy.Status, 0, len(symbols))
	for _, sym := range symbols {
		if st, ok := s.Registry.Get(sym); ok {
			statuses = append(statuses, st.Status())
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "strategies": statuses})
}

func (s *Server) strategyStatus(c *gin.Context) {
	st, ok := s.Registry.Get(c.Param("symbol"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "no strategy found for "+strings.ToUpper(c.Param("symbol")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "strategy_status": st.Status()})
}

func (s *Server) resetStrategy(c *gin.Context) {
	st, ok := s.Registry.Get(c.Param("symbol"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "no strategy found for "+strings.ToUpper(c.Param("symbol")))
		return
	}
	st.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "strategy reset", "symbol": st.Symbol()})
}

func (s *Server) removeStrategy(c *gin.Context) {
	if !s.Registry.Remove(c.Param("symbol")) {
		errorResponse(c, http.StatusNotFound, "no strategy found for "+strings.ToUpper(c.Param("symbol")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "strategy removed"})
}

// manualExit flattens the open trade at the current market price.
func (s *Server) manualExit(c *gin.Context) {
	st, ok := s.Registry.Get(c.Param("symbol"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "no strategy found for "+strings.ToUpper(c.Param("symbol")))
		return
	}

	trade, active := st.ActiveTrade()
	if !active {
		errorResponse(c, http.StatusBadRequest, "no active trade for "+st.Symbol())
		return
	}

	price, err := s.Market.LTP(c.Request.Context(), st.Symbol())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "failed to get LTP: "+err.Error())
		return
	}

	orderID, err := s.Executor.PlaceMarket(c.Request.Context(), st.Symbol(), order.ExitSide(trade.Direction), trade.Quantity)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, "failed to place exit order: "+err.Error())
		return
	}

	summary, err := st.Exit(price, strategy.ExitManual, orderID)
	if err != nil {
		// The monitor can beat a manual exit to the punch.
		errorResponse(c, http.StatusConflict, err.Error())
		return
	}

	if s.Journal != nil {
		row := db.TradeSummary{
			ID:           uuid.NewString(),
			Symbol:       summary.Symbol,
			Direction:    string(summary.Direction),
			EntryPrice:   summary.EntryPrice,
			ExitPrice:    summary.ExitPrice,
			Qty:          summary.Quantity,
			EntryTime:    summary.EntryTime,
			ExitTime:     summary.ExitTime,
			ExitReason:   string(summary.ExitReason),
			PnL:          summary.PnL,
			PnLPercent:   summary.PnLPercent,
			EntryOrderID: summary.EntryOrderID,
			ExitOrderID:  summary.ExitOrderID,
		}
		if err := s.Journal.InsertTradeSummary(c.Request.Context(), row); err != nil {
			errorResponse(c, http.StatusInternalServerError, "trade exited but journaling failed: "+err.Error())
			return
		}
	}
	if s.Bus != nil {
		s.Bus.Publish(events.EventTradeExited, summary)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "trade exited manually",
		"trade_summary": summary,
	})
}

func (s *Server) ltp(c *gin.Context) {
	price, err := s.Market.LTP(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"symbol": strings.ToUpper(c.Param("symbol")),
		"ltp":    price,
	})
}

func (s *Server) ohlc(c *gin.Context) {
	quote, err := s.Market.GetOHLC(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"symbol":     strings.ToUpper(c.Param("symbol")),
		"last_price": quote.LastPrice,
		"ohlc":       quote.OHLC,
	})
}

func (s *Server) positions(c *gin.Context) {
	if s.Broker == nil {
		errorResponse(c, http.StatusServiceUnavailable, "broker not configured")
		return
	}
	positions, err := s.Broker.Positions(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "positions": positions})
}

func (s *Server) holdings(c *gin.Context) {
	if s.Broker == nil {
		errorResponse(c, http.StatusServiceUnavailable, "broker not configured")
		return
	}
	holdings, err := s.Broker.Holdings(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "holdings": holdings})
}

func (s *Server) orders(c *gin.Context) {
	if s.Broker == nil {
		errorResponse(c, http.StatusServiceUnavailable, "broker not configured")
		return
	}
	orders, err := s.Broker.Orders(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "orders": orders})
}

// trades serves the completed-trade journal.
func (s *Server) trades(c *gin.Context) {
	if s.Journal == nil {
		errorResponse(c, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	symbol := strings.ToUpper(c.Query("symbol"))

	summaries, err := s.Journal.ListTradeSummaries(c.Request.Context(), symbol, limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "trades": summaries})
}

func (s *Server) monitoringStatus(c *gin.Context) {
	active := s.Registry.Active()
	symbols := make([]string, 0, len(active))
	for _, st := range active {
		symbols = append(symbols, st.Symbol())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"monitoring_active": s.Monitor.Running(),
		"monitored_symbols": symbols,
	})
}

func (s *Server) startMonitoring(c *gin.Context) {
	started := s.Monitor.Start()
	msg := "monitoring already active"
	if started {
		msg = "monitoring started"
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": msg})
}

func (s *Server) stopMonitoring(c *gin.Context) {
	stopped := s.Monitor.Stop()
	msg := "monitoring already stopped"
	if stopped {
		msg = "monitoring stopped"
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": msg})
}
