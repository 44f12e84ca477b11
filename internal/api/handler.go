package api

import (
	"context"

	"breakout-core/internal/events"
	"breakout-core/internal/monitor"
	"breakout-core/internal/strategy"
	"breakout-core/pkg/db"
	"breakout-core/pkg/kite"

	"github.com/gin-gonic/gin"
)

// MarketData is the quote surface the API exposes as passthrough.
type MarketData interface {
	LTP(ctx context.Context, symbol string) (float64, error)
	GetOHLC(ctx context.Context, symbol string) (kite.Quote, error)
}

// Broker is the account surface the API exposes as passthrough.
type Broker interface {
	Positions(ctx context.Context) ([]kite.Position, error)
	Holdings(ctx context.Context) ([]kite.Holding, error)
	Orders(ctx context.Context) ([]kite.Order, error)
}

// OrderPlacer submits market orders (the executor).
type OrderPlacer interface {
	PlaceMarket(ctx context.Context, symbol, side string, qty int) (string, error)
}

// SystemMeta describes runtime status exposed on the health endpoint.
type SystemMeta struct {
	DryRun  bool
	Version string
}

// Server wires the HTTP ingress around the strategy registry, the executor,
// and the monitoring loop.
type Server struct {
	Router   *gin.Engine
	Bus      *events.Bus
	Registry *strategy.Registry
	Executor OrderPlacer
	Monitor  *monitor.Loop
	Market   MarketData
	Broker   Broker
	Journal  *db.Database

	// Sessions exchanges a Kite request token for an access token and
	// persists it; nil disables the endpoint.
	Sessions func(ctx context.Context, requestToken string) (string, error)

	DefaultQuantity int
	Meta            SystemMeta
}

// NewServer builds the router with the standard middleware stack.
func NewServer(bus *events.Bus, registry *strategy.Registry, executor OrderPlacer, loop *monitor.Loop, market MarketData, broker Broker, journal *db.Database, meta SystemMeta) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router:          r,
		Bus:             bus,
		Registry:        registry,
		Executor:        executor,
		Monitor:         loop,
		Market:          market,
		Broker:          broker,
		Journal:         journal,
		DefaultQuantity: 1,
		Meta:            meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/", s.health)
	s.Router.GET("/health", s.health)
	s.Router.POST("/webhook", s.webhook)
	s.Router.POST("/session/token", s.generateToken)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/strategies", s.listStrategies)
		api.GET("/strategy/:symbol", s.strategyStatus)
		api.POST("/strategy/:symbol/reset", s.resetStrategy)
		api.POST("/strategy/:symbol/exit", s.manualExit)
		api.DELETE("/strategy/:symbol", s.removeStrategy)

		api.GET("/ltp/:symbol", s.ltp)
		api.GET("/ohlc/:symbol", s.ohlc)
		api.GET("/positions", s.positions)
		api.GET("/holdings", s.holdings)
		api.GET("/orders", s.orders)
		api.GET("/trades", s.trades)

		api.GET("/monitoring", s.monitoringStatus)
		api.POST("/monitoring/start", s.startMonitoring)
		api.POST("/monitoring/stop", s.stopMonitoring)
	}
}
