package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"insider-tracker/database"
	"insider-tracker/database/trades"
	"insider-tracker/database/wallets"
	"insider-tracker/gamma"
	"insider-tracker/insider"
)

// Store is the persistence surface the API reads and writes.
// Satisfied by *database.Repository.
type Store interface {
	Ping() error
	ListWallets() ([]database.TrackedWallet, error)
	GetWallet(address string) (*database.TrackedWallet, error)
	CreateWallet(wallet *database.TrackedWallet) error
	UpdateWallet(address string, update wallets.Update) (*database.TrackedWallet, error)
	DeleteWallet(address string) error
	QueryTrades(filter trades.Filter, sort trades.Sort, page trades.Page) ([]database.Trade, int64, error)
	DistinctMarkets(walletOrAlias string) ([]string, error)
	RecentAlerts(walletAddress string, limit int) ([]database.AlertLog, error)
}

// PollerControl exposes the poller operations the API drives.
type PollerControl interface {
	Running() bool
	TriggerNow()
	FetchHistory(ctx context.Context, walletAddress string) (trades.ImportStats, error)
}

// Notifier is the delivery channel the API can probe.
type Notifier interface {
	TestConnection() error
	Recipients() string
}

// MarketSource lists candidate markets and events for insider
// screening.
type MarketSource interface {
	GetTopMarkets(ctx context.Context, limit int) ([]gamma.Market, error)
	GetTopEvents(ctx context.Context, limit int) ([]gamma.Event, error)
}

// MarketFlagger screens market questions and event titles for
// insider-edge signals.
type MarketFlagger interface {
	FlagMarkets(ctx context.Context, markets []gamma.Market) []insider.FlaggedMarket
	FlagEvents(ctx context.Context, events []gamma.Event) []insider.FlaggedEvent
}

// Server handles HTTP API requests
type Server struct {
	store    Store
	poller   PollerControl
	notifier Notifier
	markets  MarketSource
	flagger  MarketFlagger
	stream   http.Handler
}

// NewServer creates a new API server instance
func NewServer(store Store, poller PollerControl, notifier Notifier) *Server {
	return &Server{
		store:    store,
		poller:   poller,
		notifier: notifier,
	}
}

// SetInsiderScreen attaches the market screening pipeline.
func (s *Server) SetInsiderScreen(markets MarketSource, flagger MarketFlagger) {
	s.markets = markets
	s.flagger = flagger
}

// SetStream attaches the realtime event stream endpoint.
func (s *Server) SetStream(stream http.Handler) {
	s.stream = stream
}

// Routes builds the request multiplexer with all handlers registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Wallet registry
	mux.HandleFunc("GET /api/wallets", s.handleListWallets)
	mux.HandleFunc("POST /api/wallets", s.handleCreateWallet)
	mux.HandleFunc("GET /api/wallets/{address}", s.handleGetWallet)
	mux.HandleFunc("PATCH /api/wallets/{address}", s.handleUpdateWallet)
	mux.HandleFunc("DELETE /api/wallets/{address}", s.handleDeleteWallet)
	mux.HandleFunc("POST /api/wallets/{address}/backfill", s.handleBackfillWallet)
	mux.HandleFunc("GET /api/wallets/{address}/alerts", s.handleWalletAlerts)

	// Trade queries
	mux.HandleFunc("GET /api/trades", s.handleQueryTrades)
	mux.HandleFunc("GET /api/markets", s.handleListMarkets)

	// Operations
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/poller/run-once", s.handleRunOnce)
	mux.HandleFunc("POST /api/notifier/test", s.handleNotifierTest)

	// Insider screening
	mux.HandleFunc("GET /api/insider/markets", s.handleInsiderMarkets)
	mux.HandleFunc("GET /api/insider/events", s.handleInsiderEvents)

	if s.stream != nil {
		mux.Handle("GET /api/stream", s.stream)
	}

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, s.Routes())
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_wallets.go: Wallet registry CRUD and backfill
// - handlers_trades.go: Trade queries and market listing
// - handlers_system.go: Health, poller control, notifier probe, insider screen
