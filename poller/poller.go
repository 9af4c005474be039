// Package poller drives the polling-and-deduplication core: it walks
// the tracked-wallet registry, fetches upstream trades per wallet,
// pushes them through normalization and idempotent storage, and hands
// qualifying new trades to the alert dispatcher.
package poller

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"insider-tracker/alerts"
	models "insider-tracker/database/models_pkg"
	"insider-tracker/database/trades"
	"insider-tracker/hashdive"
)

// WalletSource lists the wallets to poll. Satisfied by the wallets
// repository.
type WalletSource interface {
	List() ([]models.TrackedWallet, error)
}

// TradeStore is the storage surface the poller writes through.
// Satisfied by the trades repository.
type TradeStore interface {
	InsertIfAbsent(trade *models.Trade) (bool, error)
	BulkInsert(batch []*models.Trade) (trades.ImportStats, error)
	LatestTimestamp(walletAddress string) (string, error)
}

// TradeFetcher pulls raw trade records from the upstream source.
// Satisfied by the hashdive client.
type TradeFetcher interface {
	GetTrades(ctx context.Context, walletAddress string, start time.Time, limit int) ([]json.RawMessage, error)
}

// AlertDispatcher delivers a cycle's pending alerts.
type AlertDispatcher interface {
	Dispatch(pending []alerts.Pending)
}

// EventPublisher pushes ingestion events to realtime subscribers.
type EventPublisher interface {
	PublishTrade(trade *models.Trade)
}

// Config holds poller timing parameters.
type Config struct {
	Interval    time.Duration // delay between cycle completions
	WalletDelay time.Duration // minimum delay between per-wallet fetches
	Lookback    time.Duration // window for a wallet's first contact
	FetchLimit  int
}

// Poller is the background orchestrator. One instance per process;
// it is owned by the composition root and injected where a manual
// trigger is needed.
type Poller struct {
	wallets    WalletSource
	store      TradeStore
	fetcher    TradeFetcher
	policy     *alerts.Policy
	dispatcher AlertDispatcher
	events     EventPublisher // optional

	interval   time.Duration
	lookback   time.Duration
	fetchLimit int
	limiter    *rate.Limiter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	stopped chan struct{}
	trigger chan struct{}
}

// New creates a poller.
func New(wallets WalletSource, store TradeStore, fetcher TradeFetcher, policy *alerts.Policy, dispatcher AlertDispatcher, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.WalletDelay <= 0 {
		cfg.WalletDelay = time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 7 * 24 * time.Hour
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 100
	}

	return &Poller{
		wallets:    wallets,
		store:      store,
		fetcher:    fetcher,
		policy:     policy,
		dispatcher: dispatcher,
		interval:   cfg.Interval,
		lookback:   cfg.Lookback,
		fetchLimit: cfg.FetchLimit,
		limiter:    rate.NewLimiter(rate.Every(cfg.WalletDelay), 1),
		trigger:    make(chan struct{}, 1),
	}
}

// SetEventPublisher attaches a realtime publisher for new trades.
func (p *Poller) SetEventPublisher(events EventPublisher) {
	p.events = events
}

// Start launches the continuous loop. Calling it while already
// running is a no-op with a warning.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		log.Println("⚠️  Poller already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.stopped = make(chan struct{})
	p.running = true

	go p.run(ctx)
	log.Println("🔄 Trade poller started")
}

// Stop signals the loop to exit at the next safe point and blocks
// until it has. Cancellation is cooperative: an in-flight wallet
// fetch finishes or errors, it is not forced mid-operation.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	stopped := p.stopped
	p.mu.Unlock()

	cancel()
	<-stopped

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	log.Println("🔄 Trade poller stopped")
}

// Running reports whether the loop is alive. Used by the health probe.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// TriggerNow requests an out-of-band cycle without disturbing the
// scheduled loop's timing. Fire-and-forget: if a trigger is already
// queued the call is a no-op.
func (p *Poller) TriggerNow() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.stopped)

	// First cycle runs immediately; the ticker paces the rest.
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-p.trigger:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce executes one polling cycle over all tracked wallets. Wallet
// failures are isolated: one wallet's upstream outage never stops the
// others from being polled.
func (p *Poller) RunOnce(ctx context.Context) {
	wallets, err := p.wallets.List()
	if err != nil {
		log.Printf("❌ Poll cycle aborted, cannot list wallets: %v", err)
		return
	}
	if len(wallets) == 0 {
		return
	}

	log.Printf("🔄 Polling %d tracked wallets", len(wallets))
	pending := alerts.NewManager()

	for i := range wallets {
		// Upstream rate limit: pace per-wallet calls. Cancellable so
		// Stop returns promptly instead of waiting out the delay.
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		if err := p.pollWallet(ctx, &wallets[i], pending); err != nil {
			log.Printf("❌ Error polling wallet %s: %v", wallets[i].WalletAddress, err)
		}
	}

	if drained := pending.Drain(); len(drained) > 0 {
		p.dispatcher.Dispatch(drained)
	}
	log.Println("✅ Polling cycle complete")
}

func (p *Poller) pollWallet(ctx context.Context, wallet *models.TrackedWallet, pending *alerts.Manager) error {
	since := p.sinceFor(wallet.WalletAddress)

	records, err := p.fetcher.GetTrades(ctx, wallet.WalletAddress, since, p.fetchLimit)
	if err != nil {
		return err
	}

	newTrades := 0
	for _, raw := range records {
		trade, err := hashdive.NormalizeTrade(raw, wallet.WalletAddress)
		if err != nil {
			// A record too malformed to identify is dropped, not fatal.
			log.Printf("⚠️  Skipping malformed record for %s: %v", wallet.WalletAddress, err)
			continue
		}

		inserted, err := p.store.InsertIfAbsent(trade)
		if err != nil {
			log.Printf("⚠️  Failed to store trade %s: %v", trade.TradeUID, err)
			continue
		}
		if !inserted {
			continue // duplicate: expected, silently non-new
		}

		newTrades++
		if p.events != nil {
			p.events.PublishTrade(trade)
		}
		if wallet.AlertsEnabled && p.policy.ShouldAlert(trade) {
			pending.Add(*wallet, *trade)
		}
	}

	if newTrades > 0 {
		log.Printf("📈 Found %d new trades for wallet %s", newTrades, wallet.WalletAddress)
	}
	return nil
}

// sinceFor computes the fetch window: the wallet's last stored trade
// time, or the configured lookback on first contact.
func (p *Poller) sinceFor(walletAddress string) time.Time {
	latest, err := p.store.LatestTimestamp(walletAddress)
	if err != nil || latest == "" {
		return time.Now().UTC().Add(-p.lookback)
	}
	t, err := time.Parse(models.ISOFormat, latest)
	if err != nil {
		// Timestamp preserved verbatim from a weird upstream value;
		// fall back to the lookback window.
		return time.Now().UTC().Add(-p.lookback)
	}
	return t
}

// FetchHistory performs an on-demand one-shot full pull for a single
// wallet, bypassing the cycle schedule, and reports import counts.
func (p *Poller) FetchHistory(ctx context.Context, walletAddress string) (trades.ImportStats, error) {
	records, err := p.fetcher.GetTrades(ctx, walletAddress, time.Time{}, p.fetchLimit*10)
	if err != nil {
		return trades.ImportStats{}, err
	}

	batch := make([]*models.Trade, 0, len(records))
	for _, raw := range records {
		trade, err := hashdive.NormalizeTrade(raw, walletAddress)
		if err != nil {
			log.Printf("⚠️  Skipping malformed record for %s: %v", walletAddress, err)
			continue
		}
		batch = append(batch, trade)
	}

	stats, err := p.store.BulkInsert(batch)
	if err != nil {
		return stats, err
	}
	log.Printf("📥 Backfill for %s: %d imported, %d skipped", walletAddress, stats.Imported, stats.Skipped)
	return stats, nil
}
