package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"insider-tracker/alerts"
	models "insider-tracker/database/models_pkg"
	"insider-tracker/database/trades"
)

type fakeWallets struct {
	wallets []models.TrackedWallet
	err     error
}

func (f *fakeWallets) List() ([]models.TrackedWallet, error) {
	return f.wallets, f.err
}

type fakeStore struct {
	mu     sync.Mutex
	seen   map[string]bool
	latest map[string]string
	bulk   []*models.Trade
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool), latest: make(map[string]string)}
}

func (f *fakeStore) InsertIfAbsent(trade *models.Trade) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trade.TradeUID == f.failOn {
		return false, errors.New("storage failure")
	}
	if f.seen[trade.TradeUID] {
		return false, nil
	}
	f.seen[trade.TradeUID] = true
	f.latest[trade.WalletAddress] = trade.Timestamp
	return true, nil
}

func (f *fakeStore) BulkInsert(batch []*models.Trade) (trades.ImportStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := trades.ImportStats{Total: len(batch)}
	for _, trade := range batch {
		if f.seen[trade.TradeUID] {
			stats.Skipped++
			continue
		}
		f.seen[trade.TradeUID] = true
		f.bulk = append(f.bulk, trade)
		stats.Imported++
	}
	return stats, nil
}

func (f *fakeStore) LatestTimestamp(walletAddress string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[walletAddress], nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	records map[string][]json.RawMessage
	errFor  map[string]error
	fetched []string
}

func (f *fakeFetcher) GetTrades(ctx context.Context, walletAddress string, start time.Time, limit int) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, walletAddress)
	if err := f.errFor[walletAddress]; err != nil {
		return nil, err
	}
	return f.records[walletAddress], nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	batches [][]alerts.Pending
}

func (f *fakeDispatcher) Dispatch(pending []alerts.Pending) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, pending)
}

func (f *fakeDispatcher) dispatched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, batch := range f.batches {
		total += len(batch)
	}
	return total
}

func rawTrade(uid string, usd float64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id": %q, "side": "buy", "usd_amount": %f, "timestamp": "2026-01-14T17:47:00"}`, uid, usd))
}

func testConfig() Config {
	return Config{
		Interval:    time.Hour,
		WalletDelay: time.Millisecond,
		Lookback:    24 * time.Hour,
		FetchLimit:  100,
	}
}

func newTestPoller(wallets *fakeWallets, store *fakeStore, fetcher *fakeFetcher, dispatcher *fakeDispatcher) *Poller {
	policy := alerts.NewPolicy(alerts.MinNotionalRule{MinUSD: 100})
	return New(wallets, store, fetcher, policy, dispatcher, testConfig())
}

func TestRunOnceStoresAndAlerts(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa", AlertsEnabled: true},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {rawTrade("t1", 500), rawTrade("t2", 50)},
	}}
	dispatcher := &fakeDispatcher{}

	p := newTestPoller(wallets, store, fetcher, dispatcher)
	p.RunOnce(context.Background())

	if !store.seen["t1"] || !store.seen["t2"] {
		t.Error("both trades must be stored regardless of alert outcome")
	}
	if got := dispatcher.dispatched(); got != 1 {
		t.Errorf("only the above-threshold trade alerts, got %d", got)
	}
}

func TestRunOnceDuplicatesAreSilent(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa", AlertsEnabled: true},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {rawTrade("t1", 500)},
	}}
	dispatcher := &fakeDispatcher{}

	p := newTestPoller(wallets, store, fetcher, dispatcher)
	p.RunOnce(context.Background())
	p.RunOnce(context.Background())

	if got := dispatcher.dispatched(); got != 1 {
		t.Errorf("re-fetched trade must not re-alert, got %d dispatches", got)
	}
}

func TestRunOnceWalletIsolation(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xbad", AlertsEnabled: true},
		{WalletAddress: "0xgood", AlertsEnabled: true},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{
		records: map[string][]json.RawMessage{"0xgood": {rawTrade("t1", 500)}},
		errFor:  map[string]error{"0xbad": errors.New("upstream 500")},
	}
	dispatcher := &fakeDispatcher{}

	p := newTestPoller(wallets, store, fetcher, dispatcher)
	p.RunOnce(context.Background())

	if len(fetcher.fetched) != 2 {
		t.Errorf("both wallets must be polled despite the failure, got %v", fetcher.fetched)
	}
	if !store.seen["t1"] {
		t.Error("healthy wallet's trades must survive another wallet's outage")
	}
}

func TestRunOnceAlertsDisabledWallet(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa", AlertsEnabled: false},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {rawTrade("t1", 500)},
	}}
	dispatcher := &fakeDispatcher{}

	p := newTestPoller(wallets, store, fetcher, dispatcher)
	p.RunOnce(context.Background())

	if !store.seen["t1"] {
		t.Error("muted wallets still get their trades stored")
	}
	if got := dispatcher.dispatched(); got != 0 {
		t.Errorf("muted wallet must not alert, got %d", got)
	}
}

func TestRunOnceMalformedRecordSkipped(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa", AlertsEnabled: true},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {json.RawMessage(`not json`), rawTrade("t1", 500)},
	}}
	dispatcher := &fakeDispatcher{}

	p := newTestPoller(wallets, store, fetcher, dispatcher)
	p.RunOnce(context.Background())

	if !store.seen["t1"] {
		t.Error("a malformed record must not block the rest of the page")
	}
}

func TestRunOnceUsesLatestTimestamp(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa"},
	}}
	store := newFakeStore()
	store.latest["0xaaa"] = "2026-01-14T17:47:00"

	var gotStart time.Time
	p := New(wallets, store, fetcherFunc(func(ctx context.Context, wallet string, start time.Time, limit int) ([]json.RawMessage, error) {
		gotStart = start
		return nil, nil
	}), alerts.NewPolicy(), &fakeDispatcher{}, testConfig())

	p.RunOnce(context.Background())

	want := time.Date(2026, 1, 14, 17, 47, 0, 0, time.UTC)
	if !gotStart.Equal(want) {
		t.Errorf("expected fetch window from last stored trade %v, got %v", want, gotStart)
	}
}

type fetcherFunc func(ctx context.Context, walletAddress string, start time.Time, limit int) ([]json.RawMessage, error)

func (f fetcherFunc) GetTrades(ctx context.Context, walletAddress string, start time.Time, limit int) ([]json.RawMessage, error) {
	return f(ctx, walletAddress, start, limit)
}

func TestStartStop(t *testing.T) {
	wallets := &fakeWallets{}
	p := newTestPoller(wallets, newFakeStore(), &fakeFetcher{}, &fakeDispatcher{})

	if p.Running() {
		t.Fatal("poller must not run before Start")
	}

	p.Start()
	if !p.Running() {
		t.Fatal("poller must report running after Start")
	}
	p.Start() // second Start is a warning no-op

	p.Stop()
	if p.Running() {
		t.Fatal("poller must stop after Stop")
	}
	p.Stop() // second Stop is a no-op
}

func TestTriggerNow(t *testing.T) {
	wallets := &fakeWallets{wallets: []models.TrackedWallet{
		{WalletAddress: "0xaaa", AlertsEnabled: true},
	}}
	store := newFakeStore()
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {rawTrade("t1", 500)},
	}}
	p := newTestPoller(wallets, store, fetcher, &fakeDispatcher{})

	p.Start()
	defer p.Stop()

	p.TriggerNow()
	p.TriggerNow() // queued triggers collapse, must not block

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		stored := store.seen["t1"]
		store.mu.Unlock()
		if stored {
			return
		}
		select {
		case <-deadline:
			t.Fatal("triggered cycle never stored the trade")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFetchHistory(t *testing.T) {
	wallets := &fakeWallets{}
	store := newFakeStore()
	store.seen["t1"] = true // already imported earlier
	fetcher := &fakeFetcher{records: map[string][]json.RawMessage{
		"0xaaa": {rawTrade("t1", 500), rawTrade("t2", 50), json.RawMessage(`broken`)},
	}}

	p := newTestPoller(wallets, store, fetcher, &fakeDispatcher{})
	stats, err := p.FetchHistory(context.Background(), "0xaaa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Imported != 1 {
		t.Errorf("expected 1 imported, got %d", stats.Imported)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected 1 skipped duplicate, got %d", stats.Skipped)
	}
	if stats.Total != 2 {
		t.Errorf("malformed records are dropped before the batch, expected total 2, got %d", stats.Total)
	}
}

func TestFetchHistoryUpstreamError(t *testing.T) {
	fetcher := &fakeFetcher{errFor: map[string]error{"0xaaa": errors.New("upstream down")}}
	p := newTestPoller(&fakeWallets{}, newFakeStore(), fetcher, &fakeDispatcher{})

	if _, err := p.FetchHistory(context.Background(), "0xaaa"); err == nil {
		t.Error("upstream failure must propagate from a manual backfill")
	}
}
