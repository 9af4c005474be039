package alerts

import (
	"sync"

	models "insider-tracker/database/models_pkg"
)

// Pending is one trade queued for notification together with its
// wallet context.
type Pending struct {
	Wallet models.TrackedWallet
	Trade  models.Trade
}

// Manager accumulates pending alerts during a poll cycle and hands
// them off grouped for delivery. It is safe for concurrent use; the
// manual-trigger path can enqueue while the scheduled loop drains.
type Manager struct {
	mu      sync.Mutex
	pending []Pending
}

// NewManager creates an empty pending-alert queue.
func NewManager() *Manager {
	return &Manager{}
}

// Add queues a trade for notification.
func (m *Manager) Add(wallet models.TrackedWallet, trade models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, Pending{Wallet: wallet, Trade: trade})
}

// Drain returns and clears the queued alerts.
func (m *Manager) Drain() []Pending {
	m.mu.Lock()
	defer m.mu.Unlock()
	drained := m.pending
	m.pending = nil
	return drained
}

// Len reports the queue size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// GroupByWallet buckets pending alerts by wallet display name for
// digest-style delivery. Grouping affects delivery only; the alert
// log stays per trade.
func GroupByWallet(pending []Pending) map[string][]Pending {
	grouped := make(map[string][]Pending)
	for _, p := range pending {
		name := p.Wallet.DisplayName()
		grouped[name] = append(grouped[name], p)
	}
	return grouped
}
