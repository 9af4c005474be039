package database

import (
	"errors"
	"fmt"

	"insider-tracker/database/alertlog"
	models "insider-tracker/database/models_pkg"
	"insider-tracker/database/trades"
	"insider-tracker/database/types"
	"insider-tracker/database/wallets"
)

// ============================================================================
// Type Aliases
// ============================================================================

// Re-exported so callers can use database.Trade etc. without importing
// the sub-packages directly.

type TrackedWallet = models.TrackedWallet
type Trade = models.Trade
type AlertLog = models.AlertLog

type NotFoundError = types.NotFoundError
type DuplicateError = types.DuplicateError
type ValidationError = types.ValidationError

// Repository aggregates the per-aggregate repositories behind one
// handle and hosts the cross-aggregate queries.
type Repository struct {
	db       *Database
	Wallets  *wallets.Repository
	Trades   *trades.Repository
	AlertLog *alertlog.Repository
}

// NewRepository creates the repository facade.
func NewRepository(db *Database) *Repository {
	gormDB := db.DB()
	return &Repository{
		db:       db,
		Wallets:  wallets.NewRepository(gormDB),
		Trades:   trades.NewRepository(gormDB),
		AlertLog: alertlog.NewRepository(gormDB),
	}
}

// InitSchema migrates the canonical tables.
func (r *Repository) InitSchema() error {
	err := r.db.DB().AutoMigrate(
		&models.TrackedWallet{},
		&models.Trade{},
		&models.AlertLog{},
	)
	if err != nil {
		return fmt.Errorf("InitSchema: %w", err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping() error {
	return r.db.Ping()
}

// ============================================================================
// Store surface consumed by the API server
// ============================================================================

// ListWallets returns all tracked wallets.
func (r *Repository) ListWallets() ([]models.TrackedWallet, error) {
	return r.Wallets.List()
}

// GetWallet returns one wallet by address.
func (r *Repository) GetWallet(address string) (*models.TrackedWallet, error) {
	return r.Wallets.Get(address)
}

// CreateWallet registers a new tracked wallet.
func (r *Repository) CreateWallet(wallet *models.TrackedWallet) error {
	return r.Wallets.Create(wallet)
}

// UpdateWallet patches a wallet.
func (r *Repository) UpdateWallet(address string, update wallets.Update) (*models.TrackedWallet, error) {
	return r.Wallets.ApplyUpdate(address, update)
}

// DeleteWallet removes a wallet and its trades.
func (r *Repository) DeleteWallet(address string) error {
	return r.Wallets.Delete(address)
}

// RecentAlerts returns the latest notification attempts for a wallet,
// newest first.
func (r *Repository) RecentAlerts(walletAddress string, limit int) ([]models.AlertLog, error) {
	return r.AlertLog.RecentForWallet(walletAddress, limit)
}

// QueryTrades filters, sorts and paginates trades. The wallet filter
// accepts either a raw address or a custom-name alias; aliases are
// resolved against the registry before the trade query runs.
func (r *Repository) QueryTrades(filter trades.Filter, sort trades.Sort, page trades.Page) ([]models.Trade, int64, error) {
	resolved, err := r.resolveWallet(filter.Wallet)
	if err != nil {
		return nil, 0, err
	}
	filter.Wallet = resolved
	return r.Trades.Query(filter, sort, page)
}

// DistinctMarkets lists distinct market names, with the same
// address-or-alias wallet resolution as QueryTrades.
func (r *Repository) DistinctMarkets(walletOrAlias string) ([]string, error) {
	resolved, err := r.resolveWallet(walletOrAlias)
	if err != nil {
		return nil, err
	}
	return r.Trades.DistinctMarkets(resolved)
}

// resolveWallet maps a custom-name alias to its address. Unknown
// values pass through unchanged so filtering on an untracked address
// still returns an empty (not erroring) result.
func (r *Repository) resolveWallet(walletOrAlias string) (string, error) {
	if walletOrAlias == "" {
		return "", nil
	}
	if _, err := r.Wallets.Get(walletOrAlias); err == nil {
		return walletOrAlias, nil
	}
	wallet, err := r.Wallets.GetByName(walletOrAlias)
	if err == nil {
		return wallet.WalletAddress, nil
	}
	var notFound *types.NotFoundError
	if errors.As(err, &notFound) {
		return walletOrAlias, nil
	}
	return "", err
}
