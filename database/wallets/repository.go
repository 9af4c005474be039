package wallets

import (
	"errors"
	"fmt"

	models "insider-tracker/database/models_pkg"
	"insider-tracker/database/types"

	"gorm.io/gorm"
)

// Repository handles database operations for tracked wallets
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new wallets repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Update carries optional wallet field changes. Nil means "leave as is".
type Update struct {
	CustomName    *string
	MainMarket    *string
	AlertsEnabled *bool
}

// List returns all tracked wallets in insertion order.
func (r *Repository) List() ([]models.TrackedWallet, error) {
	var wallets []models.TrackedWallet
	if err := r.db.Order("created_at ASC").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return wallets, nil
}

// Get returns one wallet by address.
func (r *Repository) Get(address string) (*models.TrackedWallet, error) {
	var wallet models.TrackedWallet
	err := r.db.Where("wallet_address = ?", address).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("wallet", address)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &wallet, nil
}

// GetByName resolves a human alias (custom name) to a wallet.
func (r *Repository) GetByName(name string) (*models.TrackedWallet, error) {
	var wallet models.TrackedWallet
	err := r.db.Where("custom_name = ?", name).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewNotFoundError("wallet", name)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByName: %w", err)
	}
	return &wallet, nil
}

// Create registers a new tracked wallet. Registering an address twice
// is a DuplicateError, not a silent upsert.
func (r *Repository) Create(wallet *models.TrackedWallet) error {
	if wallet.WalletAddress == "" {
		return types.NewValidationError("wallet_address", "must not be empty")
	}
	if wallet.CreatedAt == "" {
		wallet.CreatedAt = models.NowISO()
	}

	var count int64
	if err := r.db.Model(&models.TrackedWallet{}).
		Where("wallet_address = ?", wallet.WalletAddress).
		Count(&count).Error; err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if count > 0 {
		return types.NewDuplicateError("wallet", wallet.WalletAddress)
	}

	if err := r.db.Create(wallet).Error; err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ApplyUpdate patches a wallet and returns the updated row.
func (r *Repository) ApplyUpdate(address string, update Update) (*models.TrackedWallet, error) {
	wallet, err := r.Get(address)
	if err != nil {
		return nil, err
	}

	if update.CustomName != nil {
		wallet.CustomName = update.CustomName
	}
	if update.MainMarket != nil {
		wallet.MainMarket = update.MainMarket
	}
	if update.AlertsEnabled != nil {
		wallet.AlertsEnabled = *update.AlertsEnabled
	}

	if err := r.db.Save(wallet).Error; err != nil {
		return nil, fmt.Errorf("ApplyUpdate: %w", err)
	}
	return wallet, nil
}

// Delete removes a wallet and cascades to its trades. Alert log rows
// stay behind as a send-history audit trail.
func (r *Repository) Delete(address string) error {
	if _, err := r.Get(address); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_address = ?", address).Delete(&models.Trade{}).Error; err != nil {
			return fmt.Errorf("Delete trades: %w", err)
		}
		if err := tx.Where("wallet_address = ?", address).Delete(&models.TrackedWallet{}).Error; err != nil {
			return fmt.Errorf("Delete wallet: %w", err)
		}
		return nil
	})
}
