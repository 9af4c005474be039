package alertlog

import (
	"fmt"

	models "insider-tracker/database/models_pkg"

	"gorm.io/gorm"
)

// Repository handles database operations for the alert send log
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new alert log repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one notification attempt, success or failure.
func (r *Repository) Record(entry *models.AlertLog) error {
	if entry.SentAt == "" {
		entry.SentAt = models.NowISO()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// WasAlertSent reports whether any notification attempt exists for a
// trade. Checked immediately before sending so a trade is never
// alerted twice, even across restarts.
func (r *Repository) WasAlertSent(tradeUID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.AlertLog{}).
		Where("trade_uid = ?", tradeUID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("WasAlertSent: %w", err)
	}
	return count > 0, nil
}

// RecentForWallet returns the latest attempts for a wallet, newest
// first. Backs the per-wallet alert history endpoint.
func (r *Repository) RecentForWallet(walletAddress string, limit int) ([]models.AlertLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AlertLog
	err := r.db.
		Where("wallet_address = ?", walletAddress).
		Order("sent_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("RecentForWallet: %w", err)
	}
	return entries, nil
}
