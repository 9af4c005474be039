package trades

import (
	"errors"
	"fmt"
	"strings"

	models "insider-tracker/database/models_pkg"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository handles database operations for canonical trades
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new trades repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ImportStats summarizes a bulk insert.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// InsertIfAbsent stores a trade unless its UID is already present.
// A duplicate is a first-class expected outcome: it reports
// inserted=false with a nil error, never a failure.
func (r *Repository) InsertIfAbsent(trade *models.Trade) (bool, error) {
	if trade.CreatedAt == "" {
		trade.CreatedAt = models.NowISO()
	}
	if err := r.db.Create(trade).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("InsertIfAbsent: %w", err)
	}
	return true, nil
}

// BulkInsert applies InsertIfAbsent to each trade. Duplicates never
// abort the batch; the first hard failure stops it and the stats
// collected so far are returned alongside the error.
func (r *Repository) BulkInsert(batch []*models.Trade) (ImportStats, error) {
	stats := ImportStats{Total: len(batch)}
	for _, trade := range batch {
		inserted, err := r.InsertIfAbsent(trade)
		if err != nil {
			return stats, fmt.Errorf("BulkInsert: %w", err)
		}
		if inserted {
			stats.Imported++
		} else {
			stats.Skipped++
		}
	}
	return stats, nil
}

// LatestTimestamp returns the newest stored trade time for a wallet,
// or "" when the wallet has no trades yet. Canonical timestamps are
// ISO strings so lexicographic order matches chronological order.
func (r *Repository) LatestTimestamp(walletAddress string) (string, error) {
	var trade models.Trade
	err := r.db.
		Where("wallet_address = ?", walletAddress).
		Order("timestamp DESC").
		Select("timestamp").
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("LatestTimestamp: %w", err)
	}
	return trade.Timestamp, nil
}

// Get returns one trade by UID, or nil when absent.
func (r *Repository) Get(tradeUID string) (*models.Trade, error) {
	var trade models.Trade
	err := r.db.Where("trade_uid = ?", tradeUID).First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &trade, nil
}

// Query filters, sorts and paginates stored trades. The page of rows
// and the total matching count come from independent queries.
func (r *Repository) Query(filter Filter, sort Sort, page Page) ([]models.Trade, int64, error) {
	base := r.applyFilter(r.db.Model(&models.Trade{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("Query count: %w", err)
	}

	var rows []models.Trade
	err := r.applyFilter(r.db.Model(&models.Trade{}), filter).
		Order(sort.Clause()).
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("Query page: %w", err)
	}
	return rows, total, nil
}

// DistinctMarkets lists distinct non-empty market names, optionally
// restricted to one wallet, sorted for filter dropdowns.
func (r *Repository) DistinctMarkets(walletAddress string) ([]string, error) {
	query := r.db.Model(&models.Trade{}).
		Distinct("market_name").
		Where("market_name <> ''").
		Order("market_name ASC")
	if walletAddress != "" {
		query = query.Where("wallet_address = ?", walletAddress)
	}

	var markets []string
	if err := query.Pluck("market_name", &markets).Error; err != nil {
		return nil, fmt.Errorf("DistinctMarkets: %w", err)
	}
	return markets, nil
}

func (r *Repository) applyFilter(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.Wallet != "" {
		query = query.Where("wallet_address = ?", filter.Wallet)
	}
	if filter.Side != "" {
		query = query.Where("side = ?", strings.ToLower(filter.Side))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinUSD != nil {
		query = query.Where("usd_amount >= ?", *filter.MinUSD)
	}
	if filter.MaxUSD != nil {
		query = query.Where("usd_amount <= ?", *filter.MaxUSD)
	}
	if filter.Market != "" {
		query = query.Where("market_name ILIKE ?", "%"+filter.Market+"%")
	}
	return query
}

// isDuplicateKey reports whether an insert failed on a unique
// constraint. The pq error code is authoritative; the message check
// covers translated driver errors.
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
