package models

import "time"

// ISOFormat is the canonical timestamp layout stored for trades.
// Trade times come from the upstream normalizer which preserves
// unparseable values verbatim, so timestamp columns are TEXT.
const ISOFormat = "2006-01-02T15:04:05"

// NowISO returns the current UTC time in the canonical layout.
func NowISO() string {
	return time.Now().UTC().Format(ISOFormat)
}

// TrackedWallet is a wallet address whose trading activity is polled.
// Deleting a wallet removes its trades and stops future polling.
type TrackedWallet struct {
	WalletAddress string  `gorm:"primaryKey;size:128" json:"wallet_address"`
	CustomName    *string `gorm:"size:128" json:"custom_name"`
	MainMarket    *string `json:"main_market"`
	AlertsEnabled bool    `gorm:"not null;default:true" json:"alerts_enabled"`
	CreatedAt     string  `gorm:"not null" json:"created_at"`

	Trades []Trade `gorm:"foreignKey:WalletAddress;references:WalletAddress;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for TrackedWallet
func (TrackedWallet) TableName() string {
	return "tracked_wallets"
}

// DisplayName returns the custom name when set, otherwise a short
// prefix of the address.
func (w *TrackedWallet) DisplayName() string {
	if w.CustomName != nil && *w.CustomName != "" {
		return *w.CustomName
	}
	if len(w.WalletAddress) > 8 {
		return w.WalletAddress[:8]
	}
	return w.WalletAddress
}

// Trade is one executed buy/sell event on a binary-outcome market,
// normalized to the canonical schema. Rows are insert-only: a trade is
// created once during a poll cycle and never mutated.
//
// Numeric fields are pointers so that "unknown" stays distinguishable
// from a genuine zero value.
type Trade struct {
	TradeUID      string   `gorm:"primaryKey;size:128" json:"trade_uid"`
	WalletAddress string   `gorm:"index;index:idx_trades_wallet_time,priority:1;not null" json:"wallet_address"`
	AssetID       string   `json:"asset_id"`
	MarketName    string   `gorm:"index" json:"market_name"`
	Side          string   `gorm:"size:16" json:"side"` // buy / sell
	ShareType     string   `gorm:"size:16" json:"share_type"` // YES / NO
	Price         *float64 `json:"price"`
	UsdAmount     *float64 `gorm:"index" json:"usd_amount"`
	Shares        *float64 `json:"shares"`
	Timestamp     string   `gorm:"index;index:idx_trades_wallet_time,priority:2;not null" json:"timestamp"`

	// Market metadata supplied by the upstream market_info object.
	MarketQuestion      string   `gorm:"type:text" json:"market_question,omitempty"`
	MarketOutcome       string   `json:"market_outcome,omitempty"`
	MarketTags          string   `gorm:"type:text" json:"market_tags,omitempty"` // JSON array string
	MarketTargetPrice   *float64 `json:"market_target_price,omitempty"`
	MarketResolved      *bool    `json:"market_resolved,omitempty"`
	MarketIsWinner      *bool    `json:"market_is_winner,omitempty"`
	MarketResolvedPrice *float64 `json:"market_resolved_price,omitempty"`

	RawJSON   string `gorm:"type:text" json:"-"` // upstream payload preserved verbatim for audit
	CreatedAt string `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for Trade
func (Trade) TableName() string {
	return "trades"
}

// AlertLog records one notification attempt for a trade. The trade UID
// is indexed but not unique: the was-already-notified check guards
// re-sends, and a failed attempt still leaves an auditable row.
type AlertLog struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeUID      string `gorm:"index;not null" json:"trade_uid"`
	WalletAddress string `gorm:"not null" json:"wallet_address"`
	SentTo        string `gorm:"not null" json:"sent_to"`
	SentAt        string `gorm:"not null" json:"sent_at"`
	Status        string `gorm:"size:16;not null" json:"status"` // success / failed
	ErrorMessage  string `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName specifies the table name for AlertLog
func (AlertLog) TableName() string {
	return "alert_log"
}

// AlertStatusSuccess and AlertStatusFailed are the AlertLog outcomes.
const (
	AlertStatusSuccess = "success"
	AlertStatusFailed  = "failed"
)
