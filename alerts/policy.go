// Package alerts decides which newly stored trades are worth a
// notification and collects the winners for delivery.
package alerts

import (
	models "insider-tracker/database/models_pkg"
)

// Rule is one independent alert predicate over a canonical trade.
// Rules are evaluated after persistence and before notification; all
// must pass for a trade to alert.
type Rule interface {
	Allows(trade *models.Trade) bool
}

// Policy is a conjunction of rules.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from its rules.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// ShouldAlert reports whether every rule passes for the trade.
func (p *Policy) ShouldAlert(trade *models.Trade) bool {
	for _, rule := range p.rules {
		if !rule.Allows(trade) {
			return false
		}
	}
	return true
}

// MinNotionalRule suppresses trades below a USD threshold. A trade
// with unknown notional passes: a trade of unknown size is not
// suppressed.
type MinNotionalRule struct {
	MinUSD float64
}

// Allows implements Rule.
func (r MinNotionalRule) Allows(trade *models.Trade) bool {
	if trade.UsdAmount == nil {
		return true
	}
	return *trade.UsdAmount >= r.MinUSD
}

// SideRule restricts alerts to one side (buy or sell). Trades with an
// unset side pass.
type SideRule struct {
	Side string
}

// Allows implements Rule.
func (r SideRule) Allows(trade *models.Trade) bool {
	if trade.Side == "" || r.Side == "" {
		return true
	}
	return trade.Side == r.Side
}

// ExcludeMarketsRule suppresses alerts for specific market names.
type ExcludeMarketsRule struct {
	Markets map[string]bool
}

// Allows implements Rule.
func (r ExcludeMarketsRule) Allows(trade *models.Trade) bool {
	return !r.Markets[trade.MarketName]
}
