package alerts

import (
	"testing"

	models "insider-tracker/database/models_pkg"
)

func floatPtr(v float64) *float64 { return &v }

func TestMinNotionalRule(t *testing.T) {
	rule := MinNotionalRule{MinUSD: 100}

	tests := []struct {
		name     string
		usd      *float64
		expected bool
	}{
		{"above threshold", floatPtr(150), true},
		{"exactly threshold", floatPtr(100), true},
		{"below threshold", floatPtr(99.99), false},
		{"zero notional", floatPtr(0), false},
		{"unknown notional passes", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &models.Trade{UsdAmount: tt.usd}
			if got := rule.Allows(trade); got != tt.expected {
				t.Errorf("Allows() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSideRule(t *testing.T) {
	tests := []struct {
		name     string
		ruleSide string
		side     string
		expected bool
	}{
		{"matching side", "buy", "buy", true},
		{"mismatched side", "buy", "sell", false},
		{"unset trade side passes", "buy", "", true},
		{"unset rule side passes all", "", "sell", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := SideRule{Side: tt.ruleSide}
			trade := &models.Trade{Side: tt.side}
			if got := rule.Allows(trade); got != tt.expected {
				t.Errorf("Allows() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExcludeMarketsRule(t *testing.T) {
	rule := ExcludeMarketsRule{Markets: map[string]bool{"Noise Market": true}}

	if rule.Allows(&models.Trade{MarketName: "Noise Market"}) {
		t.Error("excluded market must be suppressed")
	}
	if !rule.Allows(&models.Trade{MarketName: "Other Market"}) {
		t.Error("other markets must pass")
	}
}

func TestPolicyConjunction(t *testing.T) {
	policy := NewPolicy(
		MinNotionalRule{MinUSD: 100},
		SideRule{Side: "buy"},
	)

	big := floatPtr(500)
	small := floatPtr(10)

	if !policy.ShouldAlert(&models.Trade{UsdAmount: big, Side: "buy"}) {
		t.Error("trade passing all rules must alert")
	}
	if policy.ShouldAlert(&models.Trade{UsdAmount: small, Side: "buy"}) {
		t.Error("one failing rule must suppress the alert")
	}
	if policy.ShouldAlert(&models.Trade{UsdAmount: big, Side: "sell"}) {
		t.Error("wrong side must suppress the alert")
	}
}

func TestPolicyNoRules(t *testing.T) {
	if !NewPolicy().ShouldAlert(&models.Trade{}) {
		t.Error("empty policy must allow everything")
	}
}

func TestManagerDrain(t *testing.T) {
	m := NewManager()
	wallet := models.TrackedWallet{WalletAddress: "0xabc"}

	m.Add(wallet, models.Trade{TradeUID: "t1"})
	m.Add(wallet, models.Trade{TradeUID: "t2"})
	if m.Len() != 2 {
		t.Fatalf("expected 2 pending, got %d", m.Len())
	}

	drained := m.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained, got %d", len(drained))
	}
	if m.Len() != 0 {
		t.Errorf("drain must empty the queue, %d left", m.Len())
	}
	if drained[0].Trade.TradeUID != "t1" {
		t.Errorf("drain must preserve insertion order, got %q first", drained[0].Trade.TradeUID)
	}
}

func TestManagerGroupByWallet(t *testing.T) {
	name := "smart-money"
	named := models.TrackedWallet{WalletAddress: "0xabc", CustomName: &name}
	anon := models.TrackedWallet{WalletAddress: "0xdef0123456789"}

	m := NewManager()
	m.Add(named, models.Trade{TradeUID: "t1"})
	m.Add(named, models.Trade{TradeUID: "t2"})
	m.Add(anon, models.Trade{TradeUID: "t3"})

	groups := GroupByWallet(m.Drain())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups["smart-money"]) != 2 {
		t.Errorf("expected 2 trades for named wallet, got %d", len(groups["smart-money"]))
	}
	if len(groups[anon.DisplayName()]) != 1 {
		t.Errorf("expected 1 trade for anonymous wallet, got %d", len(groups[anon.DisplayName()]))
	}
}
