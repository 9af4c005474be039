package trades

import "testing"

func TestSortClause(t *testing.T) {
	tests := []struct {
		name     string
		sort     Sort
		expected string
	}{
		{"default when empty", Sort{}, "timestamp DESC"},
		{"timestamp asc", Sort{By: "timestamp", Order: "asc"}, "timestamp ASC"},
		{"default order is desc", Sort{By: "price"}, "price DESC"},
		{"market maps to column name", Sort{By: "market", Order: "ASC"}, "market_name ASC"},
		{"wallet maps to column name", Sort{By: "wallet"}, "wallet_address DESC"},
		{"case insensitive column", Sort{By: "USD_AMOUNT"}, "usd_amount DESC"},
		{"unknown column falls back", Sort{By: "evil; DROP TABLE trades"}, "timestamp DESC"},
		{"unknown order falls back to desc", Sort{By: "side", Order: "sideways"}, "side DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sort.Clause(); got != tt.expected {
				t.Errorf("Clause() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPageMath(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		wantOffset int
		wantLimit  int
	}{
		{"defaults", Page{}, 0, 50},
		{"first page explicit", Page{Number: 1, Size: 20}, 0, 20},
		{"third page", Page{Number: 3, Size: 20}, 40, 20},
		{"zero page clamps to first", Page{Number: 0, Size: 10}, 0, 10},
		{"negative size uses default", Page{Number: 2, Size: -5}, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
			if got := tt.page.Limit(); got != tt.wantLimit {
				t.Errorf("Limit() = %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize int
		expected int
	}{
		{"exact fit", 100, 50, 2},
		{"partial last page", 120, 50, 3},
		{"single short page", 7, 50, 1},
		{"empty result", 0, 50, 0},
		{"invalid size uses default", 120, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.pageSize); got != tt.expected {
				t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.expected)
			}
		})
	}
}
