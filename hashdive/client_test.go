package hashdive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDecodeTradePage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
		wantErr  bool
	}{
		{"flat list", `[{"id":"a"},{"id":"b"}]`, 2, false},
		{"data envelope", `{"data":[{"id":"a"}]}`, 1, false},
		{"trades envelope", `{"trades":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, 3, false},
		{"trades preferred over data", `{"data":[{"id":"x"}],"trades":[{"id":"a"},{"id":"b"}]}`, 2, false},
		{"empty body", ``, 0, false},
		{"empty list", `[]`, 0, false},
		{"envelope without records", `{"status":"ok"}`, 0, true},
		{"scalar payload", `42`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeTradePage([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(records) != tt.expected {
				t.Errorf("expected %d records, got %d", tt.expected, len(records))
			}
		})
	}
}

func TestGetTradesRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[{"id":"t1"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	start := time.Unix(1700000000, 0)

	records, err := client.GetTrades(context.Background(), "0xwallet", start, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if gotPath != "/get_trades" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if got := gotQuery["wallet"]; len(got) != 1 || got[0] != "0xwallet" {
		t.Errorf("unexpected wallet param %v", got)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "25" {
		t.Errorf("unexpected limit param %v", got)
	}
	if got := gotQuery["start_time"]; len(got) != 1 || got[0] != "1700000000" {
		t.Errorf("unexpected start_time param %v", got)
	}
}

func TestGetTradesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.GetTrades(context.Background(), "0xwallet", time.Time{}, 10); err == nil {
		t.Error("expected error for non-200 upstream status")
	}
}
