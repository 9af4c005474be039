package gamma

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTopMarketsShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"bare list", `[{"id":"1","question":"Q1"},{"id":"2","question":"Q2"}]`, 2},
		{"data envelope", `{"data":[{"id":"1","question":"Q1"}]}`, 1},
		{"empty list", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			markets, err := client.GetTopMarkets(context.Background(), 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(markets) != tt.expected {
				t.Errorf("expected %d markets, got %d", tt.expected, len(markets))
			}
		})
	}
}

func TestGetTopMarketsParams(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).GetTopMarkets(context.Background(), 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotQuery["closed"]; len(got) != 1 || got[0] != "false" {
		t.Errorf("expected closed=false, got %v", got)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "25" {
		t.Errorf("expected limit=25, got %v", got)
	}
}

func TestGetTopMarketsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).GetTopMarkets(context.Background(), 10); err == nil {
		t.Error("expected error for upstream failure")
	}
}
