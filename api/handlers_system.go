package api

import (
	"net/http"
)

// handleHealth reports liveness for the process and its dependencies.
// The endpoint answers 200 even when degraded so probes can read the
// component breakdown.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := s.store.Ping() == nil
	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":             status,
		"poller_running":     s.poller.Running(),
		"database_connected": dbOK,
	})
}

// handleRunOnce triggers an immediate polling cycle. The cycle runs in
// the background, so the response only acknowledges the request.
func (s *Server) handleRunOnce(w http.ResponseWriter, r *http.Request) {
	if !s.poller.Running() {
		respondError(w, http.StatusConflict, "poller is not running", nil)
		return
	}
	s.poller.TriggerNow()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "poll cycle triggered"})
}

// handleNotifierTest probes the alert delivery channel end to end.
func (s *Server) handleNotifierTest(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		respondError(w, http.StatusServiceUnavailable, "notifier is not configured", nil)
		return
	}
	if err := s.notifier.TestConnection(); err != nil {
		respondError(w, http.StatusBadGateway, "notifier connection failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"recipients": s.notifier.Recipients(),
	})
}

// handleInsiderMarkets screens the top active markets for questions
// whose outcome hinges on privately-known information.
func (s *Server) handleInsiderMarkets(w http.ResponseWriter, r *http.Request) {
	if s.markets == nil || s.flagger == nil {
		respondError(w, http.StatusServiceUnavailable, "insider screening is not configured", nil)
		return
	}

	one := 1
	maxLimit := 500
	limit := getIntParam(r, "limit", 100, &one, &maxLimit)

	markets, err := s.markets.GetTopMarkets(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch markets", err)
		return
	}

	flagged := s.flagger.FlagMarkets(r.Context(), markets)
	respondJSON(w, http.StatusOK, map[string]any{
		"scanned": len(markets),
		"flagged": flagged,
		"count":   len(flagged),
	})
}

// handleInsiderEvents is the event-level variant of the market screen.
func (s *Server) handleInsiderEvents(w http.ResponseWriter, r *http.Request) {
	if s.markets == nil || s.flagger == nil {
		respondError(w, http.StatusServiceUnavailable, "insider screening is not configured", nil)
		return
	}

	one := 1
	maxLimit := 500
	limit := getIntParam(r, "limit", 100, &one, &maxLimit)

	events, err := s.markets.GetTopEvents(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch events", err)
		return
	}

	flagged := s.flagger.FlagEvents(r.Context(), events)
	respondJSON(w, http.StatusOK, map[string]any{
		"scanned": len(events),
		"flagged": flagged,
		"count":   len(flagged),
	})
}
