package api

import (
	"encoding/json"
	"net/http"

	"insider-tracker/database"
	models "insider-tracker/database/models_pkg"
	"insider-tracker/database/wallets"
)

type walletRequest struct {
	WalletAddress string  `json:"wallet_address"`
	CustomName    *string `json:"custom_name"`
	MainMarket    *string `json:"main_market"`
	AlertsEnabled *bool   `json:"alerts_enabled"`
}

// handleListWallets returns the full tracked-wallet registry.
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListWallets()
	if err != nil {
		respondError(w, errorStatus(err), "failed to list wallets", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"wallets": list, "count": len(list)})
}

// handleCreateWallet registers a wallet for tracking.
func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	wallet := &database.TrackedWallet{
		WalletAddress: req.WalletAddress,
		CustomName:    req.CustomName,
		MainMarket:    req.MainMarket,
		AlertsEnabled: true,
		CreatedAt:     models.NowISO(),
	}
	if req.AlertsEnabled != nil {
		wallet.AlertsEnabled = *req.AlertsEnabled
	}

	if err := s.store.CreateWallet(wallet); err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}
	respondJSON(w, http.StatusCreated, wallet)
}

// handleGetWallet returns one tracked wallet by address.
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	wallet, err := s.store.GetWallet(address)
	if err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}

// handleUpdateWallet applies a partial update: only fields present in
// the body change, absent fields keep their stored value.
func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	wallet, err := s.store.UpdateWallet(address, wallets.Update{
		CustomName:    req.CustomName,
		MainMarket:    req.MainMarket,
		AlertsEnabled: req.AlertsEnabled,
	})
	if err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}

// handleDeleteWallet removes a wallet and its stored trades.
func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if err := s.store.DeleteWallet(address); err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "wallet_address": address})
}

// handleBackfillWallet runs a one-shot historical import for a wallet.
func (s *Server) handleBackfillWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if _, err := s.store.GetWallet(address); err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}

	stats, err := s.poller.FetchHistory(r.Context(), address)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backfill failed", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// handleWalletAlerts returns the recent notification attempts for a
// wallet, successes and failures alike.
func (s *Server) handleWalletAlerts(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if _, err := s.store.GetWallet(address); err != nil {
		respondError(w, errorStatus(err), err.Error(), err)
		return
	}

	minLimit, maxLimit := 1, 500
	limit := getIntParam(r, "limit", 50, &minLimit, &maxLimit)

	entries, err := s.store.RecentAlerts(address, limit)
	if err != nil {
		respondError(w, errorStatus(err), "failed to list alerts", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"alerts": entries, "count": len(entries)})
}
