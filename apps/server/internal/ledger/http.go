package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPHandler struct {
	ledger Service
}

type errorResponse struct {
	Error string `json:"error"`
}

type recordReplayRequest struct {
	CarID   string         `json:"car_id"`
	Outcome string         `json:"outcome"`
	Winner  string         `json:"winner"`
	Price   int64          `json:"price"`
	Turns   int            `json:"turns"`
	Events  []EventItem    `json:"events"`
	Summary map[string]any `json:"summary"`
}

func NewHTTPHandler(ledgerService Service) *HTTPHandler {
	return &HTTPHandler{ledger: ledgerService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/audit/live/recent", h.handleRecent(SourceLive))
	mux.HandleFunc("/api/audit/replay/recent", h.handleRecent(SourceReplay))
	mux.HandleFunc("/api/audit/live/auctions/", h.handleAuctions(SourceLive))
	mux.HandleFunc("/api/audit/replay/auctions/", h.handleAuctions(SourceReplay))
}

func (h *HTTPHandler) handleRecent(source Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"))
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		items, err := h.ledger.ListRecent(ctx, source, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "query recent auctions failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": items,
		})
	}
}

func (h *HTTPHandler) handleAuctions(source Source) http.HandlerFunc {
	prefix := "/api/audit/" + string(source) + "/auctions/"
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
		if path == "" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		parts := strings.Split(path, "/")
		sessionID := strings.TrimSpace(parts[0])
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "missing session id")
			return
		}

		if len(parts) == 1 {
			if source == SourceReplay && r.Method == http.MethodPost {
				h.handleRecordReplay(w, r, sessionID)
				return
			}
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			h.handleGetAuction(w, r, source, sessionID)
			return
		}

		if len(parts) == 2 && parts[1] == "save" {
			switch r.Method {
			case http.MethodPost:
				h.handleSetSaved(w, r, source, sessionID, true)
			case http.MethodDelete:
				h.handleSetSaved(w, r, source, sessionID, false)
			default:
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			}
			return
		}

		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *HTTPHandler) handleGetAuction(w http.ResponseWriter, r *http.Request, source Source, sessionID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	item, err := h.ledger.GetAuction(ctx, source, sessionID)
	if err == nil {
		var events []EventItem
		events, err = h.ledger.GetAuctionEvents(ctx, source, sessionID)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"session_id": sessionID,
				"source":     source,
				"auction":    item,
				"events":     events,
			})
			return
		}
	}
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "auction not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "query auction failed")
}

func (h *HTTPHandler) handleSetSaved(w http.ResponseWriter, r *http.Request, source Source, sessionID string, saved bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.ledger.SetSaved(ctx, source, sessionID, saved); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "auction not found")
		case errors.Is(err, ErrSavedLimitReach):
			writeError(w, http.StatusConflict, "saved auction limit reached")
		default:
			writeError(w, http.StatusInternalServerError, "update save state failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"source":     source,
		"is_saved":   saved,
	})
}

func (h *HTTPHandler) handleRecordReplay(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req recordReplayRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "events is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()
	err := h.ledger.RecordAuction(ctx, Record{
		SessionID: sessionID,
		Source:    SourceReplay,
		CarID:     req.CarID,
		Outcome:   req.Outcome,
		Winner:    req.Winner,
		Price:     req.Price,
		Turns:     req.Turns,
		Summary:   req.Summary,
		Events:    req.Events,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "record replay auction failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"source":     SourceReplay,
		"saved":      true,
	})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 20
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
