package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"biodiversity-quiz/internal/badge"
	"biodiversity-quiz/internal/bank"
	"biodiversity-quiz/internal/domain"
	"biodiversity-quiz/internal/leaderboard"
)

// LeaderboardReader serves ranked boards.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, req leaderboard.GetLeaderboardRequest) (*domain.Leaderboard, error)
}

// HistoryReader lists completed sessions of a user.
type HistoryReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.SessionResult, error)
}

// APIHandler serves the read side: badges, leaderboard, history and catalog.
// Nil collaborators answer 404.
type APIHandler struct {
	Bank        *bank.Bank
	Badges      *badge.Service
	Leaderboard LeaderboardReader
	History     HistoryReader
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /catalog", h.catalog)
	mux.HandleFunc("GET /badges", h.listBadges)
	mux.HandleFunc("POST /badges/ack", h.acknowledgeBadges)
	mux.HandleFunc("GET /leaderboard", h.leaderboard)
	mux.HandleFunc("GET /history", h.history)
}

type catalogGroup struct {
	ID          domain.AgeGroup `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Questions   int             `json:"questions"`
}

func (h *APIHandler) catalog(w http.ResponseWriter, r *http.Request) {
	if h.Bank == nil {
		http.NotFound(w, r)
		return
	}
	sets := h.Bank.Sets()
	out := make([]catalogGroup, 0, len(sets))
	for _, s := range sets {
		out = append(out, catalogGroup{ID: s.ID, Name: s.Name, Description: s.Description, Questions: len(s.Questions)})
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"ageGroups": out})
}

func (h *APIHandler) listBadges(w http.ResponseWriter, r *http.Request) {
	if h.Badges == nil {
		http.NotFound(w, r)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	badges, err := h.Badges.List(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"badges": nonNil(badges)})
}

type acknowledgeRequest struct {
	UserID   string   `json:"userId"`
	BadgeIDs []string `json:"badgeIds"`
}

func (h *APIHandler) acknowledgeBadges(w http.ResponseWriter, r *http.Request) {
	if h.Badges == nil {
		http.NotFound(w, r)
		return
	}
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "invalid acknowledge request", http.StatusBadRequest)
		return
	}
	badges, err := h.Badges.Acknowledge(r.Context(), req.UserID, req.BadgeIDs...)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"badges": nonNil(badges)})
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if h.Leaderboard == nil {
		http.NotFound(w, r)
		return
	}
	group := domain.AgeGroup(r.URL.Query().Get("ageGroup"))
	if group == "" {
		http.Error(w, "missing ageGroup", http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	board, err := h.Leaderboard.GetLeaderboard(r.Context(), leaderboard.GetLeaderboardRequest{AgeGroup: group, Limit: limit})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, board)
}

func (h *APIHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		http.NotFound(w, r)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	results, err := h.History.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{"results": nonNil(results)})
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(ctx, "http: encode response failed", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	slog.ErrorContext(ctx, "http: request failed", "error", err)
	status := http.StatusInternalServerError
	if errorCode(err) == "not_found" {
		status = http.StatusNotFound
	}
	writeJSON(ctx, w, status, errorPayload{Code: errorCode(err), Message: err.Error()})
}
