package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/fortuna/courtvision/internal/assistant"
	"github.com/fortuna/courtvision/internal/defense"
	"github.com/fortuna/courtvision/internal/engine"
	"github.com/fortuna/courtvision/internal/injury"
	"github.com/fortuna/courtvision/internal/roster"
	"github.com/fortuna/courtvision/internal/schedule"
	"github.com/fortuna/courtvision/internal/store"
	"github.com/fortuna/courtvision/internal/teams"
	"github.com/fortuna/courtvision/internal/trend"
)

// Engine is the read side of *engine.Engine
type Engine interface {
	Season() string
	Trends(ctx context.Context) ([]trend.Record, error)
	Injuries(ctx context.Context) (injury.Report, error)
	Watch(ctx context.Context) ([]injury.WatchItem, error)
	Schedule(ctx context.Context) (schedule.Index, error)
	Defense(ctx context.Context) (defense.Table, error)
	Leaders(ctx context.Context) ([]trend.Leader, error)
	Search(ctx context.Context, query string, limit int) ([]roster.Match, error)
	DeepDive(ctx context.Context, query string) (trend.DeepDive, error)
	Snapshot(ctx context.Context) engine.Snapshot
	Refresh(ctx context.Context) error
}

// Asker answers free-text questions. *assistant.Chat satisfies it
type Asker interface {
	Ask(ctx context.Context, payload assistant.Context, question string) (string, error)
}

// History reads stored snapshots. *repository.SnapshotRepository satisfies it
type History interface {
	List(ctx context.Context, season string, limit int) ([]*store.TrendSnapshot, error)
	PlayerHistory(ctx context.Context, season, player string, limit int) ([]*store.PlayerTrendPoint, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	engine    Engine
	assistant Asker
	history   History
	health    map[string]func() error
}

// NewHandler creates a new handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		engine:    deps.Engine,
		assistant: deps.Assistant,
		history:   deps.History,
		health:    deps.Health,
	}
}

// HealthCheck reports the service and its backing stores
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "courtvision",
		"season":  h.engine.Season(),
		"checks":  checks,
	})
}

// GetTrends returns the ranked trend table. ?status= filters by label and
// ?limit= truncates
func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	records, err := h.engine.Trends(r.Context())

	if status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))); status != "" {
		filtered := make([]trend.Record, 0, len(records))
		for _, rec := range records {
			if rec.Status == status {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":      h.engine.Season(),
		"trends":      records,
		"unavailable": unavailable(err),
	})
}

// GetTrendHistory returns stored snapshots, or one player's records across
// them when ?player= is given
func (h *Handler) GetTrendHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "Snapshot history is not configured", nil)
		return
	}
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}
	season := r.URL.Query().Get("season")
	if season == "" {
		season = h.engine.Season()
	}

	if player := strings.TrimSpace(r.URL.Query().Get("player")); player != "" {
		points, err := h.history.PlayerHistory(r.Context(), season, player, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch player history", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"season": season, "player": player, "history": points})
		return
	}

	snapshots, err := h.history.List(r.Context(), season, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch snapshot history", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"season": season, "snapshots": snapshots})
}

// GetLeaders returns the season's top scorers
func (h *Handler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.engine.Leaders(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":      h.engine.Season(),
		"leaders":     leaders,
		"unavailable": unavailable(err),
	})
}

// GetInjuries returns the name -> status report
func (h *Handler) GetInjuries(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Injuries(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"injuries":    report.Statuses(),
		"unavailable": unavailable(err),
	})
}

// GetWatch returns the status of the watched stars
func (h *Handler) GetWatch(w http.ResponseWriter, r *http.Request) {
	watch, err := h.engine.Watch(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"watch":       watch,
		"unavailable": unavailable(err),
	})
}

type gameView struct {
	TeamID     string `json:"team_id"`
	Team       string `json:"team"`
	OpponentID string `json:"opponent_id"`
	Opponent   string `json:"opponent"`
}

// GetSchedule returns today's opponent index and a per-team listing
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.engine.Schedule(r.Context())

	games := make([]gameView, 0, len(sched))
	for _, id := range sortedKeys(sched) {
		opp := sched[id]
		games = append(games, gameView{TeamID: id, Team: abbreviation(id), OpponentID: opp, Opponent: abbreviation(opp)})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule":    sched,
		"teams":       games,
		"games":       sched.Games(),
		"unavailable": unavailable(err),
	})
}

// GetDefense returns defensive ratings, worst first. ?worst=n keeps the
// n most generous defenses
func (h *Handler) GetDefense(w http.ResponseWriter, r *http.Request) {
	table, err := h.engine.Defense(r.Context())

	n := len(table)
	if raw := r.URL.Query().Get("worst"); raw != "" {
		v, convErr := strconv.Atoi(raw)
		if convErr != nil || v < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'worst' parameter", convErr)
			return
		}
		n = v
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"defense":     table.Worst(n),
		"unavailable": unavailable(err),
	})
}

// SearchPlayers searches the roster by name
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter 'q'", nil)
		return
	}
	limit, ok := parseLimit(w, r, 10)
	if !ok {
		return
	}

	matches, err := h.engine.Search(r.Context(), query, limit)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players":     matches,
		"unavailable": unavailable(err),
	})
}

// GetDeepDive compares one player's recent PRA with the season
func (h *Handler) GetDeepDive(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter 'name'", nil)
		return
	}

	dive, err := h.engine.DeepDive(r.Context(), name)
	switch {
	case errors.Is(err, engine.ErrPlayerNotFound), errors.Is(err, engine.ErrNoGames):
		respondError(w, http.StatusNotFound, "No season data for player", err)
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "Player data unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, dive)
}

// GetAssistantContext returns the payload handed to the assistant
func (h *Handler) GetAssistantContext(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, assistant.FromSnapshot(h.engine.Snapshot(r.Context())))
}

type chatRequest struct {
	Question string `json:"question"`
}

// PostAssistantChat answers a question from the current snapshot
func (h *Handler) PostAssistantChat(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respondError(w, http.StatusServiceUnavailable, "Assistant is not configured", nil)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "Missing 'question'", nil)
		return
	}

	payload := assistant.FromSnapshot(h.engine.Snapshot(r.Context()))
	answer, err := h.assistant.Ask(r.Context(), payload, req.Question)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Assistant request failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"answer":      answer,
		"unavailable": payload.Unavailable,
	})
}

// RefreshCache drops every cached value
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear shared cache", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"message": "Cache cleared"})
}

func unavailable(err error) []string {
	if sources := engine.Unavailable(err); sources != nil {
		return sources
	}
	return []string{}
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter", err)
		return 0, false
	}
	return v, true
}

func abbreviation(teamID string) string {
	if t, ok := teams.ByID(teamID); ok {
		return t.Abbreviation
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
