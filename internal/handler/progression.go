package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/studyloop/progression/internal/auth"
	"github.com/studyloop/progression/internal/cache"
	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/engine"
)

// ProgressionHandler serves the player-facing progression endpoints.
type ProgressionHandler struct {
	engine          *engine.Engine
	leaderboard     *cache.Leaderboard
	leaderboardSize int
}

func NewProgressionHandler(eng *engine.Engine, lb *cache.Leaderboard, leaderboardSize int) *ProgressionHandler {
	return &ProgressionHandler{engine: eng, leaderboard: lb, leaderboardSize: leaderboardSize}
}

// GetMe returns the caller's full progression snapshot.
// GET /progression/me
func (h *ProgressionHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}

	snap, err := h.engine.GetSnapshot(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, snap)
}

type consumeEnergyRequest struct {
	Amount int `json:"amount"`
}

// ConsumeEnergy spends energy units for the caller.
// POST /progression/energy/consume
func (h *ProgressionHandler) ConsumeEnergy(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}

	var req consumeEnergyRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Amount == 0 {
		req.Amount = 1
	}

	view, err := h.engine.ConsumeEnergy(r.Context(), userID, req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, view)
}

type recordActivityRequest struct {
	LocalDate string `json:"local_date"`
}

// RecordActivity registers a completed learning activity for the caller's
// local calendar day and returns the updated streak.
// POST /progression/activity
func (h *ProgressionHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}

	var req recordActivityRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	day, err := domain.ParseLocalDate(req.LocalDate)
	if err != nil {
		RespondError(w, domain.ErrValidation("local_date must be YYYY-MM-DD"))
		return
	}

	view, err := h.engine.RecordActivity(r.Context(), userID, day)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, view)
}

// ListMilestones returns every milestone group with the caller's claim state.
// GET /progression/milestones
func (h *ProgressionHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}

	snap, err := h.engine.GetSnapshot(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"milestone_groups": snap.Groups,
	})
}

// ClaimMilestone claims a reached milestone's reward for the caller.
// POST /progression/milestones/{id}/claim
func (h *ProgressionHandler) ClaimMilestone(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}

	milestoneID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid milestone id"))
		return
	}

	result, err := h.engine.ClaimMilestone(r.Context(), userID, milestoneID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Leaderboard returns the top XP earners with the caller's own rank.
// GET /progression/leaderboard
func (h *ProgressionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondError(w, domain.ErrUnauthorized("missing user identity"))
		return
	}
	if h.leaderboard == nil {
		RespondError(w, domain.ErrInternal("leaderboard unavailable", nil))
		return
	}

	entries, err := h.leaderboard.Top(r.Context(), h.leaderboardSize)
	if err != nil {
		RespondError(w, domain.ErrInternal("leaderboard unavailable", err))
		return
	}
	rank, totalXP, err := h.leaderboard.Rank(r.Context(), userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("leaderboard unavailable", err))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":  entries,
		"my_rank":  rank,
		"my_total": totalXP,
	})
}
