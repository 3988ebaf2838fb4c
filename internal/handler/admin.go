package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyloop/progression/internal/domain"
	"github.com/studyloop/progression/internal/repository"
)

// AdminHandler serves the milestone content authoring endpoints.
type AdminHandler struct {
	pool       *pgxpool.Pool
	milestones repository.MilestoneRepository
}

func NewAdminHandler(pool *pgxpool.Pool, milestones repository.MilestoneRepository) *AdminHandler {
	return &AdminHandler{pool: pool, milestones: milestones}
}

// ListGroups returns the full milestone catalog, ladders included.
// GET /admin/milestone-groups
func (h *AdminHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.milestones.ListGroups(r.Context(), h.pool)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"milestone_groups": groups})
}

type createGroupRequest struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	OrderNumber  int    `json:"order_number"`
	IsRepeatable bool   `json:"is_repeatable"`
	CounterKind  string `json:"counter_kind"`
}

// CreateGroup authors a new milestone group.
// POST /admin/milestone-groups
func (h *AdminHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Slug == "" || req.Title == "" {
		RespondError(w, domain.ErrValidation("slug and title are required"))
		return
	}
	if !req.IsRepeatable && req.CounterKind == "" {
		RespondError(w, domain.ErrValidation("counter_kind is required for non-repeatable groups"))
		return
	}

	group := &domain.MilestoneGroup{
		ID:           uuid.New(),
		Slug:         req.Slug,
		Title:        req.Title,
		OrderNumber:  req.OrderNumber,
		IsRepeatable: req.IsRepeatable,
		CounterKind:  req.CounterKind,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.milestones.CreateGroup(r.Context(), h.pool, group); err != nil {
		if isUniqueViolation(err) {
			RespondError(w, domain.ErrValidation("group slug already exists"))
			return
		}
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, group)
}

type createMilestoneRequest struct {
	Position    int     `json:"position"`
	TargetCount int     `json:"target_count"`
	XPReward    int     `json:"xp_reward"`
	TitleReward *string `json:"title_reward,omitempty"`
}

// CreateMilestone appends a milestone to a group's ladder.
// POST /admin/milestone-groups/{id}/milestones
func (h *AdminHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid group id"))
		return
	}

	var req createMilestoneRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.TargetCount <= 0 {
		RespondError(w, domain.ErrValidation("target_count must be positive"))
		return
	}
	if req.XPReward < 0 {
		RespondError(w, domain.ErrValidation("xp_reward must not be negative"))
		return
	}
	if req.Position < 0 {
		RespondError(w, domain.ErrValidation("position must not be negative"))
		return
	}

	milestone := &domain.Milestone{
		ID:          uuid.New(),
		GroupID:     groupID,
		Position:    req.Position,
		TargetCount: req.TargetCount,
		XPReward:    req.XPReward,
		TitleReward: req.TitleReward,
	}
	if err := h.milestones.CreateMilestone(r.Context(), h.pool, milestone); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				RespondError(w, domain.ErrValidation("position already taken in group"))
				return
			case "23503":
				RespondError(w, domain.ErrNotFound("milestone_group", groupID.String()))
				return
			}
		}
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, milestone)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
