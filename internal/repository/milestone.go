package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studyloop/progression/internal/domain"
)

type milestoneRepo struct{}

// NewMilestoneRepository returns a pgx-backed MilestoneRepository.
func NewMilestoneRepository() MilestoneRepository {
	return &milestoneRepo{}
}

func (r *milestoneRepo) ListGroups(ctx context.Context, db DBTX) ([]domain.MilestoneGroup, error) {
	rows, err := db.Query(ctx, `
		SELECT id, slug, title, order_number, is_repeatable, counter_kind, created_at
		FROM milestone_groups
		ORDER BY order_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.MilestoneGroup
	byID := make(map[uuid.UUID]int)
	for rows.Next() {
		var g domain.MilestoneGroup
		if err := rows.Scan(&g.ID, &g.Slug, &g.Title, &g.OrderNumber, &g.IsRepeatable, &g.CounterKind, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		byID[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	mrows, err := db.Query(ctx, `
		SELECT id, group_id, position, target_count, xp_reward, title_reward
		FROM milestones
		ORDER BY group_id, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		m, err := scanMilestone(mrows)
		if err != nil {
			return nil, err
		}
		if idx, ok := byID[m.GroupID]; ok {
			groups[idx].Milestones = append(groups[idx].Milestones, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestones: %w", err)
	}

	return groups, nil
}

func (r *milestoneRepo) FindGroupByMilestone(ctx context.Context, db DBTX, milestoneID uuid.UUID) (*domain.MilestoneGroup, error) {
	var g domain.MilestoneGroup
	err := db.QueryRow(ctx, `
		SELECT g.id, g.slug, g.title, g.order_number, g.is_repeatable, g.counter_kind, g.created_at
		FROM milestone_groups g
		JOIN milestones m ON m.group_id = g.id
		WHERE m.id = $1`, milestoneID).
		Scan(&g.ID, &g.Slug, &g.Title, &g.OrderNumber, &g.IsRepeatable, &g.CounterKind, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find group by milestone: %w", err)
	}

	rows, err := db.Query(ctx, `
		SELECT id, group_id, position, target_count, xp_reward, title_reward
		FROM milestones
		WHERE group_id = $1
		ORDER BY position ASC`, g.ID)
	if err != nil {
		return nil, fmt.Errorf("query group milestones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		g.Milestones = append(g.Milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group milestones: %w", err)
	}

	return &g, nil
}

func (r *milestoneRepo) CreateGroup(ctx context.Context, db DBTX, g *domain.MilestoneGroup) error {
	_, err := db.Exec(ctx, `
		INSERT INTO milestone_groups (id, slug, title, order_number, is_repeatable, counter_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.Slug, g.Title, g.OrderNumber, g.IsRepeatable, g.CounterKind, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *milestoneRepo) CreateMilestone(ctx context.Context, db DBTX, m *domain.Milestone) error {
	_, err := db.Exec(ctx, `
		INSERT INTO milestones (id, group_id, position, target_count, xp_reward, title_reward)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.GroupID, m.Position, m.TargetCount, m.XPReward, m.TitleReward)
	if err != nil {
		return fmt.Errorf("insert milestone: %w", err)
	}
	return nil
}

func scanMilestone(rows pgx.Rows) (domain.Milestone, error) {
	var m domain.Milestone
	if err := rows.Scan(&m.ID, &m.GroupID, &m.Position, &m.TargetCount, &m.XPReward, &m.TitleReward); err != nil {
		return m, fmt.Errorf("scan milestone: %w", err)
	}
	return m, nil
}
