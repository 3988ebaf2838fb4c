package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventProgressionCreated EventType = "progression.account.created"
	EventEnergyConsumed     EventType = "progression.energy.consumed"
	EventStreakRecorded     EventType = "progression.streak.recorded"
	EventMilestoneClaimed   EventType = "progression.milestone.claimed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateProgression AggregateType = "progression"
	AggregateMilestone   AggregateType = "milestone"
)

// OutboxDraft is the payload written to the event_outbox table. Drafts are
// inserted in the same transaction as the mutation they describe and
// published asynchronously by the outbox poller.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func newDraft(aggregate AggregateType, userID uuid.UUID, evt EventType, payload interface{}) OutboxDraft {
	raw, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: aggregate,
		AggregateID:   userID.String(),
		EventType:     evt,
		PartitionKey:  userID.String(),
		Payload:       raw,
		OccurredAt:    time.Now(),
	}
}

// NewProgressionCreatedEvent marks the bootstrap of a progression record.
func NewProgressionCreatedEvent(userID uuid.UUID, energyMax int) OutboxDraft {
	return newDraft(AggregateProgression, userID, EventProgressionCreated, map[string]interface{}{
		"user_id":    userID.String(),
		"energy_max": energyMax,
	})
}

// NewEnergyConsumedEvent records an energy spend.
func NewEnergyConsumedEvent(userID uuid.UUID, amount, remaining int) OutboxDraft {
	return newDraft(AggregateProgression, userID, EventEnergyConsumed, map[string]interface{}{
		"user_id":   userID.String(),
		"amount":    amount,
		"remaining": remaining,
	})
}

// NewStreakRecordedEvent records a counted activity day.
func NewStreakRecordedEvent(userID uuid.UUID, day LocalDate, count int) OutboxDraft {
	return newDraft(AggregateProgression, userID, EventStreakRecorded, map[string]interface{}{
		"user_id":      userID.String(),
		"date":         day.String(),
		"streak_count": count,
	})
}

// NewMilestoneClaimedEvent records a successful claim and its reward.
func NewMilestoneClaimedEvent(userID, milestoneID uuid.UUID, result ClaimResult) OutboxDraft {
	return newDraft(AggregateMilestone, userID, EventMilestoneClaimed, map[string]interface{}{
		"user_id":       userID.String(),
		"milestone_id":  milestoneID.String(),
		"xp_awarded":    result.XPAwarded,
		"title_awarded": result.TitleAwarded,
	})
}
