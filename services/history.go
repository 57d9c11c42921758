package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

// DispatchHistory is the append-only audit log and idempotency lookup. The
// orchestrator checks HasFired before rendering or sending; Record must be
// atomic per tuple so two sweeps racing on the same tuple cannot both end up
// sent (the in-memory store holds a lock across lookup+insert, the gorm
// store leans on a partial unique index).
type DispatchHistory interface {
	// HasFired reports whether a sent record exists for the tuple.
	HasFired(ctx context.Context, targetID, ruleID string, channel models.DeliveryChannel) (bool, error)
	// Seen reports whether any record with the given status exists for the tuple.
	Seen(ctx context.Context, targetID, ruleID string, channel models.DeliveryChannel, status models.DispatchStatus) (bool, error)
	// Record appends a record. Recording a second sent record for a tuple
	// returns ErrAlreadyFired and leaves history unchanged.
	Record(ctx context.Context, rec *models.ReminderRecord) error
	// Query returns records fired within [from, to], newest first.
	Query(ctx context.Context, from, to time.Time) ([]models.ReminderRecord, error)
}

type tupleKey struct {
	TargetID string
	RuleID   string
	Channel  models.DeliveryChannel
}

// MemoryHistory is the map-backed DispatchHistory used in tests and DB-less
// operation.
type MemoryHistory struct {
	mu      sync.Mutex
	records []models.ReminderRecord
	byTuple map[tupleKey]map[models.DispatchStatus]int
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{byTuple: make(map[tupleKey]map[models.DispatchStatus]int)}
}

func (h *MemoryHistory) HasFired(ctx context.Context, targetID, ruleID string, channel models.DeliveryChannel) (bool, error) {
	return h.Seen(ctx, targetID, ruleID, channel, models.StatusSent)
}

func (h *MemoryHistory) Seen(_ context.Context, targetID, ruleID string, channel models.DeliveryChannel, status models.DispatchStatus) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.byTuple[tupleKey{targetID, ruleID, channel}][status] > 0, nil
}

func (h *MemoryHistory) Record(_ context.Context, rec *models.ReminderRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := tupleKey{rec.TargetID, rec.RuleID, rec.Channel}
	if rec.Status == models.StatusSent && h.byTuple[key][models.StatusSent] > 0 {
		return ErrAlreadyFired
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	h.records = append(h.records, *rec)
	if h.byTuple[key] == nil {
		h.byTuple[key] = make(map[models.DispatchStatus]int)
	}
	h.byTuple[key][rec.Status]++
	return nil
}

func (h *MemoryHistory) Query(_ context.Context, from, to time.Time) ([]models.ReminderRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []models.ReminderRecord
	for _, rec := range h.records {
		if rec.FiredAt.Before(from) || rec.FiredAt.After(to) {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FiredAt.After(out[j].FiredAt)
	})
	return out, nil
}

// Len returns the total number of records, all statuses included.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
