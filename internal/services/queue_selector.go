package services

import (
	"context"
	"errors"

	"github.com/terraincognita07/ecgscan/internal/models"
	"gorm.io/gorm"
)

type PendingQueueRepository interface {
	OldestPending(ctx context.Context, priority models.Priority) (models.EcgRecord, error)
	CountPending(ctx context.Context, priority models.Priority) (int64, error)
}

type QueueCount struct {
	Priority models.Priority `json:"priority"`
	Pending  int64           `json:"pending"`
}

// QueueSelector serves each priority class as an independent FIFO. Classes
// are never blended; the physician picks which queue to drain.
type QueueSelector struct {
	records  PendingQueueRepository
	profiles ProfileLookup
}

func NewQueueSelector(records PendingQueueRepository, profiles ProfileLookup) *QueueSelector {
	return &QueueSelector{records: records, profiles: profiles}
}

// NextPending returns the oldest pending record of the class, or nil when the
// queue is empty.
func (selector *QueueSelector) NextPending(ctx context.Context, identity *Identity, rawPriority string) (*models.EcgRecord, error) {
	if err := RequireRole(identity, models.RolePhysician); err != nil {
		return nil, err
	}
	priority, ok := models.ParsePriority(rawPriority)
	if !ok {
		return nil, NewValidationError("priority", "must be Urgent or Elective")
	}

	record, err := selector.records.OldestPending(ctx, priority)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, transportError("select next pending record", err)
	}

	if selector.profiles != nil {
		records := []models.EcgRecord{record}
		EnrichRecords(ctx, selector.profiles, records)
		record = records[0]
	}
	return &record, nil
}

func (selector *QueueSelector) Counts(ctx context.Context, identity *Identity) ([]QueueCount, error) {
	if err := RequireRole(identity, models.RolePhysician); err != nil {
		return nil, err
	}

	counts := make([]QueueCount, 0, len(models.Priorities))
	for _, priority := range models.Priorities {
		pending, err := selector.records.CountPending(ctx, priority)
		if err != nil {
			return nil, transportError("count pending records", err)
		}
		counts = append(counts, QueueCount{Priority: priority, Pending: pending})
	}
	return counts, nil
}
