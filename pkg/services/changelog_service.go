// Package services contains the business logic for backoffice-engine.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/repositories"
)

// Change describes one entity's transition inside a logical operation.
// Before is nil for creations, After is nil for deletions. Snapshots are
// serialized at record time, so the caller may pass its live snapshot
// structs; later mutation of the originals cannot alter the written log.
type Change struct {
	Kind    models.EntityKind
	ID      int64
	Actions []models.ChangeAction
	Before  any
	After   any
	// Message overrides the synthesized default when non-empty.
	Message string
	Related []models.EntityRef
}

// ChangeLogService records entity state transitions as immutable change log
// entries. A cascade is expressed as an ordered list of changes - secondary
// entities first, the aggregate last - and recorded in one call so the
// caller can wrap mutation and log writes in a single transaction.
type ChangeLogService interface {
	// Record writes one entry per change, in order, and returns the
	// created entry ids. Callers running a multi-entity cascade must
	// invoke Record inside the same transaction as the mutation.
	Record(ctx context.Context, actor models.ActorSnapshot, changes ...Change) ([]uuid.UUID, error)

	// List returns entries for an entity kind with paging metadata.
	List(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error)
}

type changeLogService struct {
	repo   repositories.ChangeLogRepository
	logger *zap.Logger
}

// NewChangeLogService creates a new ChangeLogService.
func NewChangeLogService(repo repositories.ChangeLogRepository, logger *zap.Logger) ChangeLogService {
	return &changeLogService{
		repo:   repo,
		logger: logger.Named("changelog-service"),
	}
}

var _ ChangeLogService = (*changeLogService)(nil)

func (s *changeLogService) Record(ctx context.Context, actor models.ActorSnapshot, changes ...Change) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(changes))

	for _, change := range changes {
		entry, err := buildEntry(actor, change)
		if err != nil {
			return nil, err
		}

		if err := s.repo.Create(ctx, entry); err != nil {
			s.logger.Error("Failed to create change log entry",
				zap.String("entity_kind", string(change.Kind)),
				zap.Int64("entity_id", change.ID),
				zap.Error(err))
			return nil, fmt.Errorf("create change log entry: %w", err)
		}
		ids = append(ids, entry.ID)
	}

	return ids, nil
}

func (s *changeLogService) List(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error) {
	entries, total, err := s.repo.ListByKind(ctx, kind, filters)
	if err != nil {
		s.logger.Error("Failed to list change log entries",
			zap.String("entity_kind", string(kind)),
			zap.Error(err))
		return nil, 0, fmt.Errorf("list change log entries: %w", err)
	}
	return entries, total, nil
}

// buildEntry freezes the change into a log entry. Marshaling the snapshots
// here is what gives the deep-copy guarantee.
func buildEntry(actor models.ActorSnapshot, change Change) (*models.ChangeLogEntry, error) {
	if len(change.Actions) == 0 {
		return nil, fmt.Errorf("change for %s %d has no actions", change.Kind, change.ID)
	}

	before, err := marshalSnapshot(change.Before)
	if err != nil {
		return nil, fmt.Errorf("marshal before snapshot for %s %d: %w", change.Kind, change.ID, err)
	}
	after, err := marshalSnapshot(change.After)
	if err != nil {
		return nil, fmt.Errorf("marshal after snapshot for %s %d: %w", change.Kind, change.ID, err)
	}

	message := change.Message
	if message == "" {
		message = defaultMessage(change)
	}

	return &models.ChangeLogEntry{
		EntityKind: change.Kind,
		EntityID:   change.ID,
		Actions:    change.Actions,
		Actor:      actor,
		Before:     before,
		After:      after,
		Message:    message,
		Related:    change.Related,
	}, nil
}

func marshalSnapshot(snapshot any) (json.RawMessage, error) {
	if snapshot == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// defaultMessage synthesizes a human-readable message for a change.
// Updates enumerate the field-level diff; creations and deletions name the
// entity kind.
func defaultMessage(change Change) string {
	switch {
	case change.Before == nil && change.After != nil:
		return fmt.Sprintf("created %s", change.Kind)
	case change.Before != nil && change.After == nil:
		return fmt.Sprintf("deleted %s", change.Kind)
	}

	diff, err := DiffSnapshots(change.Before, change.After)
	if err != nil || len(diff) == 0 {
		return fmt.Sprintf("updated %s", change.Kind)
	}

	fields := make([]string, 0, len(diff))
	for field := range diff {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		fc := diff[field]
		parts = append(parts, fmt.Sprintf("%s changed from %s to %s",
			field, formatValue(fc.Old), formatValue(fc.New)))
	}
	return strings.Join(parts, "; ")
}

// DiffSnapshots computes the field-level difference between two snapshots
// of the same entity kind. Both are flattened through JSON so the diff
// works on the serialized representation that actually gets logged.
// The schema_version marker is not a domain field and is skipped.
func DiffSnapshots(before, after any) (map[string]models.FieldChange, error) {
	beforeFields, err := snapshotFields(before)
	if err != nil {
		return nil, fmt.Errorf("flatten before snapshot: %w", err)
	}
	afterFields, err := snapshotFields(after)
	if err != nil {
		return nil, fmt.Errorf("flatten after snapshot: %w", err)
	}

	diff := make(map[string]models.FieldChange)
	for field, oldVal := range beforeFields {
		newVal, ok := afterFields[field]
		if !ok {
			diff[field] = models.FieldChange{Old: oldVal, New: nil}
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			diff[field] = models.FieldChange{Old: oldVal, New: newVal}
		}
	}
	for field, newVal := range afterFields {
		if _, ok := beforeFields[field]; !ok {
			diff[field] = models.FieldChange{Old: nil, New: newVal}
		}
	}

	return diff, nil
}

func snapshotFields(snapshot any) (map[string]any, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "schema_version")
	return fields, nil
}

func formatValue(v any) string {
	if v == nil {
		return "none"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
