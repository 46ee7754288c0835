// Package repositories provides PostgreSQL data access for backoffice-engine.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brightmall/backoffice-engine/pkg/database"
	"github.com/brightmall/backoffice-engine/pkg/models"
)

// ChangeLogRepository provides data access for the append-only change log.
// There are deliberately no update or delete methods.
type ChangeLogRepository interface {
	// Create inserts a new change log entry and fills in its id/createdAt.
	Create(ctx context.Context, entry *models.ChangeLogEntry) error

	// ListByKind returns entries for an entity kind matching the filters,
	// ordered by created_at descending, plus the total match count.
	ListByKind(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error)
}

type changeLogRepository struct {
	db *database.DB
}

// NewChangeLogRepository creates a new ChangeLogRepository.
func NewChangeLogRepository(db *database.DB) ChangeLogRepository {
	return &changeLogRepository{db: db}
}

var _ ChangeLogRepository = (*changeLogRepository)(nil)

func (r *changeLogRepository) Create(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	actorJSON, err := json.Marshal(entry.Actor)
	if err != nil {
		return fmt.Errorf("failed to marshal actor snapshot: %w", err)
	}

	actions := make([]string, len(entry.Actions))
	for i, a := range entry.Actions {
		actions[i] = string(a)
	}

	var relatedJSON []byte
	if len(entry.Related) > 0 {
		relatedJSON, err = json.Marshal(entry.Related)
		if err != nil {
			return fmt.Errorf("failed to marshal related refs: %w", err)
		}
	}

	query := `
		INSERT INTO change_log (
			id, entity_kind, entity_id, actions, actor_snapshot,
			snapshot_before, snapshot_after, message, related_refs, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Querier(ctx).Exec(ctx, query,
		entry.ID,
		entry.EntityKind,
		entry.EntityID,
		actions,
		actorJSON,
		nullableJSON(entry.Before),
		nullableJSON(entry.After),
		entry.Message,
		relatedJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create change log entry: %w", err)
	}

	return nil
}

func (r *changeLogRepository) ListByKind(ctx context.Context, kind models.EntityKind, filters models.ChangeLogFilters) ([]*models.ChangeLogEntry, int, error) {
	where := "WHERE entity_kind = $1"
	args := []any{kind}

	if filters.Since != nil {
		args = append(args, *filters.Since)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filters.Until != nil {
		args = append(args, *filters.Until)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if filters.ActorQuery != "" {
		args = append(args, "%"+filters.ActorQuery+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (actor_snapshot->>'name' ILIKE $%d OR actor_snapshot->>'email' ILIKE $%d)", n, n)
	}
	if filters.Action != "" {
		args = append(args, string(filters.Action))
		where += fmt.Sprintf(" AND $%d = ANY(actions)", len(args))
	}
	if filters.EntityID != nil {
		args = append(args, *filters.EntityID)
		where += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}

	q := r.db.Querier(ctx)

	var total int
	countQuery := "SELECT COUNT(*) FROM change_log " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count change log entries: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}

	args = append(args, pageSize, (page-1)*pageSize)
	listQuery := fmt.Sprintf(`
		SELECT id, entity_kind, entity_id, actions, actor_snapshot,
		       snapshot_before, snapshot_after, message, related_refs, created_at
		FROM change_log
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query change log: %w", err)
	}
	defer rows.Close()

	var entries []*models.ChangeLogEntry
	for rows.Next() {
		var entry models.ChangeLogEntry
		var actions []string
		var actorJSON, relatedJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.EntityKind,
			&entry.EntityID,
			&actions,
			&actorJSON,
			&entry.Before,
			&entry.After,
			&entry.Message,
			&relatedJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan change log entry: %w", err)
		}

		entry.Actions = make([]models.ChangeAction, len(actions))
		for i, a := range actions {
			entry.Actions[i] = models.ChangeAction(a)
		}
		if err := json.Unmarshal(actorJSON, &entry.Actor); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal actor snapshot: %w", err)
		}
		if len(relatedJSON) > 0 {
			if err := json.Unmarshal(relatedJSON, &entry.Related); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal related refs: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating change log entries: %w", err)
	}

	return entries, total, nil
}

// nullableJSON maps an empty raw message to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
