package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/testhelpers"
)

// uniqueEntityID isolates change log tests from each other; listings filter
// on it so entries written by other tests stay invisible.
func uniqueEntityID() int64 {
	return time.Now().UnixNano()
}

func testActor(name string) models.ActorSnapshot {
	return models.ActorSnapshot{
		UserID: 1,
		Name:   name,
		Email:  name + "@example.com",
		Role:   models.RoleSuperadmin,
	}
}

func TestChangeLogRepository_CreateAndList(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewChangeLogRepository(tdb.DB)
	ctx := context.Background()

	entityID := uniqueEntityID()
	before := json.RawMessage(`{"schema_version":1,"id":5,"status":"new","manager_id":null}`)
	after := json.RawMessage(`{"schema_version":1,"id":5,"status":"new","manager_id":7}`)

	entry := &models.ChangeLogEntry{
		EntityKind: models.EntityKindOrder,
		EntityID:   entityID,
		Actions:    []models.ChangeAction{models.ActionAssign},
		Actor:      testActor("root"),
		Before:     before,
		After:      after,
		Message:    "order ORD-5 assigned to root",
		Related:    []models.EntityRef{{Kind: models.EntityKindUser, ID: 7}},
	}
	require.NoError(t, repo.Create(ctx, entry))
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	entries, total, err := repo.ListByKind(ctx, models.EntityKindOrder, models.ChangeLogFilters{EntityID: &entityID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, models.EntityKindOrder, got.EntityKind)
	assert.Equal(t, entityID, got.EntityID)
	assert.Equal(t, []models.ChangeAction{models.ActionAssign}, got.Actions)
	assert.Equal(t, "root", got.Actor.Name)
	assert.Equal(t, models.RoleSuperadmin, got.Actor.Role)
	assert.JSONEq(t, string(before), string(got.Before))
	assert.JSONEq(t, string(after), string(got.After))
	assert.Equal(t, "order ORD-5 assigned to root", got.Message)
	require.Len(t, got.Related, 1)
	assert.Equal(t, models.EntityKindUser, got.Related[0].Kind)
	assert.Equal(t, int64(7), got.Related[0].ID)
}

func TestChangeLogRepository_NullSnapshots(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewChangeLogRepository(tdb.DB)
	ctx := context.Background()

	entityID := uniqueEntityID()
	entry := &models.ChangeLogEntry{
		EntityKind: models.EntityKindUser,
		EntityID:   entityID,
		Actions:    []models.ChangeAction{models.ActionCreate},
		Actor:      testActor("root"),
		After:      json.RawMessage(`{"schema_version":1,"id":9}`),
		Message:    "created user",
	}
	require.NoError(t, repo.Create(ctx, entry))

	entries, _, err := repo.ListByKind(ctx, models.EntityKindUser, models.ChangeLogFilters{EntityID: &entityID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Before)
	assert.NotEmpty(t, entries[0].After)
	assert.Empty(t, entries[0].Related)
}

func TestChangeLogRepository_Filters(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewChangeLogRepository(tdb.DB)
	ctx := context.Background()

	entityID := uniqueEntityID()
	seed := []struct {
		action models.ChangeAction
		actor  string
	}{
		{models.ActionCreate, "alice"},
		{models.ActionAssign, "bob"},
		{models.ActionChangeStatus, "bob"},
	}
	for i, s := range seed {
		entry := &models.ChangeLogEntry{
			EntityKind: models.EntityKindOrder,
			EntityID:   entityID,
			Actions:    []models.ChangeAction{s.action},
			Actor:      testActor(s.actor),
			After:      json.RawMessage(`{"schema_version":1}`),
			Message:    fmt.Sprintf("entry %d", i),
		}
		require.NoError(t, repo.Create(ctx, entry))
		time.Sleep(5 * time.Millisecond)
	}

	// Action filter.
	entries, total, err := repo.ListByKind(ctx, models.EntityKindOrder, models.ChangeLogFilters{
		EntityID: &entityID,
		Action:   models.ActionAssign,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry 1", entries[0].Message)

	// Case-insensitive actor match on name or email.
	_, total, err = repo.ListByKind(ctx, models.EntityKindOrder, models.ChangeLogFilters{
		EntityID:   &entityID,
		ActorQuery: "BOB",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Newest first.
	entries, total, err = repo.ListByKind(ctx, models.EntityKindOrder, models.ChangeLogFilters{EntityID: &entityID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 2", entries[0].Message)
	assert.Equal(t, "entry 0", entries[2].Message)
}

func TestChangeLogRepository_Pagination(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewChangeLogRepository(tdb.DB)
	ctx := context.Background()

	entityID := uniqueEntityID()
	for i := 0; i < 5; i++ {
		entry := &models.ChangeLogEntry{
			EntityKind: models.EntityKindBooking,
			EntityID:   entityID,
			Actions:    []models.ChangeAction{models.ActionUpdate},
			Actor:      testActor("root"),
			After:      json.RawMessage(`{"schema_version":1}`),
			Message:    fmt.Sprintf("entry %d", i),
		}
		require.NoError(t, repo.Create(ctx, entry))
		time.Sleep(5 * time.Millisecond)
	}

	page1, total, err := repo.ListByKind(ctx, models.EntityKindBooking, models.ChangeLogFilters{
		EntityID: &entityID,
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "entry 4", page1[0].Message)

	page3, total, err := repo.ListByKind(ctx, models.EntityKindBooking, models.ChangeLogFilters{
		EntityID: &entityID,
		Page:     3,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "entry 0", page3[0].Message)
}

func TestChangeLogRepository_SinceUntil(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	repo := NewChangeLogRepository(tdb.DB)
	ctx := context.Background()

	entityID := uniqueEntityID()
	entry := &models.ChangeLogEntry{
		EntityKind: models.EntityKindCategory,
		EntityID:   entityID,
		Actions:    []models.ChangeAction{models.ActionCreate},
		Actor:      testActor("root"),
		After:      json.RawMessage(`{"schema_version":1}`),
		Message:    "created category",
	}
	require.NoError(t, repo.Create(ctx, entry))

	past := entry.CreatedAt.Add(-time.Minute)
	future := entry.CreatedAt.Add(time.Minute)

	_, total, err := repo.ListByKind(ctx, models.EntityKindCategory, models.ChangeLogFilters{
		EntityID: &entityID,
		Since:    &past,
		Until:    &future,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = repo.ListByKind(ctx, models.EntityKindCategory, models.ChangeLogFilters{
		EntityID: &entityID,
		Since:    &future,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
