package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractObject builds an object that has taken one transition.
func contractObject(id string) *domain.Object {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Object{
		ID:            id,
		DefinitionID:  "contract",
		Name:          "Contract " + id,
		Color:         "#336699",
		CurrentNodeID: "draft",
		Path: []domain.PathEntry{
			{NodeID: "start", Timestamp: now},
			{NodeID: "draft", EdgeID: "begin", Timestamp: now.Add(time.Minute)},
		},
		Audit: []domain.AuditEntry{
			{
				ID:                id + "-a1",
				Timestamp:         now.Add(time.Minute),
				ObjectID:          id,
				ObjectName:        "Contract " + id,
				FromNodeID:        "start",
				FromStatusLabel:   "Start",
				Action:            "Begin",
				ToNodeID:          "draft",
				ToStatusLabel:     "Draft",
				FieldValues:       map[string]any{"Reason": "kickoff"},
				Actor:             "ana",
				Role:              "editor",
				DocumentsAttached: []string{"Brief"},
				Notifications: []domain.NotificationEvent{{
					Kind:      domain.NotificationNodeEnter,
					EventKey:  string(domain.OnEnter),
					Enabled:   true,
					Channels:  []domain.Channel{domain.ChannelEmail},
					Recipient: domain.RecipientOwner,
					Template:  "{objectName} entered {toStatus}",
					Context:   map[string]string{domain.ContextKeyNodeLabel: "Draft"},
				}},
			},
		},
		CreatedAt: now,
	}
}

// RunObjectStoreContract runs a suite of tests to verify that an ObjectStore implementation
// adheres to the defined interface contract.
func RunObjectStoreContract(t *testing.T, store ObjectStore) {
	ctx := context.Background()
	objectID := "contract-object-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		obj := contractObject(objectID)

		err := store.Save(ctx, obj)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, objectID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, obj.ID, loaded.ID)
		assert.Equal(t, obj.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, obj.Color, loaded.Color)
		assert.Len(t, loaded.Path, 2)
		assert.Equal(t, "begin", loaded.Path[1].EdgeID)
		assert.True(t, obj.CreatedAt.Equal(loaded.CreatedAt))
		require.Len(t, loaded.Audit, 1)
		assert.Equal(t, "Begin", loaded.Audit[0].Action)
		assert.Equal(t, []string{"Brief"}, loaded.Audit[0].DocumentsAttached)
		// JSON backends return decoded values; only check presence and string content.
		assert.Equal(t, "kickoff", loaded.Audit[0].FieldValues["Reason"])
		require.Len(t, loaded.Audit[0].Notifications, 1)
		assert.Equal(t, "Draft", loaded.Audit[0].Notifications[0].Context[domain.ContextKeyNodeLabel])
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, objectID)
		require.NoError(t, err)
		loaded.CurrentNodeID = "tampered"
		loaded.Path = append(loaded.Path, domain.PathEntry{NodeID: "tampered"})

		again, err := store.Load(ctx, objectID)
		require.NoError(t, err)
		assert.Equal(t, "draft", again.CurrentNodeID)
		assert.Len(t, again.Path, 2)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		obj := contractObject(objectID)
		obj.CurrentNodeID = "review"
		obj.IsComplete = true
		require.NoError(t, store.Save(ctx, obj))

		loaded, err := store.Load(ctx, objectID)
		require.NoError(t, err)
		assert.Equal(t, "review", loaded.CurrentNodeID)
		assert.True(t, loaded.IsComplete)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+objectID)
		assert.ErrorIs(t, err, domain.ErrObjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractObject(objectID)))

		err := store.Delete(ctx, objectID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, objectID)
		assert.ErrorIs(t, err, domain.ErrObjectNotFound, "Load after Delete should return ErrObjectNotFound")

		assert.NoError(t, store.Delete(ctx, objectID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := objectID + "-1"
		id2 := objectID + "-2"
		require.NoError(t, store.Save(ctx, contractObject(id1)))
		require.NoError(t, store.Save(ctx, contractObject(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunAuditLogContract verifies that an AuditLog implementation appends and
// returns entries in order.
func RunAuditLogContract(t *testing.T, log AuditLog) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")
	objA := "audit-a-" + suffix
	objB := "audit-b-" + suffix
	defID := "audit-def-" + suffix

	first := contractObject(objA).Audit[0]
	second := first.Clone()
	second.ID = objA + "-a2"
	second.Timestamp = first.Timestamp.Add(time.Hour)
	second.FromNodeID, second.ToNodeID = "draft", "done"
	second.Action = "Finish"
	other := contractObject(objB).Audit[0]

	t.Run("Append and List By Object", func(t *testing.T) {
		require.NoError(t, log.Append(ctx, defID, first))
		require.NoError(t, log.Append(ctx, defID, second, other))

		entries, err := log.ListByObject(ctx, objA)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, first.ID, entries[0].ID)
		assert.Equal(t, "Finish", entries[1].Action)
		assert.Equal(t, "kickoff", entries[0].FieldValues["Reason"])
		assert.Equal(t, []string{"Brief"}, entries[0].DocumentsAttached)
		assert.Len(t, entries[0].Notifications, 1)
		assert.True(t, first.Timestamp.Equal(entries[0].Timestamp))
	})

	t.Run("List By Definition", func(t *testing.T) {
		entries, err := log.ListByDefinition(ctx, defID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("Unknown Object", func(t *testing.T) {
		entries, err := log.ListByObject(ctx, "missing-"+suffix)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Append Nothing", func(t *testing.T) {
		assert.NoError(t, log.Append(ctx, defID))
	})
}

// RunDefinitionLoaderContract verifies that a loader returns the expected
// definitions and reports missing ones with domain.ErrDefinitionNotFound.
func RunDefinitionLoaderContract(t *testing.T, loader DefinitionLoader, expected map[string]*domain.Definition) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetDefinition", func(t *testing.T) {
		for id, want := range expected {
			got, err := loader.GetDefinition(ctx, id)
			require.NoError(t, err, "definition %s", id)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Name, got.Name)
			assert.Len(t, got.Nodes, len(want.Nodes))
			assert.Len(t, got.Edges, len(want.Edges))
		}
	})

	t.Run("GetDefinition_NotFound", func(t *testing.T) {
		_, err := loader.GetDefinition(ctx, "non-existent-definition")
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("ListDefinitions", func(t *testing.T) {
		ids, err := loader.ListDefinitions(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, len(expected))
		for id := range expected {
			assert.Contains(t, ids, id)
		}
		assert.IsIncreasing(t, ids)
	})
}

// RunLockerContract verifies mutual exclusion for a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Blocks While Held", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, 5*time.Second)
		assert.Error(t, err, "second Lock should time out while the first holder is active")

		require.NoError(t, unlock(ctx))
	})

	t.Run("Serializes Holders", func(t *testing.T) {
		var (
			mu      sync.Mutex
			active  int
			maxSeen int
			wg      sync.WaitGroup
		)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key+"-serial", 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})
}
