package gormaudit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sopflow/pkg/adapters/gormaudit"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/aretw0/sopflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.AuditLog = (*gormaudit.Log)(nil)

func openLog(t *testing.T) *gormaudit.Log {
	t.Helper()
	log, err := gormaudit.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestGormAudit_Contract(t *testing.T) {
	ports.RunAuditLogContract(t, openLog(t))
}

func TestGormAudit_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()
	ts := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	log, err := gormaudit.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, "expense", domain.AuditEntry{
		ID:        "a1",
		Timestamp: ts,
		ObjectID:  "case-1",
		Action:    "Approve",
		Actor:     "bo",
	}))
	require.NoError(t, log.Close())

	reopened, err := gormaudit.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.ListByObject(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Approve", entries[0].Action)
	assert.Equal(t, "bo", entries[0].Actor)
	assert.True(t, ts.Equal(entries[0].Timestamp))
	assert.Empty(t, entries[0].DocumentsAttached)
}

func TestGormAudit_DuplicateIDRejected(t *testing.T) {
	log := openLog(t)
	ctx := context.Background()
	entry := domain.AuditEntry{ID: "same", ObjectID: "case"}

	require.NoError(t, log.Append(ctx, "d", entry))
	assert.Error(t, log.Append(ctx, "d", entry))
}
