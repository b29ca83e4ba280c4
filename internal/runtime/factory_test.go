package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateObject(t *testing.T) {
	engine := newTestEngine()

	obj, err := engine.CreateObject(context.Background(), reviewFlow(), "Invoice 42", "#ff0000")
	require.NoError(t, err)

	assert.Equal(t, "id-1", obj.ID)
	assert.Equal(t, "review", obj.DefinitionID)
	assert.Equal(t, "Invoice 42", obj.Name)
	assert.Equal(t, "#ff0000", obj.Color)
	assert.Equal(t, "S", obj.CurrentNodeID)
	assert.False(t, obj.IsComplete)
	assert.Empty(t, obj.Audit)
	assert.Equal(t, fixedNow, obj.CreatedAt)
	require.Len(t, obj.Path, 1)
	assert.Equal(t, domain.PathEntry{NodeID: "S", Timestamp: fixedNow}, obj.Path[0])
}

func TestCreateObject_NoStartNode(t *testing.T) {
	engine := newTestEngine()
	def := reviewFlow()
	def.Nodes[0].Kind = domain.NodeKindStatus

	obj, err := engine.CreateObject(context.Background(), def, "x", "")
	require.Error(t, err)
	assert.Nil(t, obj)

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "Start node")
	assert.ErrorIs(t, err, domain.ErrNoStartNode)
}

func TestCreateObject_Hook(t *testing.T) {
	var got *domain.ObjectEvent
	engine := newTestEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnObjectCreated: func(_ context.Context, e *domain.ObjectEvent) { got = e },
	}))

	obj, err := engine.CreateObject(context.Background(), reviewFlow(), "x", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.EventObjectCreated, got.Type)
	assert.Equal(t, obj.ID, got.ObjectID)
	assert.Equal(t, "S", got.NodeID)
}
