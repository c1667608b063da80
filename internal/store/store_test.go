package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_NoDatabaseIsNoop(t *testing.T) {
	s, err := New("", PGPoolConfig{}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	runID := uuid.New()
	assert.NoError(t, s.RecordRunStart(ctx, runID, "active_assets", "all"))
	assert.NoError(t, s.RecordRunFinish(ctx, runID, 10, nil))
	assert.NoError(t, s.HealthCheck(ctx))
	assert.NoError(t, s.Close())
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not-a-url\x00", PGPoolConfig{}, nil)
	require.Error(t, err)
}
