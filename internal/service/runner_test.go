package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/connect"
	"github.com/Checker-Finance/connect-reports/internal/report"
)

type memStore struct {
	started  []string // product labels
	finished []int    // row counts
	failed   []error
}

func (s *memStore) RecordRunStart(_ context.Context, _ uuid.UUID, _, product string) error {
	s.started = append(s.started, product)
	return nil
}

func (s *memStore) RecordRunFinish(_ context.Context, _ uuid.UUID, rows int, runErr error) error {
	s.finished = append(s.finished, rows)
	s.failed = append(s.failed, runErr)
	return nil
}

func (s *memStore) HealthCheck(context.Context) error { return nil }
func (s *memStore) Close() error                      { return nil }

type memSink struct {
	events []string
}

func (s *memSink) PublishRunStarted(context.Context, uuid.UUID, string) error {
	s.events = append(s.events, "started")
	return nil
}

func (s *memSink) PublishRunCompleted(context.Context, uuid.UUID, string, int, time.Duration) error {
	s.events = append(s.events, "completed")
	return nil
}

func (s *memSink) PublishRunFailed(context.Context, uuid.UUID, string, error) error {
	s.events = append(s.events, "failed")
	return nil
}

type runnerAPI struct {
	assets []connect.Asset
	err    error
}

func (a *runnerAPI) QueryAssets(context.Context, []connect.Filter) (connect.AssetCursor, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &runnerCursor{assets: a.assets}, nil
}

func (a *runnerAPI) FirstListing(context.Context, []connect.Filter) (*connect.Listing, error) {
	return nil, nil
}

func (a *runnerAPI) FirstPriceListVersion(context.Context, []connect.Filter) (*connect.PriceListVersion, error) {
	return nil, nil
}

func (a *runnerAPI) PricePoints(context.Context, string) ([]connect.PricePoint, error) {
	return nil, nil
}

type runnerCursor struct {
	assets  []connect.Asset
	idx     int
	current *connect.Asset
}

func (c *runnerCursor) Total() int { return len(c.assets) }

func (c *runnerCursor) Next(context.Context) bool {
	if c.idx >= len(c.assets) {
		return false
	}
	c.current = &c.assets[c.idx]
	c.idx++
	return true
}

func (c *runnerCursor) Asset() *connect.Asset { return c.current }
func (c *runnerCursor) Err() error            { return nil }

func sampleAsset(id string) connect.Asset {
	return connect.Asset{
		ID:     id,
		Events: connect.Events{Created: connect.EventAt{At: "2025-01-01T00:00:00Z"}},
		Params: []connect.Param{{ID: "action_type", Value: "purchase"}},
	}
}

func TestRunner_Run(t *testing.T) {
	st := &memStore{}
	sink := &memSink{}
	gen := report.NewGenerator(&runnerAPI{assets: []connect.Asset{sampleAsset("AS-1")}}, zap.NewNop())
	r := NewRunner(gen, st, sink, zap.NewNop())

	var buf bytes.Buffer
	rows, err := r.Run(context.Background(), report.Options{
		Product:      report.ProductFilter{All: true},
		RendererType: "csv",
	}, nil, &buf)

	require.NoError(t, err)
	assert.Equal(t, 2, rows, "header plus one asset")
	assert.Equal(t, []string{"all"}, st.started)
	assert.Equal(t, []int{2}, st.finished)
	assert.Equal(t, []error{nil}, st.failed)
	assert.Equal(t, []string{"started", "completed"}, sink.events)
	assert.True(t, strings.HasPrefix(buf.String(), "assetId,"))
}

func TestRunner_Run_GenerateError(t *testing.T) {
	st := &memStore{}
	sink := &memSink{}
	gen := report.NewGenerator(&runnerAPI{err: errors.New("upstream down")}, zap.NewNop())
	r := NewRunner(gen, st, sink, zap.NewNop())

	var buf bytes.Buffer
	_, err := r.Run(context.Background(), report.Options{Product: report.ProductFilter{All: true}}, nil, &buf)

	require.Error(t, err)
	require.Len(t, st.failed, 1)
	assert.Error(t, st.failed[0])
	assert.Equal(t, []string{"started", "failed"}, sink.events)
}

func TestRunner_Run_NilSink(t *testing.T) {
	gen := report.NewGenerator(&runnerAPI{}, zap.NewNop())
	r := NewRunner(gen, &memStore{}, nil, zap.NewNop())

	var buf bytes.Buffer
	_, err := r.Run(context.Background(), report.Options{
		Product:      report.ProductFilter{All: true},
		RendererType: "csv",
	}, nil, &buf)
	require.NoError(t, err)
}

func TestRunner_ProductLabel(t *testing.T) {
	assert.Equal(t, "all", productLabel(report.ProductFilter{All: true}))
	assert.Equal(t, "PRD-1,PRD-2", productLabel(report.ProductFilter{Choices: []string{"PRD-1", "PRD-2"}}))
}
