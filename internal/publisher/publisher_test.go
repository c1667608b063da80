package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockJetStream struct {
	published []*nats.Msg
	fail      bool
}

func (m *mockJetStream) PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if m.fail {
		return nil, errors.New("mock publish error")
	}
	m.published = append(m.published, msg)
	return &nats.PubAck{Stream: "mock-stream"}, nil
}

func newTestPublisher(js jetStream) *Publisher {
	return &Publisher{
		js:      js,
		subject: "evt.reports.active_assets.v1",
		service: "connect-reports",
	}
}

func TestPublishRunCompleted(t *testing.T) {
	js := &mockJetStream{}
	p := newTestPublisher(js)
	runID := uuid.New()

	err := p.PublishRunCompleted(context.Background(), runID, "active_assets", 42, 3*time.Second)
	require.NoError(t, err)
	require.Len(t, js.published, 1)

	msg := js.published[0]
	assert.Equal(t, "evt.reports.active_assets.v1", msg.Subject)
	assert.Equal(t, "report.run.completed", msg.Header.Get("event_type"))
	assert.Equal(t, runID.String(), msg.Header.Get("correlation_id"))
	assert.Equal(t, "connect-reports", msg.Header.Get("service"))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, "report.run.completed", env.EventType)
	assert.Equal(t, runID, env.CorrelationID)

	var evt RunEvent
	require.NoError(t, json.Unmarshal(env.Payload, &evt))
	assert.Equal(t, "active_assets", evt.Report)
	assert.Equal(t, 42, evt.Rows)
	assert.InDelta(t, 3.0, evt.Duration, 0.001)
}

func TestPublishRunFailed(t *testing.T) {
	js := &mockJetStream{}
	p := newTestPublisher(js)

	err := p.PublishRunFailed(context.Background(), uuid.New(), "active_assets", errors.New("upstream 502"))
	require.NoError(t, err)
	require.Len(t, js.published, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal(js.published[0].Data, &env))
	var evt RunEvent
	require.NoError(t, json.Unmarshal(env.Payload, &evt))
	assert.Equal(t, "upstream 502", evt.Error)
}

func TestPublishEnvelope_PublishError(t *testing.T) {
	p := newTestPublisher(&mockJetStream{fail: true})

	err := p.PublishRunStarted(context.Background(), uuid.New(), "active_assets")
	require.Error(t, err)
}
