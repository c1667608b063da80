// Package publisher emits report run lifecycle events to NATS JetStream.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/connect-reports/internal/metrics"
	"github.com/Checker-Finance/connect-reports/pkg/logger"
)

// Envelope is the canonical event wrapper published to NATS.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// RunEvent is the payload of report run lifecycle events.
type RunEvent struct {
	RunID    uuid.UUID `json:"run_id"`
	Report   string    `json:"report"`
	Rows     int       `json:"rows,omitempty"`
	Duration float64   `json:"duration_seconds,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// jetStream is the slice of nats.JetStreamContext the publisher uses.
type jetStream interface {
	PublishMsg(msg *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher wraps a NATS connection and provides helpers for publishing
// report events.
type Publisher struct {
	nc      *nats.Conn
	js      jetStream
	subject string
	service string
}

// New creates a new Publisher with JetStream enabled if available.
func New(nc *nats.Conn, subject, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		subject: subject,
		service: service,
	}, nil
}

// PublishEnvelope serializes and publishes an event envelope to NATS.
func (p *Publisher) PublishEnvelope(ctx context.Context, subject string, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		logger.S().Errorw("publisher.marshal_failed",
			"subject", subject,
			"event_type", env.EventType,
			"error", err,
		)
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	if subject == "" {
		subject = p.subject
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	start := time.Now()
	_, err = p.js.PublishMsg(msg)
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, subject)

	if err != nil {
		logger.S().Errorw("publisher.publish_failed",
			"subject", subject,
			"event_type", env.EventType,
			"error", err,
		)
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	logger.S().Infow("publisher.publish_success",
		"subject", subject,
		"event_type", env.EventType,
	)

	metrics.IncNATSMessage(subject, "ok")
	return nil
}

// PublishRunStarted emits a report.run.started event for the given run.
func (p *Publisher) PublishRunStarted(ctx context.Context, runID uuid.UUID, report string) error {
	return p.publishRun(ctx, "report.run.started", RunEvent{RunID: runID, Report: report})
}

// PublishRunCompleted emits a report.run.completed event with row count and duration.
func (p *Publisher) PublishRunCompleted(ctx context.Context, runID uuid.UUID, report string, rows int, elapsed time.Duration) error {
	return p.publishRun(ctx, "report.run.completed", RunEvent{
		RunID:    runID,
		Report:   report,
		Rows:     rows,
		Duration: elapsed.Seconds(),
	})
}

// PublishRunFailed emits a report.run.failed event carrying the failure reason.
func (p *Publisher) PublishRunFailed(ctx context.Context, runID uuid.UUID, report string, runErr error) error {
	return p.publishRun(ctx, "report.run.failed", RunEvent{
		RunID:  runID,
		Report: report,
		Error:  runErr.Error(),
	})
}

func (p *Publisher) publishRun(ctx context.Context, eventType string, evt RunEvent) error {
	env := &Envelope{
		ID:            uuid.New(),
		CorrelationID: evt.RunID,
		Topic:         p.subject,
		EventType:     eventType,
		Version:       "1.0.0",
		Timestamp:     time.Now().UTC(),
	}

	data, _ := json.Marshal(evt)
	env.Payload = data

	return p.PublishEnvelope(ctx, p.subject, env)
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}
