package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the NATS subject prefix for pipeline events; the
// event type is appended (e.g. "pageflow.events.run.started").
const DefaultSubjectPrefix = "pageflow.events"

// NATSPublisher mirrors bus events onto a NATS subject for external
// consumers. Publish failures are logged and dropped; event delivery is
// best-effort and never fails a build.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// NewNATSPublisher connects to url and returns a publisher. An empty
// subjectPrefix uses DefaultSubjectPrefix.
func NewNATSPublisher(url, subjectPrefix string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("NATS event publisher connected", "url", url, "subject", subjectPrefix)
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix, logger: logger}, nil
}

// Handle publishes one event; subscribe it on a Bus.
func (p *NATSPublisher) Handle(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Warn("event marshal failed", "type", e.Type, "error", err)
		return
	}
	subject := p.subjectPrefix + "." + e.Type
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", "error", err)
	}
}
