package linkcheck

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// BrokenLinkEvent is published for each broken link so downstream consumers
// (issue filers, dashboards) can react without re-running the check.
type BrokenLinkEvent struct {
	URL        string    `json:"url"`
	Status     int       `json:"status"` // 0 for non-HTTP failures
	Error      string    `json:"error"`
	IsInternal bool      `json:"is_internal"`
	SourcePage string    `json:"source_page"` // rendered page the link appeared on
	LinkText   string    `json:"link_text,omitempty"`
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers broken-link events. A nil *NATSPublisher is a valid
// no-op publisher, so callers never branch on configuration.
type Publisher interface {
	PublishBrokenLink(event *BrokenLinkEvent) error
	Close()
}

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS. An empty URL disables publication and
// returns a nil publisher, which all methods tolerate.
func NewNATSPublisher(natsURL, subject string) (*NATSPublisher, error) {
	if natsURL == "" {
		return nil, nil
	}
	conn, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("NATS broken-link publisher connected", "url", natsURL, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// PublishBrokenLink sends one event. Publishing is best effort; a NATS
// outage never fails a check run.
func (p *NATSPublisher) PublishBrokenLink(event *BrokenLinkEvent) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal broken-link event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish broken-link event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p == nil {
		return
	}
	_ = p.conn.Drain()
}
