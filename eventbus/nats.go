package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/taskweave/swarmcore/core"
)

// NATSPublisher publishes orchestration events to NATS subjects as JSON.
// It implements core.EventSink.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish marshals the event and publishes it to its subject.
func (p *NATSPublisher) Publish(ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(TopicFor(ev.Type), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Flush waits for buffered publishes to reach the server.
func (p *NATSPublisher) Flush() error { return p.conn.Flush() }

// Close drains and closes the connection.
func (p *NATSPublisher) Close() { p.conn.Close() }

// Subscribe registers a handler for a subject; exposed so embedding
// processes (CLI, tests) can tail the event stream without a second client
// library.
func (p *NATSPublisher) Subscribe(subject string, handler func(msg *nats.Msg)) (*nats.Subscription, error) {
	return p.conn.Subscribe(subject, handler)
}

// FlushTimeout is like Flush but bounded.
func (p *NATSPublisher) FlushTimeout(d time.Duration) error { return p.conn.FlushTimeout(d) }
