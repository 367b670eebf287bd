package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// drainTimeout bounds how long Close waits for queued events to be flushed.
const drainTimeout = 5 * time.Second

// NATSPublisher publishes JSON-encoded events to NATS subjects named after the topic.
type NATSPublisher struct {
	conn   *nats.Conn
	closed chan struct{}
}

// NewNATSPublisher connects to url with reconnects enabled.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	p := &NATSPublisher{closed: make(chan struct{})}
	var once sync.Once

	defaults := []nats.Option{
		nats.Name("dashboard-settings"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DrainTimeout(drainTimeout),
	}
	opts = append(defaults, opts...)
	// Registered last so a caller option cannot replace it.
	opts = append(opts, nats.ClosedHandler(func(*nats.Conn) {
		once.Do(func() { close(p.closed) })
	}))

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	p.conn = nc
	return p, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending messages and returns once the connection is closed,
// or after drainTimeout plus a grace period.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	select {
	case <-p.closed:
		return nil
	case <-time.After(drainTimeout + time.Second):
		p.conn.Close()
		return fmt.Errorf("NATS connection did not close within %s", drainTimeout)
	}
}
