package events

import "github.com/minibank/ledger/internal/interfaces"

// NoopPublisher discards every event. It is the default publisher when no
// broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(topic string, event any) error {
	return nil
}

var _ interfaces.EventPublisher = NoopPublisher{}
