package interfaces

// EventPublisher pushes domain events to whatever transport the
// deployment wires in. Publishing is best-effort from the ledger's point
// of view: a failed publish never fails the transaction.
type EventPublisher interface {
	Publish(topic string, event any) error
}
