package events

// Topic constants for domain events emitted by the billing service.
const (
	TopicOrderConfirmed = "order.confirmed"
	TopicCartCleared    = "cart.cleared"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{TopicOrderConfirmed, TopicCartCleared}
}
