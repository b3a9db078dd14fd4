package kafka

import "time"

// CartActivityEvent represents a cart mutation published for downstream
// analytics (abandoned-cart tracking, merge auditing).
type CartActivityEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	GuestID   string    `json:"guest_id"`
	UserID    string    `json:"user_id,omitempty"`
	Reason    string    `json:"reason"`
	ItemCount int       `json:"item_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeCartChanged    = "cart.changed"
	EventTypeCartReconciled = "cart.reconciled"
)

// Kafka topics
const (
	TopicCartActivity = "cart-activity"
)
