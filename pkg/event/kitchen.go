package event

import "time"

const (
	// KitchenCommandsTopic carries status changes sent by a kitchen display.
	KitchenCommandsTopic = "till.kitchen.commands"

	EventKitchenStatusChanged = "kitchen.status_changed"

	KitchenCommandReady    = "ready"
	KitchenCommandComplete = "complete"
)

// KitchenCommand asks the till to move a kitchen ticket forward.
type KitchenCommand struct {
	Command  string    `json:"command"`
	OrderID  string    `json:"order_id"`
	Source   string    `json:"source,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

type KitchenStatusChangedEvent struct {
	Metadata
	OrderID                  string     `json:"order_id"`
	NewStatus                string     `json:"new_status"`
	PreviousStatus           string     `json:"previous_status"`
	ReadyAt                  *time.Time `json:"ready_at,omitempty"`
	PreparationTimeInSeconds *int64     `json:"preparation_time_in_seconds,omitempty"`
}
