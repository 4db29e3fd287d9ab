package domain

import "time"

// HistoryEntry is an append-only audit record of a status transition.
// PreviousStatus is nil for the entry written at order creation; ActorID is nil for system transitions.
type HistoryEntry struct {
	ID             uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID        uint64    `json:"order_id" gorm:"not null;index"`
	PreviousStatus *string   `json:"previous_status"`
	NewStatus      string    `json:"new_status" gorm:"size:32;not null"`
	ActorID        *uint64   `json:"actor_id"`
	Comment        string    `json:"comment,omitempty" gorm:"size:500"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (HistoryEntry) TableName() string {
	return "order_history"
}
