package model

import "time"

// Delivery outcomes recorded in the delivery log.
const (
	DeliveryOutcomeSent   = "sent"
	DeliveryOutcomeFailed = "failed"
)

// DeliveryEntry is one archived row describing how a queued job was resolved.
type DeliveryEntry struct {
	JobID          string        `json:"job_id"          db:"job_id"`
	RecipientEmail string        `json:"recipient_email" db:"recipient_email"`
	Outcome        string        `json:"outcome"         db:"outcome"`
	Error          string        `json:"error,omitempty" db:"error"`
	Duration       time.Duration `json:"duration"        db:"-"`
	ResolvedAt     time.Time     `json:"resolved_at"     db:"resolved_at"`
}
