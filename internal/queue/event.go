// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when a registration succeeds.
// It contains enough information for downstream consumers to log, send a
// welcome email, or trigger analytics without querying the primary
// database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}
