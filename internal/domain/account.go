package domain

import "time"

// Account is a mailbox gatekeeper triages. Settings, the contact cache,
// triggers and run history are all keyed by ID.
type Account struct {
	ID          string
	Email       string
	Provider    string
	DisplayName string
	CreatedAt   time.Time
}
