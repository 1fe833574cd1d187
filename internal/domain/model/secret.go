package model

import "time"

// StoredSecret is a named secret held by the local encrypted secret store.
// Value is plaintext at the domain boundary.
type StoredSecret struct {
	ID        int64
	Name      string
	Value     string
	UpdatedAt time.Time
}
