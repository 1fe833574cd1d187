package model

import "time"

// AccessToken is an opaque bearer token and the instant after which it must
// not be presented.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
