package model

import "fmt"

// AuthError reports a failed bearer token acquisition for a named identity.
type AuthError struct {
	Identity string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("acquire token for %s: %v", e.Identity, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed directory read or a record that did not match
// the expected shape. Page is 1-based; zero means the failure was not tied
// to a page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("fetch applications (page %d): %v", e.Page, e.Err)
	}
	return fmt.Sprintf("fetch applications: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DeliveryError reports that the mail sink did not accept the report.
type DeliveryError struct {
	Recipients int
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver report to %d recipient(s): %v", e.Recipients, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
