package model

import "time"

// Credential is one password credential (client secret) registered on an
// application. DisplayName is not unique within an application.
type Credential struct {
	DisplayName string
	ExpiresAt   time.Time // Always UTC.
}

// Application is a registered application identity and the password
// credentials it owns. ID is the merge key; DisplayName is only used for
// ordering and display.
type Application struct {
	ID          string
	DisplayName string
	Credentials []Credential
}

// ApplicationPage is one page of a paged directory listing. An empty
// NextLink means the collection is exhausted.
type ApplicationPage struct {
	Applications []Application
	NextLink     string
}
