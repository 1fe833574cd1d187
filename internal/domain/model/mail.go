package model

// MailMessage is a single HTML message addressed to every recipient at once.
type MailMessage struct {
	Subject         string
	HTMLBody        string
	To              []string
	SaveToSentItems bool
}
