package domain

import "fmt"

// Classification records why a sender is not treated as a stranger.
type Classification string

const (
	// RepliedTo means the user has sent mail to the address before.
	RepliedTo Classification = "REPLIED_TO"
	// KnownContact means the address was found in the contact directory.
	KnownContact Classification = "KNOWN_CONTACT"
	// OtherContact is reserved; no rule produces it yet.
	OtherContact Classification = "OTHER_CONTACT"
)

// ParseClassification validates a stored classification value.
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(s); c {
	case RepliedTo, KnownContact, OtherContact:
		return c, nil
	default:
		return "", fmt.Errorf("unknown contact classification %q", s)
	}
}

// Contact is a directory match. Only presence is used by triage.
type Contact struct {
	ResourceName string
	DisplayName  string
	Emails       []string
}
