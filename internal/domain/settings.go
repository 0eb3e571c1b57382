package domain

import (
	"strings"
	"unicode/utf8"
)

// EmailPlaceholder is replaced with the user's own address in ReplyText.
const EmailPlaceholder = "[EMAIL_ADDRESS]"

// MaxLabelLength bounds label names; valid labels are 1..MaxLabelLength-1 characters.
const MaxLabelLength = 30

// Settings is the per-account triage policy.
type Settings struct {
	// MinEmails is parsed and stored but not yet consulted by triage.
	MinEmails   int
	AutoArchive bool
	Label       string
	OnlyPrimary bool
	AutoReply   bool
	ReplyText   string
}

// DefaultSettings returns the policy used for any field that has never been set.
func DefaultSettings() Settings {
	return Settings{
		MinEmails:   1,
		AutoArchive: false,
		Label:       "Unsolicited",
		OnlyPrimary: true,
		AutoReply:   false,
		ReplyText: "Hi, this is an automatic reply. Mail sent to " + EmailPlaceholder +
			" from unknown senders is filtered and may not be read. " +
			"If we have been introduced, please mention who put us in touch.",
	}
}

// ValidLabel reports whether name is an acceptable label name. The bound
// is in characters, not bytes.
func ValidLabel(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n < MaxLabelLength
}

// RenderReply substitutes the recipient address into ReplyText.
func (s Settings) RenderReply(recipient string) string {
	return strings.ReplaceAll(s.ReplyText, EmailPlaceholder, recipient)
}
