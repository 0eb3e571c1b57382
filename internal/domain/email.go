package domain

import (
	"strings"
	"time"
)

type Address struct {
	Name  string
	Email string
}

// String renders the address the way it appears in a header.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Email is a single message. FromHeader and ToHeader keep the raw header
// values so address extraction can work on what the sender actually wrote.
type Email struct {
	ID         string
	ThreadID   string
	From       Address
	To         []Address
	CC         []Address
	FromHeader string
	ToHeader   string
	Subject    string
	Body       string
	Date       time.Time
	Labels     []string
	InReplyTo  string
}

// NormalizeAddress lower-cases and trims an address for use as a cache key.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
