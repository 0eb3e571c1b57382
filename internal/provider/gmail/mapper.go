package gmail

import (
	"net/mail"
	"strings"
	"time"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	gmailapi "google.golang.org/api/gmail/v1"
)

// metadataHeaders are the only headers requested from Gmail. Bodies are
// never fetched.
var metadataHeaders = []string{"From", "To", "Cc", "Subject", "Date", "In-Reply-To"}

// mapMessage converts a metadata-format Gmail API Message to a domain Email.
func mapMessage(msg *gmailapi.Message) *domain.Email {
	var headers []*gmailapi.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	from := findHeader(headers, "From")
	to := findHeader(headers, "To")

	return &domain.Email{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		From:       parseAddress(from),
		To:         parseAddressList(to),
		CC:         parseAddressList(findHeader(headers, "Cc")),
		FromHeader: from,
		ToHeader:   to,
		Subject:    findHeader(headers, "Subject"),
		Date:       parseDate(findHeader(headers, "Date")),
		Labels:     msg.LabelIds,
		InReplyTo:  findHeader(headers, "In-Reply-To"),
	}
}

// mapLabel converts a Gmail API Label to a domain Label.
func mapLabel(l *gmailapi.Label) *domain.Label {
	labelType := domain.LabelTypeUser
	if l.Type == "system" {
		labelType = domain.LabelTypeSystem
	}
	return &domain.Label{ID: l.Id, Name: l.Name, Type: labelType}
}

// findHeader performs a case-insensitive lookup for a header value.
func findHeader(headers []*gmailapi.MessagePartHeader, name string) string {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower {
			return h.Value
		}
	}
	return ""
}

// parseAddress parses a single address header. Values that fail strict
// parsing are kept verbatim as the address so the raw sender is not lost.
func parseAddress(s string) domain.Address {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Address{}
	}
	if a, err := mail.ParseAddress(s); err == nil {
		return domain.Address{Name: a.Name, Email: a.Address}
	}
	return domain.Address{Email: s}
}

// parseAddressList parses a recipient header. Lists that fail strict parsing
// (unquoted commas in names, stray separators) are split on commas and each
// part is parsed on its own.
func parseAddressList(s string) []domain.Address {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if list, err := mail.ParseAddressList(s); err == nil {
		out := make([]domain.Address, 0, len(list))
		for _, a := range list {
			out = append(out, domain.Address{Name: a.Name, Email: a.Address})
		}
		return out
	}
	var out []domain.Address
	for _, part := range strings.Split(s, ",") {
		if a := parseAddress(part); a.Email != "" {
			out = append(out, a)
		}
	}
	return out
}

// parseDate parses a Date header. RFC 3339 is accepted for the few senders
// that use it; anything else yields the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := mail.ParseDate(s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
