package gmail

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
)

// composeMessage renders email as an RFC 5322 plain-text message ready for
// messages.send. Every message this binary sends is an automatic reply, so
// it is always marked Auto-Submitted.
func composeMessage(email *domain.Email, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{toMailAddress(email.From)})
	h.SetAddressList("To", toMailAddresses(email.To))
	if len(email.CC) > 0 {
		h.SetAddressList("Cc", toMailAddresses(email.CC))
	}
	h.SetSubject(email.Subject)
	if email.InReplyTo != "" {
		h.Set("In-Reply-To", email.InReplyTo)
		h.Set("References", email.InReplyTo)
	}
	h.Set("Auto-Submitted", "auto-replied")
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, email.Body); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func toMailAddress(a domain.Address) *mail.Address {
	return &mail.Address{Name: a.Name, Address: a.Email}
}

func toMailAddresses(addrs []domain.Address) []*mail.Address {
	out := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, toMailAddress(a))
	}
	return out
}
