// Package settings loads and saves the per-account triage policy held in the
// property store. Every field has its own defaulting rule; invalid stored
// values never reach the caller.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// Property keys.
const (
	KeyMinEmails   = "MIN_EMAILS"
	KeyAutoArchive = "AUTO_ARCHIVE"
	KeyLabel       = "LABEL"
	KeyOnlyPrimary = "ONLY_PRIMARY"
	KeyAutoReply   = "AUTO_REPLY"
	KeyReplyText   = "REPLY_TEXT"
)

// Load reads the account's settings, substituting defaults field by field.
func Load(ctx context.Context, ps store.PropertyStore, accountID string) (domain.Settings, error) {
	props, err := ps.GetProperties(ctx, accountID)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return fromProperties(props), nil
}

func fromProperties(props map[string]string) domain.Settings {
	s := domain.DefaultSettings()

	if n, ok := parseMinEmails(props[KeyMinEmails]); ok {
		s.MinEmails = n
	}
	if b, err := strconv.ParseBool(props[KeyAutoArchive]); err == nil {
		s.AutoArchive = b
	}
	if l := props[KeyLabel]; domain.ValidLabel(l) {
		s.Label = l
	}
	if b, err := strconv.ParseBool(props[KeyOnlyPrimary]); err == nil {
		s.OnlyPrimary = b
	}
	if b, err := strconv.ParseBool(props[KeyAutoReply]); err == nil {
		s.AutoReply = b
	}
	if t := props[KeyReplyText]; strings.TrimSpace(t) != "" {
		s.ReplyText = t
	}
	return s
}

func toProperties(s domain.Settings) map[string]string {
	return map[string]string{
		KeyMinEmails:   strconv.Itoa(s.MinEmails),
		KeyAutoArchive: strconv.FormatBool(s.AutoArchive),
		KeyLabel:       s.Label,
		KeyOnlyPrimary: strconv.FormatBool(s.OnlyPrimary),
		KeyAutoReply:   strconv.FormatBool(s.AutoReply),
		KeyReplyText:   s.ReplyText,
	}
}

func parseMinEmails(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Update is a settings form submission. Nil fields are left unchanged.
type Update struct {
	MinEmails   *string
	AutoArchive *bool
	Label       *string
	OnlyPrimary *bool
	AutoReply   *bool
	ReplyText   *string
}

// Rejection describes a submitted value that failed validation and was not stored.
type Rejection struct {
	Key    string
	Value  string
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s=%q rejected: %s", r.Key, r.Value, r.Reason)
}

// Apply validates u against the stored settings and persists the result.
// Invalid label or min-emails values keep the previously stored value and
// are reported as rejections; an empty reply text falls back to the default.
func Apply(ctx context.Context, ps store.PropertyStore, accountID string, u Update) (domain.Settings, []Rejection, error) {
	current, err := Load(ctx, ps, accountID)
	if err != nil {
		return domain.Settings{}, nil, err
	}

	next, rejected := merge(current, u)
	if err := ps.SetProperties(ctx, accountID, toProperties(next)); err != nil {
		return domain.Settings{}, nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return next, rejected, nil
}

func merge(s domain.Settings, u Update) (domain.Settings, []Rejection) {
	var rejected []Rejection

	if u.MinEmails != nil {
		if n, ok := parseMinEmails(*u.MinEmails); ok {
			s.MinEmails = n
		} else {
			rejected = append(rejected, Rejection{KeyMinEmails, *u.MinEmails, "must be a whole number >= 0"})
		}
	}
	if u.Label != nil {
		l := strings.TrimSpace(*u.Label)
		if domain.ValidLabel(l) {
			s.Label = l
		} else {
			rejected = append(rejected, Rejection{KeyLabel, *u.Label,
				fmt.Sprintf("must be 1-%d characters", domain.MaxLabelLength-1)})
		}
	}
	if u.AutoArchive != nil {
		s.AutoArchive = *u.AutoArchive
	}
	if u.OnlyPrimary != nil {
		s.OnlyPrimary = *u.OnlyPrimary
	}
	if u.AutoReply != nil {
		s.AutoReply = *u.AutoReply
	}
	if u.ReplyText != nil {
		if strings.TrimSpace(*u.ReplyText) == "" {
			s.ReplyText = domain.DefaultSettings().ReplyText
		} else {
			s.ReplyText = *u.ReplyText
		}
	}
	return s, rejected
}
