package triage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/provider"
)

// Policy applies the configured actions to unsolicited threads.
type Policy struct {
	mail   provider.MailStore
	logger *log.Logger
	labels map[string]string // name -> ID, resolved once per run
	now    func() time.Time
}

// NewPolicy returns a Policy.
func NewPolicy(mail provider.MailStore, logger *log.Logger) *Policy {
	return &Policy{
		mail:   mail,
		logger: logger,
		labels: make(map[string]string),
		now:    time.Now,
	}
}

// Apply labels the thread, then archives and auto-replies as configured.
// It returns 1 if the thread was archived, otherwise 0. A thread that
// already carries the label was handled by an earlier run: it is not
// labeled or replied to again, but is still archived if AutoArchive is on.
func (p *Policy) Apply(ctx context.Context, d Decision, s domain.Settings) (int, error) {
	if !d.Unsolicited {
		return 0, nil
	}

	labelID, err := p.labelID(ctx, s.Label)
	if err != nil {
		return 0, err
	}
	handled := slices.Contains(d.Labels, labelID)
	if !handled {
		if err := p.mail.AddLabel(ctx, d.ThreadID, labelID); err != nil {
			return 0, fmt.Errorf("failed to label thread %s: %w", d.ThreadID, err)
		}
	}

	archived := 0
	if s.AutoArchive {
		if err := p.mail.ArchiveThread(ctx, d.ThreadID); err != nil {
			return 0, fmt.Errorf("failed to archive thread %s: %w", d.ThreadID, err)
		}
		archived = 1
	}

	replied := s.AutoReply && !handled
	if replied {
		reply := &domain.Email{
			From:    domain.Address{Email: d.Recipient},
			To:      []domain.Address{{Email: d.Sender}},
			Subject: ReplySubject(d.Subject),
			Body:    s.RenderReply(d.Recipient),
			Date:    p.now(),
		}
		if err := p.mail.SendMessage(ctx, reply); err != nil {
			return archived, fmt.Errorf("failed to send auto-reply to %s: %w", d.Sender, err)
		}
	}

	p.logger.Info("unsolicited", "thread", d.ThreadID, "sender", d.Sender,
		"archived", archived == 1, "replied", replied, "repeat", handled)
	return archived, nil
}

func (p *Policy) labelID(ctx context.Context, name string) (string, error) {
	if id, ok := p.labels[name]; ok {
		return id, nil
	}
	label, err := p.mail.GetOrCreateLabel(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to get label %q: %w", name, err)
	}
	p.labels[name] = label.ID
	return label.ID, nil
}

// ReplySubject builds the auto-reply subject for an original subject.
func ReplySubject(original string) string {
	original = strings.TrimSpace(original)
	if original == "" {
		return AutoReplySubjectPrefix
	}
	if !strings.HasPrefix(strings.ToLower(original), "re:") {
		original = "Re: " + original
	}
	return AutoReplySubjectPrefix + " " + original
}
