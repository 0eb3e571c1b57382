package gmail

import (
	"slices"
	"testing"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Address
	}{
		{"Stranger <stranger@example.org>", domain.Address{Name: "Stranger", Email: "stranger@example.org"}},
		{`"Doe, Jane" <jane@example.org>`, domain.Address{Name: "Doe, Jane", Email: "jane@example.org"}},
		{"<bare@example.org>", domain.Address{Email: "bare@example.org"}},
		{"  plain@example.org  ", domain.Address{Email: "plain@example.org"}},
		{"not an address", domain.Address{Email: "not an address"}},
		{"", domain.Address{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseAddress(tt.in); got != tt.want {
				t.Errorf("parseAddress(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

// The recipient count drives the shape guard, so lenient parsing matters.
func TestParseAddressList_RecipientCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "me@example.com", []string{"me@example.com"}},
		{"two with names", "Me <me@example.com>, Other <other@example.com>", []string{"me@example.com", "other@example.com"}},
		{"quoted comma in name", `"Smith, Al" <al@example.com>`, []string{"al@example.com"}},
		{"trailing separator", "me@example.com, ", []string{"me@example.com"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAddressList(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parseAddressList(%q) = %+v, want %d addresses", tt.in, got, len(tt.want))
			}
			for i, email := range tt.want {
				if got[i].Email != email {
					t.Errorf("address %d = %q, want %q", i, got[i].Email, email)
				}
			}
		})
	}
}

func TestFindHeader(t *testing.T) {
	headers := []*gmailapi.MessagePartHeader{
		{Name: "from", Value: "a@example.com"},
		{Name: "To", Value: "b@example.com"},
	}
	if got := findHeader(headers, "From"); got != "a@example.com" {
		t.Errorf("findHeader(From) = %q, want case-insensitive match", got)
	}
	if got := findHeader(headers, "Cc"); got != "" {
		t.Errorf("findHeader(Cc) = %q, want empty", got)
	}
	if got := findHeader(nil, "To"); got != "" {
		t.Errorf("findHeader(nil) = %q, want empty", got)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []string{
		"Mon, 15 Jan 2024 10:30:00 +0000",
		"Mon, 15 Jan 2024 05:30:00 -0500",
		"15 Jan 2024 10:30:00 +0000",
		"2024-01-15T10:30:00Z",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if got := parseDate(in); !got.Equal(want) {
				t.Errorf("parseDate(%q) = %v, want %v", in, got, want)
			}
		})
	}

	for _, in := range []string{"", "yesterday"} {
		if got := parseDate(in); !got.IsZero() {
			t.Errorf("parseDate(%q) = %v, want zero time", in, got)
		}
	}
}

func TestMapMessage(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "msg123",
		ThreadId: "thread456",
		LabelIds: []string{"INBOX"},
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: "Bob <bob@example.com>, carol@example.com"},
				{Name: "Subject", Value: "Test Subject"},
				{Name: "Date", Value: "Mon, 01 Jan 2024 12:00:00 +0000"},
				{Name: "In-Reply-To", Value: "<ref123@example.com>"},
			},
		},
	}

	email := mapMessage(msg)
	if email.ID != "msg123" {
		t.Errorf("ID = %q, want %q", email.ID, "msg123")
	}
	if email.ThreadID != "thread456" {
		t.Errorf("ThreadID = %q, want %q", email.ThreadID, "thread456")
	}
	if email.Subject != "Test Subject" {
		t.Errorf("Subject = %q, want %q", email.Subject, "Test Subject")
	}
	if email.From.Email != "alice@example.com" {
		t.Errorf("From.Email = %q, want %q", email.From.Email, "alice@example.com")
	}
	if email.FromHeader != "Alice <alice@example.com>" {
		t.Errorf("FromHeader = %q, want raw header", email.FromHeader)
	}
	if email.ToHeader != "Bob <bob@example.com>, carol@example.com" {
		t.Errorf("ToHeader = %q, want raw header", email.ToHeader)
	}
	if len(email.To) != 2 {
		t.Errorf("To = %v, want 2 recipients", email.To)
	}
	if !slices.Contains(email.Labels, domain.LabelInbox) {
		t.Error("expected INBOX label")
	}
	if email.InReplyTo != "<ref123@example.com>" {
		t.Errorf("InReplyTo = %q, want %q", email.InReplyTo, "<ref123@example.com>")
	}
	if email.Date.Year() != 2024 {
		t.Errorf("Date.Year() = %d, want 2024", email.Date.Year())
	}
}

func TestMapMessage_NilPayload(t *testing.T) {
	email := mapMessage(&gmailapi.Message{Id: "msg1"})
	if email.FromHeader != "" || len(email.To) != 0 {
		t.Errorf("mapMessage(nil payload) = %+v, want empty headers", email)
	}
}

func TestMapLabel(t *testing.T) {
	got := mapLabel(&gmailapi.Label{Id: "INBOX", Name: "INBOX", Type: "system"})
	if got.Type != domain.LabelTypeSystem {
		t.Errorf("Type = %q, want system", got.Type)
	}
	got = mapLabel(&gmailapi.Label{Id: "Label_1", Name: "Unsolicited", Type: "user"})
	if got.Type != domain.LabelTypeUser || got.Name != "Unsolicited" {
		t.Errorf("mapLabel() = %+v", got)
	}
}
