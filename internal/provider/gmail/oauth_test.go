package gmail

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

func TestCredentials(t *testing.T) {
	saved := *oauthConfig
	t.Cleanup(func() { *oauthConfig = saved })

	SetCredentials("", "")
	if HasCredentials() {
		t.Error("HasCredentials() = true with empty credentials")
	}
	if err := EnsureCredentials(); err == nil {
		t.Error("EnsureCredentials() should fail without credentials")
	}

	SetCredentials("id", "secret")
	if !HasCredentials() {
		t.Error("HasCredentials() = false after SetCredentials")
	}
	if err := EnsureCredentials(); err != nil {
		t.Errorf("EnsureCredentials() error: %v", err)
	}
}

func TestTokenSource(t *testing.T) {
	keyring.MockInit()
	tokens := store.NewKeyringTokenStore()

	if _, err := tokenSource(t.Context(), tokens, "missing@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tokenSource() error = %v, want ErrNotFound", err)
	}

	if err := tokens.SaveToken("me@example.com", &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("SaveToken() error: %v", err)
	}
	ts, err := tokenSource(t.Context(), tokens, "me@example.com")
	if err != nil {
		t.Fatalf("tokenSource() error: %v", err)
	}
	if ts == nil {
		t.Fatal("tokenSource() returned nil")
	}
}

func TestRandomState(t *testing.T) {
	a, err := randomState()
	if err != nil {
		t.Fatalf("randomState() error: %v", err)
	}
	b, _ := randomState()
	if a == "" || a == b {
		t.Errorf("randomState() = %q, %q; want distinct non-empty values", a, b)
	}
}
