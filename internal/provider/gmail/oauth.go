package gmail

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	people "google.golang.org/api/people/v1"

	"github.com/lu-zhengda/gatekeeper/internal/store"
)

// No credentials are embedded in the binary. Users must supply their own
// Google Cloud OAuth credentials via one of:
//   - Config file (~/.config/gatekeeper/config.toml) under [gmail]
//   - Environment variables GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET

var oauthConfig = &oauth2.Config{
	Scopes: []string{
		gmailapi.GmailModifyScope,
		gmailapi.GmailSendScope,
		people.ContactsReadonlyScope,
	},
	Endpoint: google.Endpoint,
}

// SetCredentials sets the OAuth client ID and secret.
func SetCredentials(clientID, clientSecret string) {
	oauthConfig.ClientID = clientID
	oauthConfig.ClientSecret = clientSecret
}

// HasCredentials reports whether OAuth credentials have been configured.
func HasCredentials() bool {
	return oauthConfig.ClientID != "" && oauthConfig.ClientSecret != ""
}

// EnsureCredentials returns nil if OAuth credentials have been configured via
// config file or environment variables. Otherwise it returns an error with setup
// instructions.
func EnsureCredentials() error {
	if HasCredentials() {
		return nil
	}
	return fmt.Errorf("gmail OAuth credentials not configured; set them in ~/.config/gatekeeper/config.toml under [gmail] or via GMAIL_CLIENT_ID / GMAIL_CLIENT_SECRET env vars")
}

// tokenSource loads the stored token for accountID and wraps it in a
// refreshing token source. Both the mail store and the directory share it.
func tokenSource(ctx context.Context, tokens *store.KeyringTokenStore, accountID string) (oauth2.TokenSource, error) {
	token, err := tokens.LoadToken(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gmail token: %w", err)
	}
	return oauthConfig.TokenSource(ctx, token), nil
}

// authenticate runs the installed-app OAuth flow: it serves the redirect on
// a loopback port, checks the state parameter, and exchanges the code with
// a PKCE verifier.
func authenticate(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	cfg := *oauthConfig
	cfg.RedirectURL = fmt.Sprintf("http://%s", listener.Addr())

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	report := func(r result) {
		select {
		case done <- r:
		default:
		}
	}

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "State mismatch. You can close this tab.", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			fmt.Fprint(w, "Authorization failed. You can close this tab.")
			report(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		default:
			fmt.Fprint(w, "gatekeeper is authorized. You can close this tab.")
			report(result{code: q.Get("code")})
		}
	})}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))
	fmt.Printf("\nOpen this URL in your browser to let gatekeeper triage your inbox:\n\n  %s\n\nWaiting for authorization...\n", url)

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		token, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return token, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
