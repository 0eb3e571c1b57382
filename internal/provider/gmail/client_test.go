package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// threadList serves users.threads.list over a fixed result set. Page
// tokens are the decimal offset of the page they start.
type threadList struct {
	total int

	mu       sync.Mutex
	requests []listRequest
}

type listRequest struct {
	token      string
	maxResults int
}

func (l *threadList) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/users/me/threads") {
		http.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("pageToken")
	size, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
	start, _ := strconv.Atoi(token)

	l.mu.Lock()
	l.requests = append(l.requests, listRequest{token: token, maxResults: size})
	l.mu.Unlock()

	end := min(start+size, l.total)
	resp := gmailapi.ListThreadsResponse{}
	for i := start; i < end; i++ {
		resp.Threads = append(resp.Threads, &gmailapi.Thread{Id: fmt.Sprintf("t%02d", i)})
	}
	if end < l.total {
		resp.NextPageToken = strconv.Itoa(end)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&resp)
}

func (l *threadList) calls() []listRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]listRequest(nil), l.requests...)
}

func newTestProvider(t *testing.T, total int) (*Provider, *threadList) {
	t.Helper()
	list := &threadList{total: total}
	srv := httptest.NewServer(list)
	t.Cleanup(srv.Close)

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	p := New("acc-1", nil, nil)
	p.service = svc
	return p, list
}

func TestSearchThreads_ReusesCursors(t *testing.T) {
	ctx := context.Background()
	p, list := newTestProvider(t, 13)
	const q = "to:me in:inbox newer_than:1d"

	var sizes []int
	for _, offset := range []int{0, 5, 10} {
		threads, err := p.SearchThreads(ctx, q, offset, 5)
		if err != nil {
			t.Fatalf("SearchThreads(offset %d) error: %v", offset, err)
		}
		sizes = append(sizes, len(threads))
		if len(threads) > 0 {
			if want := fmt.Sprintf("t%02d", offset); threads[0].ID != want {
				t.Errorf("offset %d starts at %s, want %s", offset, threads[0].ID, want)
			}
		}
	}
	if fmt.Sprint(sizes) != "[5 5 3]" {
		t.Errorf("page sizes = %v, want [5 5 3]", sizes)
	}

	calls := list.calls()
	if len(calls) != 3 {
		t.Fatalf("list requests = %d, want 3 (one per page, no walking)", len(calls))
	}
	for i, want := range []string{"", "5", "10"} {
		if calls[i].token != want {
			t.Errorf("request %d pageToken = %q, want %q", i, calls[i].token, want)
		}
	}
}

func TestSearchThreads_WalksToUnknownOffset(t *testing.T) {
	p, list := newTestProvider(t, 13)

	threads, err := p.SearchThreads(context.Background(), "q", 10, 5)
	if err != nil {
		t.Fatalf("SearchThreads() error: %v", err)
	}
	if len(threads) != 3 || threads[0].ID != "t10" {
		t.Errorf("threads = %v, want t10..t12", threads)
	}

	calls := list.calls()
	if len(calls) != 2 {
		t.Fatalf("list requests = %d, want 2 (walk then page)", len(calls))
	}
	if calls[0].token != "" || calls[0].maxResults != 10 {
		t.Errorf("walk request = %+v, want first page of 10", calls[0])
	}
	if calls[1].token != "10" || calls[1].maxResults != 5 {
		t.Errorf("page request = %+v, want token 10, 5 results", calls[1])
	}
}

func TestSearchThreads_OffsetPastEnd(t *testing.T) {
	p, list := newTestProvider(t, 13)

	threads, err := p.SearchThreads(context.Background(), "q", 20, 5)
	if err != nil {
		t.Fatalf("SearchThreads() error: %v", err)
	}
	if threads != nil {
		t.Errorf("threads = %v, want nil past the end", threads)
	}
	if n := len(list.calls()); n != 1 {
		t.Errorf("list requests = %d, want 1", n)
	}
}

func TestSearchThreads_FreshScanDropsOldCursors(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 13)

	for _, offset := range []int{0, 5} {
		if _, err := p.SearchThreads(ctx, "q", offset, 5); err != nil {
			t.Fatalf("SearchThreads() error: %v", err)
		}
	}
	if _, err := p.SearchThreads(ctx, "other", 0, 5); err != nil {
		t.Fatalf("SearchThreads() error: %v", err)
	}
	if _, err := p.SearchThreads(ctx, "q", 0, 5); err != nil {
		t.Fatalf("SearchThreads() error: %v", err)
	}

	var forQ int
	for k := range p.cursors {
		if k.query == "q" {
			forQ++
		}
	}
	if forQ != 1 {
		t.Errorf("cursors for q = %d, want 1 after a fresh scan", forQ)
	}
	if _, ok := p.cursors[cursorKey{query: "other", offset: 5}]; !ok {
		t.Error("fresh scan of q dropped cursors of another query")
	}
}
