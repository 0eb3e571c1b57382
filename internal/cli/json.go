package cli

import (
	"sort"
	"time"

	"github.com/lu-zhengda/gatekeeper/internal/domain"
	"github.com/lu-zhengda/gatekeeper/internal/settings"
	"github.com/lu-zhengda/gatekeeper/internal/store"
	"github.com/lu-zhengda/gatekeeper/internal/triage"
)

// ---------------------------------------------------------------------------
// Account JSON types (account list)
// ---------------------------------------------------------------------------

type jsonAccount struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Provider  string `json:"provider"`
	CreatedAt string `json:"created_at"`
}

func toJSONAccounts(accounts []domain.Account) []jsonAccount {
	out := make([]jsonAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, jsonAccount{
			ID:        a.ID,
			Email:     a.Email,
			Provider:  a.Provider,
			CreatedAt: a.CreatedAt.Format(time.DateOnly),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Run result JSON type (process)
// ---------------------------------------------------------------------------

type jsonResult struct {
	AccountID   string `json:"account_id"`
	Scanned     int    `json:"scanned"`
	Unsolicited int    `json:"unsolicited"`
	Archived    int    `json:"archived"`
	Lookups     int    `json:"lookups"`
}

func toJSONResult(accountID string, r triage.Result) jsonResult {
	return jsonResult{
		AccountID:   accountID,
		Scanned:     r.Scanned,
		Unsolicited: r.Unsolicited,
		Archived:    r.Archived,
		Lookups:     r.Lookups,
	}
}

// ---------------------------------------------------------------------------
// Settings JSON type (settings show, settings set)
// ---------------------------------------------------------------------------

type jsonSettings struct {
	MinEmails   int             `json:"min_emails"`
	AutoArchive bool            `json:"auto_archive"`
	Label       string          `json:"label"`
	OnlyPrimary bool            `json:"only_primary"`
	AutoReply   bool            `json:"auto_reply"`
	ReplyText   string          `json:"reply_text"`
	Rejected    []jsonRejection `json:"rejected,omitempty"`
}

type jsonRejection struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func toJSONSettings(s domain.Settings, rejected []settings.Rejection) jsonSettings {
	out := jsonSettings{
		MinEmails:   s.MinEmails,
		AutoArchive: s.AutoArchive,
		Label:       s.Label,
		OnlyPrimary: s.OnlyPrimary,
		AutoReply:   s.AutoReply,
		ReplyText:   s.ReplyText,
	}
	for _, r := range rejected {
		out.Rejected = append(out.Rejected, jsonRejection{Key: r.Key, Value: r.Value, Reason: r.Reason})
	}
	return out
}

// ---------------------------------------------------------------------------
// Cache JSON type (cache list)
// ---------------------------------------------------------------------------

type jsonCacheEntry struct {
	Address        string `json:"address"`
	Classification string `json:"classification"`
}

// toJSONCache flattens the cache into entries sorted by address.
func toJSONCache(entries map[string]domain.Classification) []jsonCacheEntry {
	out := make([]jsonCacheEntry, 0, len(entries))
	for addr, c := range entries {
		out = append(out, jsonCacheEntry{Address: addr, Classification: string(c)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// ---------------------------------------------------------------------------
// Run history JSON type (runs)
// ---------------------------------------------------------------------------

type jsonRun struct {
	ID          int64  `json:"id"`
	AccountID   string `json:"account_id"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
	Scanned     int    `json:"scanned"`
	Unsolicited int    `json:"unsolicited"`
	Archived    int    `json:"archived"`
	Lookups     int    `json:"lookups"`
	Error       string `json:"error,omitempty"`
}

func toJSONRuns(runs []store.Run) []jsonRun {
	out := make([]jsonRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, jsonRun{
			ID:          r.ID,
			AccountID:   r.AccountID,
			StartedAt:   r.StartedAt.Format(time.RFC3339),
			FinishedAt:  r.FinishedAt.Format(time.RFC3339),
			Scanned:     r.Scanned,
			Unsolicited: r.Unsolicited,
			Archived:    r.Archived,
			Lookups:     r.Lookups,
			Error:       r.Error,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Schedule JSON type (schedule status, on, off)
// ---------------------------------------------------------------------------

type jsonSchedule struct {
	AccountID string `json:"account_id"`
	Handler   string `json:"handler"`
	Installed bool   `json:"installed"`
	Spec      string `json:"spec,omitempty"`
	Since     string `json:"since,omitempty"`
}

func toJSONSchedule(accountID, handler string, t *store.Trigger) jsonSchedule {
	out := jsonSchedule{AccountID: accountID, Handler: handler}
	if t != nil {
		out.Installed = true
		out.Spec = t.Spec
		out.Since = t.CreatedAt.Format(time.RFC3339)
	}
	return out
}

// ---------------------------------------------------------------------------
// Action JSON type (account add/remove, failures)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK        bool   `json:"ok"`
	Action    string `json:"action,omitempty"`
	Email     string `json:"email,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
