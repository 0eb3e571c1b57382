package triage

import "fmt"

// AutoReplySubjectPrefix marks outgoing auto-replies. The same constant
// builds the reply subject and excludes auto-replies from reply history;
// if the two disagree, every auto-reply would count as a real reply.
const AutoReplySubjectPrefix = "[Auto-Reply]"

// CandidateQuery selects mail addressed to the user that arrived in the
// inbox during the last day.
func CandidateQuery(onlyPrimary bool) string {
	q := "to:me in:inbox newer_than:1d"
	if onlyPrimary {
		q += " category:primary"
	}
	return q
}

// ReplyHistoryQuery selects mail the user sent to addr, excluding auto-replies.
func ReplyHistoryQuery(addr string) string {
	return fmt.Sprintf("from:me to:%s -subject:%q", addr, AutoReplySubjectPrefix)
}
