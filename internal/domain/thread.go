package domain

// Thread is a conversation. List calls populate only ID and Snippet;
// Messages is filled when the thread is fetched.
type Thread struct {
	ID       string
	Snippet  string
	Messages []Email
}

// First returns the thread's first message, or nil for an empty thread.
func (t *Thread) First() *Email {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[0]
}

// Candidate is the per-scan view of a thread that the classifier works on.
type Candidate struct {
	ThreadID       string
	Subject        string
	FromHeader     string
	ToHeader       string
	RecipientCount int
	// Labels are the first message's label IDs. Gmail applies thread
	// labels to every message, so this shows labels added on earlier runs.
	Labels []string
}

// CandidateFromThread builds a Candidate from the thread's first message.
// It reports false when the thread has no messages.
func CandidateFromThread(t *Thread) (Candidate, bool) {
	first := t.First()
	if first == nil {
		return Candidate{}, false
	}
	return Candidate{
		ThreadID:       t.ID,
		Subject:        first.Subject,
		FromHeader:     first.FromHeader,
		ToHeader:       first.ToHeader,
		RecipientCount: len(first.To),
		Labels:         first.Labels,
	}, true
}
