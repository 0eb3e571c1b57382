package domain

// LabelType tells Gmail's built-in labels apart from ones the user (or
// gatekeeper) created.
type LabelType string

const (
	LabelTypeSystem LabelType = "system"
	LabelTypeUser   LabelType = "user"
)

// Label is a Gmail label. Unsolicited threads get a user label whose name
// comes from Settings.Label.
type Label struct {
	ID   string
	Name string
	Type LabelType
}

// LabelInbox is removed from a thread to archive it.
const LabelInbox = "INBOX"
