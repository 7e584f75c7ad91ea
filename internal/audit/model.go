package audit

import "time"

// Action tags an audit entry with the kind of operation that was attempted.
// Tags are bound to routes at registration time, never derived from the
// request outcome.
type Action string

const (
	ActionLogin            Action = "LOGIN"
	ActionUploadDocument   Action = "UPLOAD_DOCUMENT"
	ActionDownloadDocument Action = "DOWNLOAD_DOCUMENT"
	ActionViewDocument     Action = "VIEW_DOCUMENT"
	ActionDeleteDocument   Action = "DELETE_DOCUMENT"
	ActionAccessLogs       Action = "ACCESS_LOGS"
	ActionOther            Action = "OTHER"
)

// Valid reports whether a is a known action tag.
func (a Action) Valid() bool {
	switch a {
	case ActionLogin, ActionUploadDocument, ActionDownloadDocument,
		ActionViewDocument, ActionDeleteDocument, ActionAccessLogs, ActionOther:
		return true
	}
	return false
}

// Entry is one immutable audit record. UserID is empty for requests that
// failed authentication; ErrorMessage is set only when Success is false.
type Entry struct {
	ID           string
	UserID       string
	UserName     string
	UserEmail    string
	UserRole     string
	Action       Action
	Description  string
	ResourceID   string
	IPAddress    string
	UserAgent    string
	Success      bool
	ErrorMessage string
	CreatedAt    time.Time
}
