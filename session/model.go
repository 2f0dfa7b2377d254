package session

// Session is the decoded state of one established session.
type Session struct {
	SessionID string
	UserID    string
	Remember  bool
	CreatedAt int64
	Flags     map[string]string
}
