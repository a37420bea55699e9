package domain

type UserID int64

type User struct {
	ID          UserID
	DisplayName string
	Handle      string
}

// Label returns the best human-readable name for notices.
func (u User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Handle != "" {
		return "@" + u.Handle
	}
	return "unknown"
}
