package model

// AppState is the session-wide snapshot. It is replaced wholesale, never patched in place.
type AppState struct {
	User         *UserProfile `json:"user"`
	Subscription Subscription `json:"subscription"`
	Language     Language     `json:"language"`
	TotalUsers   int64        `json:"total_users"`
}

// InitialAppState is the state before host identity and persisted data are loaded.
func InitialAppState() AppState {
	return AppState{Language: DefaultLanguage}
}

// Clone returns a deep copy so callers never share the user or expiry pointers.
func (s AppState) Clone() AppState {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Subscription.ExpiresAt != nil {
		t := *s.Subscription.ExpiresAt
		out.Subscription.ExpiresAt = &t
	}
	return out
}
