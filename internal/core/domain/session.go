package domain

// SessionState : LoggedOut -> LoggedIn via login/restore, retour uniquement via logout.
type SessionState int

const (
	LoggedOut SessionState = iota
	LoggedIn
)

func (s SessionState) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}
