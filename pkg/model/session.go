package model

// SessionState tracks where a connection is in the register/login protocol.
// Transitions are driven by the protocol engine; a session only joins the
// registry once it reaches StateAuthenticated, and never leaves
// StateTerminated.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateRegisterUsername
	StateRegisterPassword
	StateLoginUsername
	StateLoginPassword
	StateAuthenticated
	StateTerminated
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateRegisterUsername:
		return "register_username"
	case StateRegisterPassword:
		return "register_password"
	case StateLoginUsername:
		return "login_username"
	case StateLoginPassword:
		return "login_password"
	case StateAuthenticated:
		return "authenticated"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Active reports whether the session can still make progress, i.e. it has
// not been torn down.
func (s SessionState) Active() bool {
	return s != StateTerminated
}
