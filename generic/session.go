package generic

// Role is the practice role carried by an authenticated session.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleDietitian       Role = "dietitian"
	RoleHealthCounselor Role = "health_counselor"
	RoleClient          Role = "client"
)

// Session identifies the authenticated caller of an operation.
type Session struct {
	UserID string
	Role   Role
}

// IsZero reports whether no user is attached.
func (s Session) IsZero() bool { return s.UserID == "" }
