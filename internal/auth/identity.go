package auth

// Identity describes an authenticated caller. A nil *Identity means the
// request is anonymous.
type Identity struct {
	UserID   string
	Username string
	Admin    bool
}
