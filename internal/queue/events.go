package queue

// Routing keys on the auth events exchange.
const (
	KeyUserRegistered = "user.registered"
	KeyPasswordReset  = "auth.password_reset"
)

type UserRegistered struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// PasswordResetRequested carries everything the notifier needs to send
// the reset mail; the link already embeds the opaque token.
type PasswordResetRequested struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}
