package domain

// User is the authenticated caller as described by a verified access token.
// Accounts themselves live in the main ChatSaid app.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
