package model

// Identity is the (id, username, email) tuple carried by a verified token
type Identity struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned after signup and login
type AuthResponse struct {
	Token string    `json:"token"`
	User  *SafeUser `json:"user"`
}
