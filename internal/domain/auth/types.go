package auth

import (
	"time"
)

// User represents an authenticated user with authentication details
type User struct {
	ID            string        `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email,omitempty"`
	Name          string        `json:"name,omitempty"`
	TokenMetadata TokenMetadata `json:"tokenMetadata,omitempty"`
}

// TokenMetadata contains information about the token
type TokenMetadata struct {
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session is the persisted token set of the signed-in user
type Session struct {
	Username     string    `json:"username"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	IdToken      string    `json:"idToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsZero reports whether no one is signed in
func (s Session) IsZero() bool {
	return s.AccessToken == ""
}

// Expired reports whether the access token expires within skew of now
func (s Session) Expired(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(s.ExpiresAt)
}

// LoginInput represents the input for user login
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
