package auth

import (
	"errors"
	"fmt"
)

// Standard error definitions for auth domain
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrChallengeRequired  = errors.New("additional authentication challenge required")
)

// InvalidCredentialsError returns an error for rejected credentials
func InvalidCredentialsError(cause error) error {
	return fmt.Errorf("%w: %v", ErrInvalidCredentials, cause)
}

// InvalidTokenError returns an error for an invalid token
func InvalidTokenError() error {
	return ErrInvalidToken
}

// NotSignedInError returns an error for a missing or revoked session
func NotSignedInError() error {
	return ErrNotSignedIn
}

// ChallengeRequiredError returns an error naming the pending challenge
func ChallengeRequiredError(challenge string) error {
	return fmt.Errorf("%w: %s", ErrChallengeRequired, challenge)
}
