package auth

import (
	"context"
)

// Gate reports who is signed in. Remote sync is only allowed when
// CurrentUser succeeds.
type Gate interface {
	CurrentUser(ctx context.Context) (User, error)
}

// Service defines the interface for the authentication provider.
// This is a technology-agnostic interface that can be implemented
// by any auth provider (Cognito, Firebase, custom JWT, etc.)
type Service interface {
	Gate
	Login(ctx context.Context, input LoginInput) (User, error)
	Logout(ctx context.Context) error
}
