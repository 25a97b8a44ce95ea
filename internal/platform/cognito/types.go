package cognito

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
)

// Config contains configuration for the Cognito service
type Config struct {
	UserPoolID string
	ClientID   string
	Region     string
}

// API is the subset of the Cognito Identity Provider client used by Service
type API interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
	GlobalSignOut(ctx context.Context, params *cognitoidentityprovider.GlobalSignOutInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GlobalSignOutOutput, error)
}

// SecretSource provides the app client secret for clients created with one
type SecretSource interface {
	ClientSecret(ctx context.Context) (string, error)
}

// Repository persists the signed-in session between process runs
type Repository interface {
	LoadSession() auth.Session
	SaveSession(session auth.Session)
	ClearSession()
}
