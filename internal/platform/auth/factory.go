package auth

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/config"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/cognito"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/localstore"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/secrets"
)

// ProviderType represents the type of auth provider
type ProviderType string

const (
	// ProviderCognito represents AWS Cognito auth provider
	ProviderCognito ProviderType = config.AuthProviderCognito
	// ProviderNone disables sign-in; the dashboard runs local-only
	ProviderNone ProviderType = config.AuthProviderNone
)

// NewService creates a new auth service based on the provider type
func NewService(ctx context.Context, cfg *config.Config, store *localstore.Store, log *zap.Logger) (auth.Service, error) {
	switch ProviderType(cfg.AuthProvider) {
	case ProviderNone:
		return offlineService{}, nil
	case ProviderCognito, "":
		return newCognitoService(ctx, cfg, store, log)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

// newCognitoService creates a new Cognito auth service
func newCognitoService(ctx context.Context, cfg *config.Config, store *localstore.Store, log *zap.Logger) (auth.Service, error) {
	if err := cfg.RequireCloud(); err != nil {
		return nil, err
	}

	cognitoClient, err := cognito.NewClient(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	var secretSource cognito.SecretSource
	if cfg.CognitoClientSecretID != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		secretSource = secrets.NewClientSecretSource(secretsmanager.NewFromConfig(awsCfg), cfg.CognitoClientSecretID, log)
	}

	repository := cognito.NewLocalRepository(store)

	return cognito.NewService(cognitoClient, repository, secretSource, cognito.Config{
		UserPoolID: cfg.UserPoolID,
		ClientID:   cfg.UserPoolClientID,
		Region:     cfg.AWSRegion,
	}, log), nil
}

// offlineService never has a signed-in user
type offlineService struct{}

func (offlineService) CurrentUser(context.Context) (auth.User, error) {
	return auth.User{}, auth.NotSignedInError()
}

func (offlineService) Login(context.Context, auth.LoginInput) (auth.User, error) {
	return auth.User{}, apperrors.NewConfigError("cloud sync is disabled (auth_provider is none)")
}

func (offlineService) Logout(context.Context) error {
	return nil
}
