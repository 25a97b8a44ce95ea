// Package secrets reads application secrets from AWS Secrets Manager
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-secretsmanager-caching-go/v2/secretcache"
	"go.uber.org/zap"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ClientSecretSource resolves the Cognito app client secret. The secret is
// stored either as a plain string or as JSON with a "clientSecret" field.
type ClientSecretSource struct {
	api         SecretsManagerAPI
	secretCache *secretcache.Cache
	secretID    string
	logger      *zap.Logger

	mu     sync.Mutex
	cached string
}

// NewClientSecretSource creates a source backed by the Secrets Manager cache
func NewClientSecretSource(client *secretsmanager.Client, secretID string, logger *zap.Logger) *ClientSecretSource {
	cache, err := secretcache.New(
		func(c *secretcache.Cache) {
			c.Client = client
		},
	)
	if err != nil {
		// fall back to direct API calls
		logger.Warn("Failed to initialize secret cache", zap.Error(err))
		cache = nil
	}

	return &ClientSecretSource{
		api:         client,
		secretCache: cache,
		secretID:    secretID,
		logger:      logger,
	}
}

// NewClientSecretSourceWithAPI creates a source that calls api directly
func NewClientSecretSourceWithAPI(api SecretsManagerAPI, secretID string, logger *zap.Logger) *ClientSecretSource {
	return &ClientSecretSource{
		api:      api,
		secretID: secretID,
		logger:   logger,
	}
}

// ClientSecret returns the app client secret
func (s *ClientSecretSource) ClientSecret(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	var secretString string
	var err error

	if s.secretCache != nil {
		secretString, err = s.secretCache.GetSecretString(s.secretID)
	} else {
		result, apiErr := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(s.secretID),
		})
		if apiErr != nil {
			err = apiErr
		} else {
			secretString = aws.ToString(result.SecretString)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to get client secret: %w", err)
	}

	secret, err := parseClientSecret(secretString)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Resolved client secret", zap.String("secretId", s.secretID))
	s.cached = secret
	return secret, nil
}

func parseClientSecret(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("client secret is empty")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	var data struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return "", fmt.Errorf("failed to parse client secret: %w", err)
	}
	if data.ClientSecret == "" {
		return "", fmt.Errorf("client secret JSON has no clientSecret field")
	}
	return data.ClientSecret, nil
}
