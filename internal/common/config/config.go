package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// Backends and providers accepted in configuration
const (
	AuthProviderCognito = "cognito"
	AuthProviderNone    = "none"
)

// Config represents the application configuration
type Config struct {
	// Local persistence
	DataDir      string
	LocalBackend string

	// AWS-specific configuration
	AWSRegion             string
	DynamoDBTableName     string
	DynamoDBEndpoint      string
	UserPoolID            string
	UserPoolClientID      string
	CognitoClientSecretID string

	// Auth configuration
	AuthProvider string

	// Sync policy
	AutoPushDelay   time.Duration
	EmptyPullPolicy string
	SyncTimeout     time.Duration
	PushConcurrency int

	// Presentation
	CollationLanguage string
	Language          language.Tag

	// Environment and logging
	Environment string
	LogLevel    string
	LogFile     string

	// ConfigFile is the file that was read, "" when none was found
	ConfigFile string
}

// Load reads configuration from defaults, an optional p2pdash.yaml and the
// environment, in increasing precedence. configFile overrides the search.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("p2pdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := defaultDataDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, apperrors.AppError{
				Code:    apperrors.CodeConfig,
				Message: "failed to read config file",
				Err:     err,
			}
		}
	}

	v.SetEnvPrefix("P2PDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unprefixed names shared with the AWS tooling and deployment scripts
	_ = v.BindEnv("aws_region", "P2PDASH_AWS_REGION", "AWS_REGION")
	_ = v.BindEnv("dynamodb_table_name", "P2PDASH_DYNAMODB_TABLE_NAME", "DYNAMODB_TABLE_NAME")
	_ = v.BindEnv("user_pool_id", "P2PDASH_USER_POOL_ID", "USER_POOL_ID")
	_ = v.BindEnv("user_pool_client_id", "P2PDASH_USER_POOL_CLIENT_ID", "USER_POOL_CLIENT_ID")
	_ = v.BindEnv("environment", "P2PDASH_ENVIRONMENT", "ENVIRONMENT")

	cfg := &Config{
		DataDir:               v.GetString("data_dir"),
		LocalBackend:          v.GetString("local_backend"),
		AWSRegion:             v.GetString("aws_region"),
		DynamoDBTableName:     v.GetString("dynamodb_table_name"),
		DynamoDBEndpoint:      v.GetString("dynamodb_endpoint"),
		UserPoolID:            v.GetString("user_pool_id"),
		UserPoolClientID:      v.GetString("user_pool_client_id"),
		CognitoClientSecretID: v.GetString("cognito_client_secret_id"),
		AuthProvider:          v.GetString("auth_provider"),
		AutoPushDelay:         v.GetDuration("auto_push_delay"),
		EmptyPullPolicy:       v.GetString("empty_pull_policy"),
		SyncTimeout:           v.GetDuration("sync_timeout"),
		PushConcurrency:       v.GetInt("push_concurrency"),
		CollationLanguage:     v.GetString("collation_language"),
		Environment:           v.GetString("environment"),
		LogLevel:              v.GetString("log_level"),
		LogFile:               v.GetString("log_file"),
		ConfigFile:            v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("local_backend", "file")
	v.SetDefault("aws_region", "eu-central-1")
	v.SetDefault("dynamodb_table_name", "p2p-ops-dashboard")
	v.SetDefault("auth_provider", AuthProviderCognito)
	v.SetDefault("auto_push_delay", 10*time.Second)
	v.SetDefault("empty_pull_policy", "ignore")
	v.SetDefault("sync_timeout", 60*time.Second)
	v.SetDefault("push_concurrency", 8)
	v.SetDefault("collation_language", "uk")
	v.SetDefault("environment", "dev")
	v.SetDefault("log_level", "info")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".p2pdash"
	}
	return filepath.Join(dir, "p2pdash")
}

func (c *Config) validate() error {
	switch c.LocalBackend {
	case "file", "sqlite", "memory":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("local_backend must be file, sqlite or memory, got %q", c.LocalBackend))
	}
	switch c.EmptyPullPolicy {
	case "ignore", "replace":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("empty_pull_policy must be ignore or replace, got %q", c.EmptyPullPolicy))
	}
	switch c.AuthProvider {
	case AuthProviderCognito, AuthProviderNone:
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown auth_provider %q", c.AuthProvider))
	}
	if c.DataDir == "" {
		return apperrors.NewConfigError("data_dir is required")
	}
	if c.AutoPushDelay <= 0 {
		return apperrors.NewConfigError("auto_push_delay must be positive")
	}
	if c.SyncTimeout < 0 {
		return apperrors.NewConfigError("sync_timeout must not be negative")
	}
	if c.PushConcurrency <= 0 {
		return apperrors.NewConfigError("push_concurrency must be positive")
	}

	tag, err := language.Parse(c.CollationLanguage)
	if err != nil {
		return apperrors.AppError{
			Code:    apperrors.CodeConfig,
			Message: fmt.Sprintf("invalid collation_language %q", c.CollationLanguage),
			Err:     err,
		}
	}
	c.Language = tag
	return nil
}

// RequireCloud checks the settings needed to reach DynamoDB and Cognito
func (c *Config) RequireCloud() error {
	if c.AuthProvider == AuthProviderNone {
		return apperrors.NewConfigError("cloud sync is disabled (auth_provider is none)")
	}
	if c.DynamoDBTableName == "" {
		return apperrors.NewConfigError("DYNAMODB_TABLE_NAME is required")
	}
	if c.UserPoolID == "" {
		return apperrors.NewConfigError("USER_POOL_ID is required")
	}
	if c.UserPoolClientID == "" {
		return apperrors.NewConfigError("USER_POOL_CLIENT_ID is required")
	}
	if c.AWSRegion == "" {
		return apperrors.NewConfigError("AWS_REGION is required")
	}
	return nil
}

// IsProd reports whether the production environment is selected
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
