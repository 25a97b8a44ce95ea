package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/config"
	"github.com/hirosato/p2p-ops-dashboard/internal/common/logging"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
	authFactory "github.com/hirosato/p2p-ops-dashboard/internal/platform/auth"
	dynamoClient "github.com/hirosato/p2p-ops-dashboard/internal/platform/dynamodb/client"
	dynamodbRepository "github.com/hirosato/p2p-ops-dashboard/internal/platform/dynamodb/repository"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/localstore"
)

// app holds the wired components for one CLI invocation
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *localstore.Store
	ws     *workspace.Service

	// notices receives messages no command returns, such as a failed
	// auto-push on exit
	notices io.Writer

	// auth is nil when cloud settings are incomplete; authErr says why
	auth    auth.Service
	authErr error
}

func newApp(ctx context.Context, configFile string, notices io.Writer) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Production: cfg.IsProd(),
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(cfg.LocalBackend, cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		notices: notices,
	}

	var remote workspace.RemoteStore
	a.auth, a.authErr = authFactory.NewService(ctx, cfg, store, logger)
	if a.authErr == nil && cfg.AuthProvider != config.AuthProviderNone {
		remote, err = newRemote(ctx, cfg, a.auth, logger)
		if err != nil {
			a.auth, a.authErr = nil, err
		}
	}
	if a.authErr != nil {
		logger.Debug("Cloud sync unavailable", zap.Error(a.authErr))
	}

	a.ws = workspace.NewService(
		localstore.NewWorkspaceState(store),
		remote,
		newPrinter(notices),
		logger,
		workspace.Options{
			AutoPushDelay:   cfg.AutoPushDelay,
			EmptyPullPolicy: workspace.EmptyPullPolicy(cfg.EmptyPullPolicy),
			SyncTimeout:     cfg.SyncTimeout,
			Language:        cfg.Language,
		},
	)

	logger.Debug("Started",
		zap.String("dataDir", cfg.DataDir),
		zap.String("backend", cfg.LocalBackend),
		zap.String("configFile", cfg.ConfigFile))
	return a, nil
}

func newRemote(ctx context.Context, cfg *config.Config, gate auth.Gate, logger *zap.Logger) (workspace.RemoteStore, error) {
	client, err := dynamoClient.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint, logger)
	if err != nil {
		return nil, err
	}
	factory := dynamodbRepository.NewFactory(client, cfg.DynamoDBTableName, logger, cfg.PushConcurrency)
	return factory.SnapshotRepository(gate), nil
}

// requireAuth returns the auth service or the reason cloud features are off
func (a *app) requireAuth() (auth.Service, error) {
	if a.auth == nil {
		return nil, a.authErr
	}
	return a.auth, nil
}

// shutdown runs any debounced auto-push before the process exits
func (a *app) shutdown(ctx context.Context) {
	if pushed, err := a.ws.FlushAutoPush(ctx); pushed && err != nil {
		a.logger.Warn("Auto-push on exit failed", zap.Error(err))
		fmt.Fprintln(a.notices, errorStyle.Render("✗ Auto-push failed: "+err.Error()))
	}
	a.ws.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close local store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// newPrinter shows workspace notifications on w. Error notices are skipped:
// the failing command returns the same error and main prints it.
func newPrinter(w io.Writer) workspace.Notifier {
	return workspace.NotifierFunc(func(level workspace.Level, message string) {
		switch level {
		case workspace.LevelSuccess:
			fmt.Fprintln(w, successStyle.Render("✓ "+message))
		case workspace.LevelError:
		default:
			fmt.Fprintln(w, infoStyle.Render("• "+message))
		}
	})
}
