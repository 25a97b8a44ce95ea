package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/utils"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// expirySkew refreshes tokens slightly before they lapse
const expirySkew = time.Minute

// Service implements the auth.Service interface using AWS Cognito
type Service struct {
	api      API
	sessions Repository
	secrets  SecretSource
	cfg      Config
	log      *zap.Logger
	now      func() time.Time

	mu            sync.Mutex
	verifiedToken string
	verifiedUser  auth.User
}

// NewService creates a new Cognito auth service. secrets may be nil when the
// app client has no secret.
func NewService(api API, sessions Repository, secrets SecretSource, cfg Config, log *zap.Logger) *Service {
	return &Service{
		api:      api,
		sessions: sessions,
		secrets:  secrets,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Login authenticates a user and stores the resulting session
func (s *Service) Login(ctx context.Context, input auth.LoginInput) (auth.User, error) {
	if err := utils.ValidateRequiredString(input.Email, "email"); err != nil {
		return auth.User{}, err
	}
	if err := utils.ValidateRequiredString(input.Password, "password"); err != nil {
		return auth.User{}, err
	}

	params := map[string]string{
		"USERNAME": input.Email,
		"PASSWORD": input.Password,
	}
	if err := s.addSecretHash(ctx, params, input.Email); err != nil {
		return auth.User{}, err
	}

	// Authenticate with Cognito
	authResult, err := s.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(s.cfg.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		if isAuthFailure(err) {
			return auth.User{}, auth.InvalidCredentialsError(err)
		}
		return auth.User{}, apperrors.NewTransportError("authentication request failed", err)
	}

	// Challenges (MFA, new password) are completed outside this client
	if authResult.ChallengeName != "" {
		return auth.User{}, auth.ChallengeRequiredError(string(authResult.ChallengeName))
	}
	if authResult.AuthenticationResult == nil {
		return auth.User{}, auth.InvalidTokenError()
	}

	session, user, err := s.sessionFromResult(authResult.AuthenticationResult, auth.Session{Username: input.Email})
	if err != nil {
		return auth.User{}, err
	}
	if user.Email == "" {
		user.Email = input.Email
	}

	s.sessions.SaveSession(session)
	s.remember(session.AccessToken, user)

	s.log.Info("Signed in", zap.String("user", user.ID))
	return user, nil
}

// CurrentUser returns the signed-in user, refreshing an expired access token
// and confirming the token with Cognito once per process
func (s *Service) CurrentUser(ctx context.Context) (auth.User, error) {
	session := s.sessions.LoadSession()
	if session.IsZero() {
		return auth.User{}, auth.NotSignedInError()
	}

	if session.Expired(s.now(), expirySkew) {
		refreshed, err := s.refresh(ctx, session)
		if err != nil {
			return auth.User{}, err
		}
		session = refreshed
	}

	if user, ok := s.recall(session.AccessToken); ok {
		return user, nil
	}

	user, err := s.getUser(ctx, session.AccessToken)
	if err != nil {
		return auth.User{}, err
	}
	s.remember(session.AccessToken, user)
	return user, nil
}

// Logout signs the user out everywhere and forgets the local session.
// A failed remote sign-out still clears the local session.
func (s *Service) Logout(ctx context.Context) error {
	session := s.sessions.LoadSession()
	s.forget()
	if session.IsZero() {
		return nil
	}

	_, err := s.api.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(session.AccessToken),
	})
	s.sessions.ClearSession()

	if err != nil && !isAuthFailure(err) {
		s.log.Warn("Remote sign-out failed, local session cleared", zap.Error(err))
		return apperrors.NewTransportError("failed to sign out", err)
	}
	s.log.Info("Signed out", zap.String("user", session.Username))
	return nil
}

// refresh exchanges the refresh token for a new access token. A rejected
// refresh token ends the session.
func (s *Service) refresh(ctx context.Context, session auth.Session) (auth.Session, error) {
	if session.RefreshToken == "" {
		s.sessions.ClearSession()
		return auth.Session{}, auth.NotSignedInError()
	}

	params := map[string]string{
		"REFRESH_TOKEN": session.RefreshToken,
	}
	if err := s.addSecretHash(ctx, params, session.Username); err != nil {
		return auth.Session{}, err
	}

	authResult, err := s.api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshToken,
		ClientId:       aws.String(s.cfg.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		if isAuthFailure(err) {
			s.sessions.ClearSession()
			s.forget()
			return auth.Session{}, fmt.Errorf("%w: %v", auth.ErrNotSignedIn, err)
		}
		return auth.Session{}, apperrors.NewTransportError("failed to refresh token", err)
	}
	if authResult.AuthenticationResult == nil {
		return auth.Session{}, auth.InvalidTokenError()
	}

	refreshed, _, err := s.sessionFromResult(authResult.AuthenticationResult, session)
	if err != nil {
		return auth.Session{}, err
	}
	s.sessions.SaveSession(refreshed)

	s.log.Debug("Refreshed session", zap.Time("expiresAt", refreshed.ExpiresAt))
	return refreshed, nil
}

func (s *Service) getUser(ctx context.Context, accessToken string) (auth.User, error) {
	result, err := s.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		if isAuthFailure(err) {
			s.sessions.ClearSession()
			return auth.User{}, fmt.Errorf("%w: %v", auth.ErrNotSignedIn, err)
		}
		return auth.User{}, apperrors.NewTransportError("failed to get user details", err)
	}

	user := auth.User{
		Username: aws.ToString(result.Username),
	}
	for _, attr := range result.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			user.ID = aws.ToString(attr.Value)
		case "email":
			user.Email = aws.ToString(attr.Value)
		case "name":
			user.Name = aws.ToString(attr.Value)
		}
	}
	if claims, err := utils.ParseUnverified(accessToken); err == nil {
		if user.ID == "" {
			user.ID = claims.Subject
		}
		user.TokenMetadata = auth.TokenMetadata{
			IssuedAt:  claims.IssuedAtTime(),
			ExpiresAt: claims.ExpiresAtTime(),
		}
	}
	if user.ID == "" {
		user.ID = user.Username
	}
	return user, nil
}

// sessionFromResult builds a session from Cognito tokens. prev supplies the
// username and refresh token when the result omits them.
func (s *Service) sessionFromResult(result *types.AuthenticationResultType, prev auth.Session) (auth.Session, auth.User, error) {
	accessToken := aws.ToString(result.AccessToken)
	claims, err := utils.ParseUnverified(accessToken)
	if err != nil {
		return auth.Session{}, auth.User{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if s.cfg.UserPoolID != "" && claims.Issuer != "" &&
		claims.Issuer != utils.GetTokenIssuer(s.cfg.UserPoolID, s.cfg.Region) {
		return auth.Session{}, auth.User{}, auth.InvalidTokenError()
	}

	session := auth.Session{
		Username:     prev.Username,
		AccessToken:  accessToken,
		RefreshToken: prev.RefreshToken,
		IdToken:      aws.ToString(result.IdToken),
		TokenType:    aws.ToString(result.TokenType),
		ExpiresAt:    claims.ExpiresAtTime(),
	}
	if claims.Username != "" {
		session.Username = claims.Username
	}
	if rt := aws.ToString(result.RefreshToken); rt != "" {
		session.RefreshToken = rt
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = s.now().Add(time.Duration(result.ExpiresIn) * time.Second)
	}

	user := auth.User{
		ID:       claims.Subject,
		Username: session.Username,
		TokenMetadata: auth.TokenMetadata{
			IssuedAt:  claims.IssuedAtTime(),
			ExpiresAt: session.ExpiresAt,
		},
	}
	if session.IdToken != "" {
		if idClaims, err := utils.ParseUnverified(session.IdToken); err == nil {
			user.Email = idClaims.Email
			user.Name = idClaims.Name
		}
	}
	return session, user, nil
}

// addSecretHash sets SECRET_HASH when the app client has a secret
func (s *Service) addSecretHash(ctx context.Context, params map[string]string, username string) error {
	if s.secrets == nil {
		return nil
	}
	secret, err := s.secrets.ClientSecret(ctx)
	if err != nil {
		return apperrors.NewTransportError("failed to resolve client secret", err)
	}
	params["SECRET_HASH"] = SecretHash(username, s.cfg.ClientID, secret)
	return nil
}

// SecretHash computes Base64(HMAC_SHA256(secret, username + clientID))
func SecretHash(username, clientID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Service) remember(token string, user auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiedToken = token
	s.verifiedUser = user
}

func (s *Service) recall(token string) (auth.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || token != s.verifiedToken {
		return auth.User{}, false
	}
	return s.verifiedUser, true
}

func (s *Service) forget() {
	s.remember("", auth.User{})
}

// isAuthFailure reports whether Cognito rejected the credentials or token
func isAuthFailure(err error) bool {
	var notAuthorized *types.NotAuthorizedException
	var userNotFound *types.UserNotFoundException
	return errors.As(err, &notAuthorized) || errors.As(err, &userNotFound)
}
