// Package identity is the client side of the hosted identity provider: it
// keeps the issued tokens, refreshes them and exposes the current user.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tempus-app/tempus/internal/apperrors"
	logpkg "github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/models"
	"github.com/tempus-app/tempus/internal/tokenstore"
)

// Storage keys
const (
	KeyAccessToken  = "tempus.access_token"
	KeyRefreshToken = "tempus.refresh_token"
	KeyUsername     = "tempus.username"
)

// expirySkew refreshes a little before the provider would reject the token
const expirySkew = 30 * time.Second

// Provider is what the gateway needs from the identity collaborator
type Provider interface {
	// GetToken returns the bearer token, or "" when signed out
	GetToken(ctx context.Context) (string, error)
	// GetCurrentUser returns the signed-in user, or nil when signed out
	GetCurrentUser(ctx context.Context) (*models.UserHandle, error)
}

// OAuthConfig names the provider's token endpoint for refresh
type OAuthConfig struct {
	ClientID string
	TokenURL string
}

// Session stores tokens in a tokenstore.Store and refreshes expired access
// tokens with the refresh token when an OAuth2 endpoint is configured
type Session struct {
	store  tokenstore.Store
	oauth  *oauth2.Config
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewSession creates a session. oauthCfg may be nil, in which case expired
// tokens are dropped instead of refreshed.
func NewSession(store tokenstore.Store, oauthCfg *OAuthConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{store: store, logger: logger, now: time.Now}
	if oauthCfg != nil && oauthCfg.TokenURL != "" {
		s.oauth = &oauth2.Config{
			ClientID: oauthCfg.ClientID,
			Scopes:   []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				TokenURL:  oauthCfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
	}
	return s
}

// SaveTokens stores a freshly issued token pair
func (s *Session) SaveTokens(ctx context.Context, accessToken, refreshToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return apperrors.NewValidation("access_token", "is required")
	}
	if err := s.store.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if refreshToken != "" {
		if err := s.store.Set(ctx, KeyRefreshToken, refreshToken); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
	}
	if claims, err := ParseClaims(accessToken); err == nil && claims.Username != "" {
		if err := s.store.Set(ctx, KeyUsername, claims.Username); err != nil {
			return fmt.Errorf("failed to save username: %w", err)
		}
	}
	return nil
}

// SignOut removes every stored credential
func (s *Session) SignOut(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUsername} {
		if err := s.store.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetToken implements Provider
func (s *Session) GetToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if !ok || token == "" {
		return "", nil
	}

	claims, err := ParseClaims(token)
	if err != nil {
		// Not a JWT; the API decides whether it is valid
		return token, nil
	}
	if claims.Exp == 0 || s.now().Add(expirySkew).Before(time.Unix(claims.Exp, 0)) {
		return token, nil
	}

	refreshed, err := s.refresh(ctx)
	if err != nil {
		s.logger.Warn("token_refresh_failed", zap.String("error", logpkg.SanitizeError(err)))
		return "", &apperrors.AuthError{Message: "session expired, sign in again", Err: err}
	}
	return refreshed, nil
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	if s.oauth == nil {
		return "", errors.New("no token endpoint configured")
	}
	refreshToken, ok, err := s.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if !ok || refreshToken == "" {
		return "", errors.New("no refresh token stored")
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: s.now().Add(-time.Minute)}
	tok, err := s.oauth.TokenSource(ctx, expired).Token()
	if err != nil {
		return "", fmt.Errorf("refresh token exchange: %w", err)
	}
	if err := s.store.Set(ctx, KeyAccessToken, tok.AccessToken); err != nil {
		return "", fmt.Errorf("failed to save access token: %w", err)
	}
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		if err := s.store.Set(ctx, KeyRefreshToken, tok.RefreshToken); err != nil {
			return "", fmt.Errorf("failed to save refresh token: %w", err)
		}
	}
	s.logger.Info("token_refreshed", zap.Time("expiry", tok.Expiry))
	return tok.AccessToken, nil
}

// GetCurrentUser implements Provider
func (s *Session) GetCurrentUser(ctx context.Context) (*models.UserHandle, error) {
	token, err := s.GetToken(ctx)
	if err != nil || token == "" {
		return nil, err
	}
	username, _, err := s.store.Get(ctx, KeyUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}

	claims, err := ParseClaims(token)
	if err != nil {
		return &models.UserHandle{Username: username}, nil
	}
	user := &models.UserHandle{
		UserID:   claims.Sub,
		Username: claims.Username,
		Email:    claims.Email,
	}
	if user.Username == "" {
		user.Username = username
	}
	if claims.Exp != 0 {
		user.ExpiresAt = time.Unix(claims.Exp, 0).UTC()
	}
	return user, nil
}

// ParseClaims reads the claims of a JWT without verifying its signature.
// The API verifies tokens; the client only needs expiry and identity.
func ParseClaims(token string) (*models.JWTClaims, error) {
	parsed, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims := &models.JWTClaims{
		Sub: parsed.Subject(),
		Iss: parsed.Issuer(),
	}
	if exp := parsed.Expiration(); !exp.IsZero() {
		claims.Exp = exp.Unix()
	}
	if iat := parsed.IssuedAt(); !iat.IsZero() {
		claims.Iat = iat.Unix()
	}
	if email, ok := parsed.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := parsed.Get("cognito:username"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Username = nameStr
		}
	} else if name, ok := parsed.Get("username"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Username = nameStr
		}
	}
	return claims, nil
}

// StaticToken is a Provider for a fixed token, used by tools and tests
type StaticToken string

func (t StaticToken) GetToken(context.Context) (string, error) { return string(t), nil }

func (t StaticToken) GetCurrentUser(context.Context) (*models.UserHandle, error) {
	if t == "" {
		return nil, nil
	}
	claims, err := ParseClaims(string(t))
	if err != nil {
		return &models.UserHandle{}, nil
	}
	return &models.UserHandle{UserID: claims.Sub, Username: claims.Username, Email: claims.Email}, nil
}

var (
	_ Provider = (*Session)(nil)
	_ Provider = StaticToken("")
)
