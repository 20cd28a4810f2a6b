package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/tempus-app/tempus/internal/apperrors"
	"github.com/tempus-app/tempus/internal/tokenstore"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(sub).
		Issuer("https://cognito-idp.example.com/pool").
		IssuedAt(exp.Add(-time.Hour)).
		Expiration(exp).
		Claim("email", sub+"@example.com").
		Claim("cognito:username", sub).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestSession_GetTokenSignedOut(t *testing.T) {
	t.Parallel()

	s := NewSession(tokenstore.NewMemory(), nil, nil)
	token, err := s.GetToken(context.Background())
	if err != nil || token != "" {
		t.Fatalf("Expected empty token and no error, got %q, %v", token, err)
	}
	user, err := s.GetCurrentUser(context.Background())
	if err != nil || user != nil {
		t.Fatalf("Expected no user, got %+v, %v", user, err)
	}
}

func TestSession_ValidToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(tokenstore.NewMemory(), nil, nil)
	token := signedToken(t, "ana", time.Now().Add(time.Hour))
	if err := s.SaveTokens(ctx, token, "refresh-1"); err != nil {
		t.Fatalf("SaveTokens failed: %v", err)
	}

	got, err := s.GetToken(ctx)
	if err != nil || got != token {
		t.Fatalf("Expected stored token, got %q, %v", got, err)
	}
	user, err := s.GetCurrentUser(ctx)
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if user.UserID != "ana" || user.Email != "ana@example.com" || user.Username != "ana" {
		t.Errorf("Unexpected user %+v", user)
	}
	if user.Expired(time.Now()) {
		t.Error("Expected unexpired user handle")
	}
}

func TestSession_OpaqueTokenPassesThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(tokenstore.NewMemory(), nil, nil)
	if err := s.SaveTokens(ctx, "opaque-token", ""); err != nil {
		t.Fatalf("SaveTokens failed: %v", err)
	}
	if got, err := s.GetToken(ctx); err != nil || got != "opaque-token" {
		t.Errorf("Expected opaque token, got %q, %v", got, err)
	}
}

func TestSession_ExpiredWithoutRefreshEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(tokenstore.NewMemory(), nil, nil)
	if err := s.SaveTokens(ctx, signedToken(t, "ana", time.Now().Add(-time.Hour)), "refresh-1"); err != nil {
		t.Fatalf("SaveTokens failed: %v", err)
	}
	_, err := s.GetToken(ctx)
	if !apperrors.IsAuth(err) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
}

func TestSession_RefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	fresh := signedToken(t, "ana", time.Now().Add(time.Hour))
	var gotGrant, gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotGrant = r.PostForm.Get("grant_type")
		gotRefresh = r.PostForm.Get("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fresh,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-2",
		})
	}))
	defer srv.Close()

	ctx := context.Background()
	store := tokenstore.NewMemory()
	s := NewSession(store, &OAuthConfig{ClientID: "client", TokenURL: srv.URL + "/oauth2/token"}, nil)
	if err := s.SaveTokens(ctx, signedToken(t, "ana", time.Now().Add(-time.Minute)), "refresh-1"); err != nil {
		t.Fatalf("SaveTokens failed: %v", err)
	}

	got, err := s.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got != fresh {
		t.Error("Expected refreshed access token")
	}
	if gotGrant != "refresh_token" || gotRefresh != "refresh-1" {
		t.Errorf("Unexpected refresh request grant=%q refresh=%q", gotGrant, gotRefresh)
	}
	if v, _, _ := store.Get(ctx, KeyRefreshToken); v != "refresh-2" {
		t.Errorf("Expected rotated refresh token, got %q", v)
	}
}

func TestSession_SignOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSession(tokenstore.NewMemory(), nil, nil)
	if err := s.SaveTokens(ctx, "tok", "ref"); err != nil {
		t.Fatalf("SaveTokens failed: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if got, _ := s.GetToken(ctx); got != "" {
		t.Errorf("Expected no token after sign out, got %q", got)
	}
}

func TestSaveTokens_RequiresAccessToken(t *testing.T) {
	t.Parallel()

	s := NewSession(tokenstore.NewMemory(), nil, nil)
	if err := s.SaveTokens(context.Background(), " ", ""); !apperrors.IsValidation(err) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}
