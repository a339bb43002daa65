package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

const minPasswordLen = 6

// User is the authenticated session returned after a successful sign-up or
// sign-in.
type User struct {
	UID          string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// Service authenticates users against the Google Identity Toolkit REST API.
// All credential checks are delegated to the provider; this package only
// pre-validates what the provider would reject anyway and translates its
// error codes.
type Service struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

func NewService(client *http.Client, apiKey string, tracer trace.Tracer) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		client:  client,
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

// SignUp registers a new email/password account. Passwords shorter than six
// characters are rejected locally without a round trip.
func (s *Service) SignUp(ctx context.Context, email, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignUp")
	defer span.End()

	if len(password) < minPasswordLen {
		return nil, &Error{Code: CodeWeakPassword, Op: "sign-up"}
	}
	return s.call(ctx, "accounts:signUp", "sign-up", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignIn authenticates an existing email/password account.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignIn")
	defer span.End()

	return s.call(ctx, "accounts:signInWithPassword", "sign-in", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInWithGoogle exchanges a Google ID token for a session. An empty token
// means the user dismissed the consent flow before completing it.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.SignInWithGoogle")
	defer span.End()

	if idToken == "" {
		return nil, &Error{Code: CodeSignInCancelled, Op: "google"}
	}
	return s.call(ctx, "accounts:signInWithIdp", "google", map[string]any{
		"postBody":            "id_token=" + url.QueryEscape(idToken) + "&providerId=google.com",
		"requestUri":          "http://localhost",
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	})
}

// SignOut discards the session. Tokens are stateless on the provider side,
// so there is nothing to revoke and the call always succeeds.
func (s *Service) SignOut(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "auth.SignOut")
	defer span.End()
	return nil
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Service) call(ctx context.Context, endpoint, op string, payload map[string]any) (*User, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", endpoint, err)
	}

	u := fmt.Sprintf("%s/%s?key=%s", s.baseURL, endpoint, url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var pe providerError
		if err := json.NewDecoder(resp.Body).Decode(&pe); err != nil || pe.Error.Message == "" {
			return nil, &Error{Code: CodeUnknown, Op: op}
		}
		return nil, &Error{Code: translateProviderCode(pe.Error.Message), Op: op}
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return &user, nil
}
