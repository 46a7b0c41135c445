package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/config"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON       = "application/json"
	defaultRequestTimeout = 15 * time.Second
	defaultClientID       = "bagbot-dashboard"
)

// Client is the Auth API client. It sends exactly one request per call; any
// timeout comes from the underlying http.Client.
type Client struct {
	baseURL   string
	clientID  string
	http      *http.Client
	transport *breakerTransport
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL  string
	timeout  time.Duration
	clientID string
	base     http.RoundTripper
	breaker  BreakerSettings
}

// WithBaseURL overrides the API root passed to New. An empty value is ignored.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithClientID sets the client_id sent on the refresh grant.
func WithClientID(id string) Option {
	return func(o *clientOptions) { o.clientID = id }
}

// WithTransport replaces the base round tripper underneath the circuit breaker.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

func WithBreaker(s BreakerSettings) Option {
	return func(o *clientOptions) { o.breaker = s }
}

// New creates a client for the Auth API rooted at baseURL (e.g. "https://host/api").
func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{
		baseURL:  baseURL,
		timeout:  defaultRequestTimeout,
		clientID: defaultClientID,
		base:     http.DefaultTransport,
		breaker:  DefaultBreakerSettings(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := newBreakerTransport(o.base, o.breaker)
	return &Client{
		baseURL:  strings.TrimRight(o.baseURL, "/"),
		clientID: o.clientID,
		http: &http.Client{
			Transport: transport,
			Timeout:   o.timeout,
		},
		transport: transport,
	}
}

// NewFromConfig creates a client from the environment backed configuration.
// Options given here are applied after the configured ones.
func NewFromConfig(cfg interface {
	config.ClientConfig
	config.BreakerConfig
}, opts ...Option) *Client {
	configured := []Option{
		WithTimeout(cfg.GetRequestTimeout()),
		WithClientID(cfg.GetClientID()),
		WithBreaker(BreakerSettings{
			Name:         "auth-api",
			FailureRatio: cfg.GetBreakerFailureRatio(),
			MinRequests:  cfg.GetBreakerMinRequests(),
			Timeout:      cfg.GetBreakerOpenTimeout(),
		}),
	}
	return New(cfg.GetAPIURL(), append(configured, opts...)...)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState returns the state of the circuit breaker guarding the Auth API.
func (c *Client) BreakerState() gobreaker.State {
	return c.transport.State()
}

// Login exchanges credentials for a user record and token pair.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, RouteLogin, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, RouteRegister, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the Auth API to send a reset link. The response body is ignored.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	return c.postJSON(ctx, RouteForgotPassword, req, nil)
}

// ResetPassword sets a new password using a reset token. The response body is ignored.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.postJSON(ctx, RouteResetPassword, req, nil)
}

// Validate is the liveness check for a stored access token.
func (c *Client) Validate(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+RouteValidate, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var vr ValidateResponse
	if err := c.do(req, &vr); err != nil {
		return err
	}
	if !vr.Valid {
		return &APIError{Status: http.StatusUnauthorized, Detail: "Token is not valid"}
	}
	return nil
}

// Refresh redeems refreshToken at the token endpoint using the OAuth2
// refresh_token grant. If the server does not rotate the refresh token the
// presented one is kept.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	conf := &oauth2.Config{
		ClientID: c.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + RouteToken,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			detail := re.ErrorDescription
			if detail == "" {
				detail = detailFromBody(re.Body)
			}
			return nil, &APIError{Status: re.Response.StatusCode, Detail: detail}
		}
		return nil, fmt.Errorf("POST %s: %w", RouteToken, err)
	}

	pair := &token.Pair{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	return pair, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	return c.do(req, dst)
}

// do sends req and decodes a 2xx JSON body into dst; dst may be nil.
func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp)
		log.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", apiErr.Status).
			Str("detail", apiErr.Detail).
			Msg("auth api request rejected")
		return apiErr
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}
