package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-session/internal/config"
	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is what the Auth API asserts about the bearer of an access token.
type Claims struct {
	Subject   string
	Email     string
	Role      users.RoleType
	ExpiresAt time.Time
	ID        string
}

// Creator issues and verifies HS256 access tokens
type Creator struct {
	config config.StubConfig
	secret []byte
}

// NewCreator creates a new JWT creator
func NewCreator(cfg config.StubConfig) *Creator {
	return &Creator{
		config: cfg,
		secret: []byte(cfg.GetTokenSecret()),
	}
}

// CreateAccessToken creates an access token for the user
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	raw, _, err := c.Issue(user)
	return raw, err
}

// Issue creates an access token and also returns the claims it carries.
func (c *Creator) Issue(user *users.User) (string, *Claims, error) {
	now := NowTimeFunc()
	issued := &Claims{
		Subject:   user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: now.Add(c.config.GetAccessTokenExpiry()),
		ID:        uuid.New().String(),
	}
	claims := jwtlib.MapClaims{
		"sub":   issued.Subject,
		"email": issued.Email,
		"role":  string(issued.Role),
		"iat":   now.Unix(),
		"exp":   issued.ExpiresAt.Unix(),
		"jti":   issued.ID,
	}

	signedToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, issued, nil
}

// Verify checks the signature and expiry of rawToken and returns its claims
func (c *Creator) Verify(rawToken string) (*Claims, error) {
	token, err := jwtlib.Parse(rawToken, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwtlib.WithTimeFunc(NowTimeFunc), jwtlib.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, sessionerrors.ErrTokenExpired
		}
		return nil, sessionerrors.Wrapf(sessionerrors.ErrInvalidToken, "%v", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return nil, sessionerrors.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, sessionerrors.ErrInvalidToken
	}

	return &Claims{
		Subject:   sub,
		Email:     email,
		Role:      users.RoleType(role),
		ExpiresAt: exp.Time,
		ID:        jti,
	}, nil
}
