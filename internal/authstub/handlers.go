package authstub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-session/authapi"
	sessionerrors "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/users"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	grantTypeRefreshToken = "refresh_token"
)

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type authResponse struct {
	User   users.User     `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// tokenResponse is the RFC 6749 token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// fieldError mirrors one entry of a FastAPI request validation failure.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.Credentials
		if !decodeBody(w, r, &req, "email", "password") {
			return
		}
		if req.Email == "" {
			writeFieldError(w, "email", "field required")
			return
		}

		s.accountsLock.Lock()
		defer s.accountsLock.Unlock()

		user, err := s.users.GetByEmail(users.NormalizeEmail(req.Email))
		if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeDetail(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}

		user.LastLogin = nowISO()
		if err := s.users.Upsert(user); err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
			writeDetail(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		s.writeAuthResponse(w, user, http.StatusOK)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RegisterRequest
		if !decodeBody(w, r, &req, "email", "password", "name") {
			return
		}
		if req.Email == "" {
			writeFieldError(w, "email", "field required")
			return
		}

		s.accountsLock.Lock()
		defer s.accountsLock.Unlock()

		email := users.NormalizeEmail(req.Email)
		if _, err := s.users.GetByEmail(email); err == nil {
			writeDetail(w, "Email already registered", http.StatusBadRequest)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			log.Err(err).Msg("Failed to hash password")
			writeDetail(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		now := nowISO()
		user := &users.User{
			Email:        email,
			Name:         req.Name,
			Role:         users.RoleUser,
			CreatedAt:    now,
			LastLogin:    now,
			PasswordHash: hash,
		}
		if err := s.users.Upsert(user); err != nil {
			log.Err(err).Msg("Failed to store user")
			writeDetail(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		log.Info().Str("user_id", user.ID).Msg("User registered")
		s.writeAuthResponse(w, user, http.StatusOK)
	}
}

// ForgotPasswordHandler answers the same way whether or not the email is known.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.ForgotPasswordRequest
		if !decodeBody(w, r, &req, "email") {
			return
		}

		email := users.NormalizeEmail(req.Email)
		if _, err := s.users.GetByEmail(email); err == nil {
			if _, err := s.resets.issue(email); err != nil {
				log.Err(err).Msg("Failed to issue reset token")
				writeDetail(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, messageResponse{Message: "If the email exists, a reset link has been sent"}, http.StatusOK)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.ResetPasswordRequest
		if !decodeBody(w, r, &req, "token", "password") {
			return
		}

		email, err := s.resets.consume(req.Token)
		switch {
		case errors.Is(err, sessionerrors.ErrTokenExpired):
			writeDetail(w, "Reset token has expired", http.StatusBadRequest)
			return
		case err != nil:
			writeDetail(w, "Invalid or expired reset token", http.StatusBadRequest)
			return
		}

		s.accountsLock.Lock()
		defer s.accountsLock.Unlock()

		user, err := s.users.GetByEmail(email)
		if err == nil {
			user.PasswordHash, err = users.HashPassword(req.Password)
			if err == nil {
				err = s.users.Upsert(user)
			}
			if err == nil {
				err = s.revokeUser(user.ID)
			}
			if err != nil {
				log.Err(err).Msg("Failed to update password")
				writeDetail(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, messageResponse{Message: "Password reset successful"}, http.StatusOK)
	}
}

func (s *Server) ValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeDetail(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		claims, err := s.access.Verify(raw)
		if err != nil || s.revoked.IsRevoked(claims.ID) {
			writeDetail(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if _, err := s.users.GetByID(claims.Subject); err != nil {
			writeDetail(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		writeJSON(w, authapi.ValidateResponse{Valid: true}, http.StatusOK)
	}
}

// TokenHandler serves the refresh_token grant. Refresh tokens rotate on use.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}
		if gt := r.FormValue("grant_type"); gt != grantTypeRefreshToken {
			writeJSONError(w, "unsupported_grant_type", "grant_type must be refresh_token", http.StatusBadRequest)
			return
		}
		refreshToken := r.FormValue("refresh_token")
		if refreshToken == "" {
			writeJSONError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
			return
		}

		userID, rotated, err := s.refresh.Rotate(refreshToken)
		if err != nil {
			writeJSONError(w, "invalid_grant", err.Error(), http.StatusBadRequest)
			return
		}
		user, err := s.users.GetByID(userID)
		if err != nil {
			writeJSONError(w, "invalid_grant", sessionerrors.ErrUserNotFound.Error(), http.StatusBadRequest)
			return
		}
		accessToken, err := s.issueAccessToken(user)
		if err != nil {
			log.Err(err).Msg("Failed to create access token")
			writeJSONError(w, "server_error", "failed to create access token", http.StatusInternalServerError)
			return
		}

		log.Debug().Str("client_id", r.FormValue("client_id")).Str("user_id", userID).Msg("Refresh token rotated")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, tokenResponse{
			AccessToken:  accessToken,
			TokenType:    "bearer",
			ExpiresIn:    int(s.config.GetAccessTokenExpiry() / time.Second),
			RefreshToken: rotated,
		}, http.StatusOK)
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) writeAuthResponse(w http.ResponseWriter, user *users.User, status int) {
	accessToken, err := s.issueAccessToken(user)
	if err != nil {
		log.Err(err).Msg("Failed to create access token")
		writeDetail(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		log.Err(err).Msg("Failed to create refresh token")
		writeDetail(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, authResponse{
		User: *user,
		Tokens: tokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.config.GetAccessTokenExpiry() / time.Second),
		},
	}, status)
}

// decodeBody reads a JSON body and reports a FastAPI style 422 when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, fields ...string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		loc := "body"
		if len(fields) > 0 {
			loc = fields[0]
		}
		writeFieldError(w, loc, "invalid request body")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", false
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, detail string, status int) {
	writeJSON(w, authapi.ErrorResponse{Detail: detail}, status)
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, authapi.ErrorResponse{Detail: []fieldError{{
		Loc:  []string{"body", field},
		Msg:  msg,
		Type: "value_error",
	}}}, http.StatusUnprocessableEntity)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, map[string]string{
		"error":             errorCode,
		"error_description": description,
	}, statusCode)
}

func nowISO() string {
	return NowTimeFunc().UTC().Format(time.RFC3339)
}
