package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls to the Auth API.
var ErrCircuitOpen = errors.New("auth api unavailable: circuit open")

// maxErrorBody bounds how much of a failure body is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx answer from the Auth API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("auth api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("auth api: HTTP %d: %s", e.Status, e.Detail)
}

// Unauthorized reports whether the server rejected the presented credentials or token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// DetailOf returns the server-supplied detail message carried by err, if any.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func decodeAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{Status: resp.StatusCode, Detail: detailFromBody(body)}
}

// detailFromBody extracts the detail message from a failure body. It also
// understands the OAuth2 error shape used by the token endpoint.
func detailFromBody(body []byte) string {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		switch d := er.Detail.(type) {
		case string:
			return d
		case []any:
			if len(d) > 0 {
				if first, ok := d[0].(map[string]any); ok {
					if msg, ok := first["msg"].(string); ok {
						return msg
					}
				}
			}
		}
	}

	var oauthErr struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &oauthErr); err == nil {
		if oauthErr.ErrorDescription != "" {
			return oauthErr.ErrorDescription
		}
		return oauthErr.Error
	}
	return ""
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
