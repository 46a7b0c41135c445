package token

import "encoding/json"

// Pair is the access/refresh token pair issued by the Auth API.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// wirePair accepts both the camelCase shape the dashboard expects and the
// snake_case OAuth2 shape the backend emits.
type wirePair struct {
	AccessToken       string `json:"accessToken"`
	RefreshToken      string `json:"refreshToken"`
	AccessTokenSnake  string `json:"access_token"`
	RefreshTokenSnake string `json:"refresh_token"`
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var w wirePair
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.AccessToken = firstNonEmpty(w.AccessToken, w.AccessTokenSnake)
	p.RefreshToken = firstNonEmpty(w.RefreshToken, w.RefreshTokenSnake)
	return nil
}

// Empty reports whether no access token is present.
func (p *Pair) Empty() bool {
	return p == nil || p.AccessToken == ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
