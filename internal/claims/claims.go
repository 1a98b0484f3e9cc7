// Package claims decodes the payload segment of a Llamero bearer token.
//
// No signature or audience check happens here: the control plane re-authorizes
// every request, and decoded claims are display hints only. Never gate
// client-side behavior on them.
package claims

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
)

// Claims is the decoded JWT payload used across Llamero services.
type Claims struct {
	Sub         string   `json:"sub,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
	Type        string   `json:"type,omitempty"`
	ExternalSub string   `json:"ext_sub,omitempty"`
	Issuer      string   `json:"iss,omitempty"`
	Audience    Audience `json:"aud,omitempty"`
	JTI         string   `json:"jti,omitempty"`
	IssuedAt    int64    `json:"iat,omitempty"`
	ExpiresAt   int64    `json:"exp,omitempty"`
}

// Audience tolerates both the string and []string encodings of "aud".
type Audience []string

func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = Audience(many)
	return nil
}

// Decode returns the claims carried in token's payload segment, or nil when
// the token is malformed. It never fails loudly: an undecodable token simply
// has no claims to show.
func Decode(token string) *Claims {
	if token == "" {
		return nil
	}
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		slog.Debug("failed to decode token payload", "error", err)
		return nil
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		slog.Debug("invalid token payload", "error", err)
		return nil
	}
	return &c
}
