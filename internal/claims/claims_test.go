package claims

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadSegment(t *testing.T, json string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(json))
}

func TestDecode_ValidToken(t *testing.T) {
	payload := payloadSegment(t, `{"sub":"u-1","email":"ops@example.com","role":"admin","scopes":["models:read","models:write"],"type":"session","aud":"llamero","iat":1700000000,"exp":1700003600}`)
	token := "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig"

	c := Decode(token)
	require.NotNil(t, c)
	assert.Equal(t, "u-1", c.Sub)
	assert.Equal(t, "ops@example.com", c.Email)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, []string{"models:read", "models:write"}, c.Scopes)
	assert.Equal(t, Audience{"llamero"}, c.Audience)
	assert.Equal(t, int64(1700003600), c.ExpiresAt)
}

func TestDecode_TwoSegmentToken(t *testing.T) {
	// Tokens without a signature segment still decode; claims are display
	// hints, not a trust boundary.
	token := "header." + payloadSegment(t, `{"role":"viewer"}`)
	c := Decode(token)
	require.NotNil(t, c)
	assert.Equal(t, "viewer", c.Role)
}

func TestDecode_AudienceList(t *testing.T) {
	token := "h." + payloadSegment(t, `{"aud":["a","b"]}`)
	c := Decode(token)
	require.NotNil(t, c)
	assert.Equal(t, Audience{"a", "b"}, c.Audience)
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no separator":     "justonechunk",
		"bad base64":       "header.!!!not-base64!!!",
		"payload not json": "header." + payloadSegment(t, "plain text"),
		"payload is array": "header." + payloadSegment(t, `[1,2,3]`),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, Decode(token))
		})
	}
}

func TestDecode_PaddedPayload(t *testing.T) {
	padded := base64.URLEncoding.EncodeToString([]byte(`{"sub":"padded"}`))
	c := Decode("h." + padded)
	require.NotNil(t, c)
	assert.Equal(t, "padded", c.Sub)
}
