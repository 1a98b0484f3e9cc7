package api

// User is the server-confirmed identity record for the signed-in operator.
type User struct {
	ID          string   `json:"id,omitempty"`
	Sub         string   `json:"sub,omitempty"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Role        string   `json:"role,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	LastLoginAt string   `json:"last_login_at,omitempty"`
}

// Backend describes one registered inference node.
type Backend struct {
	ID        string  `json:"id,omitempty"`
	Address   string  `json:"address,omitempty"`
	Healthy   bool    `json:"healthy,omitempty"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	// LoadedModels are the models currently running on the node.
	LoadedModels []string `json:"loaded_models,omitempty"`
	// Models are the installed models available on disk.
	Models []string `json:"models,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// ModelTag is one entry of a backend's tag catalogue.
type ModelTag struct {
	Name       string `json:"name,omitempty"`
	Digest     string `json:"digest,omitempty"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// TagsResponse is the backend tag catalogue snapshot.
type TagsResponse struct {
	Models []ModelTag `json:"models,omitempty"`
}

// Model is one entry of the cross-backend aggregated catalogue, in the
// OpenAI-compatible resource shape.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList is the response envelope for the aggregated catalogue.
type ModelList struct {
	Object string  `json:"object,omitempty"`
	Data   []Model `json:"data,omitempty"`
}

// PersonalAccessToken is a listed PAT record. The secret is never included.
type PersonalAccessToken struct {
	ID         string   `json:"id,omitempty"`
	JTI        string   `json:"jti,omitempty"`
	UserID     string   `json:"user_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	TokenType  string   `json:"token_type,omitempty"`
	Scopes     []string `json:"scopes,omitempty"`
	Revoked    bool     `json:"revoked,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
	ExpiresAt  string   `json:"expires_at,omitempty"`
	LastUsedAt string   `json:"last_used_at,omitempty"`
}

// IssuedToken is the one-time issue response: a PAT record plus its secret,
// returned exactly once at creation.
type IssuedToken struct {
	PersonalAccessToken
	Token string `json:"token,omitempty"`
}

// CreateTokenRequest issues a new PAT. Zero-value fields are omitted and the
// server applies its defaults.
type CreateTokenRequest struct {
	Name      string   `json:"name,omitempty"`
	ExpiresIn int64    `json:"expires_in,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
}
