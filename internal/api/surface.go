package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Profile fetches the signed-in operator's identity record. An empty success
// response means the server has no record; callers get nil, not a zero value.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	resp, err := c.DoRaw(ctx, Request{Method: http.MethodGet, Endpoint: "/api/profile"})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, NewTransportError("failed to decode response: "+err.Error(), err)
	}
	return &user, nil
}

// ListTokens returns the operator's personal access tokens.
func (c *Client) ListTokens(ctx context.Context) ([]PersonalAccessToken, error) {
	var tokens []PersonalAccessToken
	err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: "/api/profile/tokens"}, &tokens)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// CreateToken issues a new personal access token. The returned secret is
// shown exactly once; it cannot be retrieved again.
func (c *Client) CreateToken(ctx context.Context, req CreateTokenRequest) (*IssuedToken, error) {
	var issued IssuedToken
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/profile/tokens",
		Body:     req,
	}, &issued)
	if err != nil {
		return nil, err
	}
	return &issued, nil
}

// RevokeToken revokes the personal access token with the given id.
func (c *Client) RevokeToken(ctx context.Context, id string) error {
	return c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Endpoint: "/api/profile/tokens/" + url.PathEscape(id),
	}, nil)
}

// ListModels returns the model catalogue aggregated across every backend.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var list ModelList
	err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: "/api/models"}, &list)
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetModel returns the catalogue record for one model id.
func (c *Client) GetModel(ctx context.Context, modelID string) (*Model, error) {
	var model Model
	err := c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "/api/models/" + url.PathEscape(modelID),
	}, &model)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ListBackends returns the registered backend fleet snapshot.
func (c *Client) ListBackends(ctx context.Context) ([]Backend, error) {
	var backends []Backend
	err := c.Do(ctx, Request{Method: http.MethodGet, Endpoint: "/api/backends"}, &backends)
	if err != nil {
		return nil, err
	}
	return backends, nil
}

// BackendTags returns a backend's installed model catalogue.
func (c *Client) BackendTags(ctx context.Context, backendID string) (*TagsResponse, error) {
	var tags TagsResponse
	err := c.Do(ctx, Request{
		Method:   http.MethodGet,
		Endpoint: "/api/backends/" + url.PathEscape(backendID) + "/tags",
	}, &tags)
	if err != nil {
		return nil, err
	}
	return &tags, nil
}
