package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(serverURL string, token string) *Client {
	cfg := DefaultConfig(serverURL)
	cfg.MaxRetries = 0
	return New(cfg, StaticToken(token))
}

func TestDo_SetsAuthAndRequestID(t *testing.T) {
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var result map[string]bool
	err := testClient(server.URL, "tok-1").Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/api/profile",
	}, &result)

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", headers.Get("Authorization"))
	assert.NotEmpty(t, headers.Get("X-Request-ID"))
	assert.True(t, result["ok"])
}

func TestDo_NoTokenOmitsAuthHeader(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := testClient(server.URL, "").Do(context.Background(), Request{
		Method:   http.MethodGet,
		Endpoint: "/api/backends",
	}, nil)

	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestDoRaw_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"missing scope backends:write"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, "tok").DoRaw(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/api/backends/b1/pull",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "missing scope backends:write", apiErr.Message)
	assert.Contains(t, apiErr.RawDetail(), "missing scope")
}

func TestDoRaw_RetriesIdempotentReads(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.MaxRetries = 2
	cfg.InitialBackoff = time.Millisecond
	client := New(cfg, nil)

	resp, err := client.DoRaw(context.Background(), Request{Method: http.MethodGet, Endpoint: "/api/backends"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRaw_NoRetryForWritesOrWhenForced(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.MaxRetries = 3
	cfg.InitialBackoff = time.Millisecond
	client := New(cfg, nil)

	_, err := client.DoRaw(context.Background(), Request{Method: http.MethodPost, Endpoint: "/x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	_, err = client.DoRaw(context.Background(), Request{Method: http.MethodGet, Endpoint: "/x", NoRetry: true})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoStream_ReturnsBodyReader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("chunk"))
	}))
	defer server.Close()

	stream, err := testClient(server.URL, "tok").DoStream(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/api/backends/b1/pull",
		Body:     map[string]string{"model": "llama3"},
	})
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "chunk", string(data))
}

func TestDoStream_NonSuccessIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"expired"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, "tok").DoStream(context.Background(), Request{
		Method:   http.MethodPost,
		Endpoint: "/api/backends/b1/pull",
	})

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestErrorMessage(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"flat error":    {`{"error":"bad input"}`, "bad input"},
		"nested error":  {`{"error":{"error":"deep"}}`, "deep"},
		"data envelope": {`{"data":{"error":"from data"}}`, "from data"},
		"message field": {`{"message":"try later"}`, "try later"},
		"plain text":    {`service unavailable`, "service unavailable"},
		"empty":         {``, ""},
		"unusable json": {`{"code":42}`, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorMessage([]byte(tc.body)))
		})
	}
}

func TestProfile_EmptySuccessBodyIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	profile, err := testClient(server.URL, "tok").Profile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestSurface_Endpoints(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/profile":
			_, _ = w.Write([]byte(`{"email":"ops@example.com"}`))
		case r.URL.Path == "/api/profile/tokens" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"t1","name":"ci"}]`))
		case r.URL.Path == "/api/profile/tokens" && r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"id":"t2","token":"secret-once"}`))
		case r.URL.Path == "/api/profile/tokens/t1":
			_, _ = w.Write([]byte(`{}`))
		case r.URL.Path == "/api/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama3","object":"model","created":1714000000,"owned_by":"ollama"}]}`))
		case r.URL.Path == "/api/models/llama3":
			_, _ = w.Write([]byte(`{"id":"llama3","owned_by":"ollama"}`))
		case r.URL.Path == "/api/backends":
			_, _ = w.Write([]byte(`[{"id":"b1","healthy":true}]`))
		case r.URL.Path == "/api/backends/b1/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := testClient(server.URL, "tok")
	ctx := context.Background()

	profile, err := client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", profile.Email)

	tokens, err := client.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "ci", tokens[0].Name)

	issued, err := client.CreateToken(ctx, CreateTokenRequest{Name: "new"})
	require.NoError(t, err)
	assert.Equal(t, "secret-once", issued.Token)

	require.NoError(t, client.RevokeToken(ctx, "t1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/profile/tokens/t1", gotPath)

	models, err := client.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama3", models[0].ID)
	assert.Equal(t, "ollama", models[0].OwnedBy)

	model, err := client.GetModel(ctx, "llama3")
	require.NoError(t, err)
	assert.Equal(t, "llama3", model.ID)

	backends, err := client.ListBackends(ctx)
	require.NoError(t, err)
	require.Len(t, backends, 1)
	assert.True(t, backends[0].Healthy)

	tags, err := client.BackendTags(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, tags.Models, 1)
	assert.Equal(t, "llama3", tags.Models[0].Name)
}
