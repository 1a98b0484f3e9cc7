package console

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_Copy(t *testing.T) {
	req := BuildRequest(ActionCopy, "b1", Fields{Source: "a", Destination: "b"})

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/backends/b1/copy", req.Path)
	assert.True(t, req.RequiresBackend)
	assert.Equal(t, map[string]any{"source": "a", "destination": "b"}, SanitizeBody(req.Body))
}

func TestBuildRequest_DeleteKeepsFalseForce(t *testing.T) {
	req := BuildRequest(ActionDelete, "b1", Fields{Force: false})

	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api/backends/b1/delete", req.Path)

	body := SanitizeBody(req.Body)
	require.NotNil(t, body)
	// Booleans survive sanitization; an absent model does not.
	assert.Equal(t, false, body["force"])
	assert.NotContains(t, body, "model")
}

func TestBuildRequest_Create(t *testing.T) {
	req := BuildRequest(ActionCreate, "node-2", Fields{
		Model:     "mistral:custom",
		Modelfile: "FROM mistral",
		KeepAlive: "5m",
	})

	assert.Equal(t, "/api/backends/node-2/create", req.Path)
	body := SanitizeBody(req.Body)
	assert.Equal(t, map[string]any{
		"model":      "mistral:custom",
		"modelfile":  "FROM mistral",
		"keep_alive": "5m",
	}, body)
}

func TestBuildRequest_ReadsHaveNoBody(t *testing.T) {
	for _, action := range []Action{ActionPS, ActionVersion, ActionModels} {
		req := BuildRequest(action, "b1", Fields{})
		assert.Equal(t, http.MethodGet, req.Method, string(action))
		assert.Nil(t, req.Body, string(action))
		assert.True(t, req.RequiresBackend, string(action))
	}
}

func TestBuildRequest_PathEscapesBackendID(t *testing.T) {
	req := BuildRequest(ActionPS, "node/with spaces", Fields{})
	assert.Equal(t, "/api/backends/node%2Fwith%20spaces/ps", req.Path)
}

func TestBuildRequest_UnknownActionPanics(t *testing.T) {
	assert.Panics(t, func() {
		BuildRequest(Action("restart"), "b1", Fields{})
	})
}

func TestSanitizeBody(t *testing.T) {
	assert.Nil(t, SanitizeBody(nil))

	// All-empty bodies collapse to nil, never to {}.
	assert.Nil(t, SanitizeBody(map[string]any{"model": "", "system": ""}))

	got := SanitizeBody(map[string]any{"model": "llama3", "quantize": "", "force": false, "insecure": true})
	assert.Equal(t, map[string]any{"model": "llama3", "force": false, "insecure": true}, got)
}

func TestActionStreaming(t *testing.T) {
	streamed := map[Action]bool{
		ActionPull: true, ActionPush: true, ActionCreate: true, ActionCopy: true,
	}
	for _, action := range Actions {
		assert.Equal(t, streamed[action], action.Streaming(), string(action))
	}
}
