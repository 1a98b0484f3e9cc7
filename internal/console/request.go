package console

import (
	"fmt"
	"net/http"
	"net/url"
)

// ActionRequest is the ephemeral description of one administrative call.
type ActionRequest struct {
	Method string
	Path   string
	Body   map[string]any
	// RequiresBackend marks requests that are meaningless without a target
	// node. The dispatcher enforces this before any network call.
	RequiresBackend bool
}

// BuildRequest maps an action to its method, path and body. It is total over
// the Action set; an unknown value is a programming error and panics.
func BuildRequest(action Action, backendID string, fields Fields) ActionRequest {
	base := "/api/backends/" + url.PathEscape(backendID)

	switch action {
	case ActionPS:
		return ActionRequest{Method: http.MethodGet, Path: base + "/ps", RequiresBackend: true}
	case ActionVersion:
		return ActionRequest{Method: http.MethodGet, Path: base + "/version", RequiresBackend: true}
	case ActionPull:
		return ActionRequest{
			Method:          http.MethodPost,
			Path:            base + "/pull",
			Body:            map[string]any{"model": fields.Model},
			RequiresBackend: true,
		}
	case ActionPush:
		return ActionRequest{
			Method:          http.MethodPost,
			Path:            base + "/push",
			Body:            map[string]any{"model": fields.Model},
			RequiresBackend: true,
		}
	case ActionCreate:
		return ActionRequest{
			Method: http.MethodPost,
			Path:   base + "/create",
			Body: map[string]any{
				"model":      fields.Model,
				"modelfile":  fields.Modelfile,
				"keep_alive": fields.KeepAlive,
				"quantize":   fields.Quantize,
			},
			RequiresBackend: true,
		}
	case ActionCopy:
		return ActionRequest{
			Method: http.MethodPost,
			Path:   base + "/copy",
			Body: map[string]any{
				"source":      fields.Source,
				"destination": fields.Destination,
			},
			RequiresBackend: true,
		}
	case ActionDelete:
		return ActionRequest{
			Method: http.MethodDelete,
			Path:   base + "/delete",
			Body: map[string]any{
				"model": fields.Model,
				"force": fields.Force,
			},
			RequiresBackend: true,
		}
	case ActionShow:
		return ActionRequest{
			Method: http.MethodPost,
			Path:   base + "/show",
			Body: map[string]any{
				"model":  fields.Model,
				"system": fields.System,
			},
			RequiresBackend: true,
		}
	case ActionModels:
		// Served through the typed tags call; kept here for totality.
		return ActionRequest{Method: http.MethodGet, Path: base + "/tags", RequiresBackend: true}
	}
	panic(fmt.Sprintf("unhandled action: %q", action))
}

// SanitizeBody drops empty-string and nil values. Booleans always survive: a
// false force flag is meaningful. A body left with no keys becomes nil and is
// never transmitted as "{}".
func SanitizeBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	payload := make(map[string]any, len(body))
	for key, value := range body {
		if value == nil || value == "" {
			continue
		}
		payload[key] = value
	}
	if len(payload) == 0 {
		return nil
	}
	return payload
}
