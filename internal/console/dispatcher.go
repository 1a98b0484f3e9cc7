package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"llamero/internal/api"
)

// Operator-facing messages for pre-flight rejections and settled dispatches.
const (
	msgSignIn        = "Sign in before running console actions"
	msgSelectBackend = "Select a backend before running an action"
	msgStreamDone    = "Stream completed"
	msgActionFailed  = "Action failed"
)

// ChunkSink receives result text as it is appended, in arrival order. Nil is
// allowed; the accumulated buffer is always available on the Execution.
type ChunkSink func(chunk string)

// Execution is the state of one dispatched action. It is created on submit,
// mutated only by the dispatch in flight, and terminal once that settles. A
// new submit always starts a fresh Execution.
type Execution struct {
	Action    Action
	BackendID string
	Fields    Fields

	mu        sync.Mutex
	loading   bool
	streaming bool
	result    strings.Builder
	errMsg    string
}

// Result returns the accumulated display text.
func (e *Execution) Result() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.String()
}

// Err returns the pre-flight rejection message, or "". In-flight failures
// surface through Result, not here.
func (e *Execution) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Loading reports whether the dispatch is still in flight.
func (e *Execution) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Streaming reports whether an incremental response is being consumed.
func (e *Execution) Streaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaming
}

func (e *Execution) append(chunk string, sink ChunkSink) {
	e.mu.Lock()
	e.result.WriteString(chunk)
	e.mu.Unlock()
	if sink != nil {
		sink(chunk)
	}
}

func (e *Execution) settle() {
	e.mu.Lock()
	e.loading = false
	e.streaming = false
	e.mu.Unlock()
}

// Dispatcher executes console actions against the control plane. Every
// dispatch is gated on session validity and carries the current bearer token
// through the shared client.
type Dispatcher struct {
	client *api.Client
	tokens api.TokenSource
}

// NewDispatcher creates a Dispatcher over the shared control-plane client.
func NewDispatcher(client *api.Client, tokens api.TokenSource) *Dispatcher {
	return &Dispatcher{client: client, tokens: tokens}
}

// Execute runs one action to completion. It never returns an error: every
// failure lands in the returned Execution as display state. The call blocks
// until the dispatch settles; sink observes text as it accumulates.
func (d *Dispatcher) Execute(ctx context.Context, action Action, backendID string, fields Fields, sink ChunkSink) *Execution {
	exec := &Execution{Action: action, BackendID: backendID, Fields: fields}

	if d.tokens == nil || d.tokens.Token() == "" {
		exec.errMsg = msgSignIn
		return exec
	}

	request := BuildRequest(action, backendID, fields)
	if request.RequiresBackend && backendID == "" {
		exec.errMsg = msgSelectBackend
		return exec
	}

	exec.loading = true
	exec.streaming = action.Streaming()
	defer exec.settle()

	if action == ActionModels {
		d.runModels(ctx, exec, sink)
		return exec
	}

	var body any
	if payload := SanitizeBody(request.Body); payload != nil {
		body = payload
	}
	apiReq := api.Request{
		Method:   request.Method,
		Endpoint: request.Path,
		Body:     body,
		NoRetry:  true,
	}

	if action.Streaming() {
		d.runStreaming(ctx, exec, apiReq, sink)
	} else {
		d.runBuffered(ctx, exec, apiReq, sink)
	}
	return exec
}

// runModels serves the models action through the typed tags call rather than
// the generic request path.
func (d *Dispatcher) runModels(ctx context.Context, exec *Execution, sink ChunkSink) {
	tags, err := d.client.BackendTags(ctx, exec.BackendID)
	if err != nil {
		exec.append(failureText(err), sink)
		return
	}
	pretty, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		exec.append(msgActionFailed, sink)
		return
	}
	exec.append(string(pretty), sink)
}

func (d *Dispatcher) runBuffered(ctx context.Context, exec *Execution, req api.Request, sink ChunkSink) {
	resp, err := d.client.DoRaw(ctx, req)
	if err != nil {
		slog.Error("backend action failed", "action", exec.Action, "backend", exec.BackendID, "error", err)
		exec.append(failureText(err), sink)
		return
	}
	exec.append(printable(resp.Body, resp.StatusCode), sink)
}

func (d *Dispatcher) runStreaming(ctx context.Context, exec *Execution, req api.Request, sink ChunkSink) {
	stream, err := d.client.DoStream(ctx, req)
	if err != nil {
		slog.Error("backend action failed", "action", exec.Action, "backend", exec.BackendID, "error", err)
		exec.append(failureText(err), sink)
		return
	}
	defer func() { _ = stream.Close() }()

	buf := make([]byte, 4096)
	hasChunks := false
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			hasChunks = true
			exec.append(string(buf[:n]), sink)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
				slog.Warn("stream interrupted", "action", exec.Action, "error", readErr)
			}
			break
		}
	}
	if !hasChunks {
		exec.append(msgStreamDone, sink)
	}
}

// failureText picks the text displayed for a failed dispatch: the raw
// response body when the control plane answered, the error string otherwise.
func failureText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return apiErr.RawDetail()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return msgActionFailed
}

// printable renders a buffered success body: structured JSON is re-indented
// with its key order intact, anything else is shown verbatim, and an empty
// body falls back to the status text.
func printable(body []byte, statusCode int) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return http.StatusText(statusCode)
	}
	if gjson.ValidBytes(body) {
		var out bytes.Buffer
		if err := json.Indent(&out, bytes.TrimSpace(body), "", "  "); err == nil {
			return out.String()
		}
	}
	return string(body)
}
