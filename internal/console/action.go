// Package console turns a selected administrative action into a control-plane
// request and executes it, folding the outcome into a display buffer.
package console

// Action is one administrative operation the console can run against a
// backend. The set is closed: BuildRequest is total over it.
type Action string

const (
	ActionPS      Action = "ps"
	ActionVersion Action = "version"
	ActionPull    Action = "pull"
	ActionPush    Action = "push"
	ActionCreate  Action = "create"
	ActionCopy    Action = "copy"
	ActionDelete  Action = "delete"
	ActionShow    Action = "show"
	ActionModels  Action = "models"
)

// Actions lists every action in display order.
var Actions = []Action{
	ActionPS,
	ActionVersion,
	ActionPull,
	ActionPush,
	ActionCreate,
	ActionCopy,
	ActionDelete,
	ActionShow,
	ActionModels,
}

var labels = map[Action]string{
	ActionPS:      "List running models",
	ActionVersion: "Get Ollama version",
	ActionPull:    "Pull model",
	ActionPush:    "Push model",
	ActionCreate:  "Create model",
	ActionCopy:    "Copy model",
	ActionDelete:  "Delete model",
	ActionShow:    "Inspect model",
	ActionModels:  "List models",
}

// Label returns the human-readable name of the action.
func (a Action) Label() string { return labels[a] }

// Streaming reports whether the action's response body is consumed
// incrementally. Pulls, pushes, creates and copies run for minutes; the
// operator must see progress as it arrives.
func (a Action) Streaming() bool {
	switch a {
	case ActionPull, ActionPush, ActionCreate, ActionCopy:
		return true
	}
	return false
}

// Fields carries the form inputs an action draws its request body from.
// Each action uses a fixed subset; the rest is ignored.
type Fields struct {
	Model       string
	Source      string
	Destination string
	Modelfile   string
	System      string
	KeepAlive   string
	Quantize    string
	Force       bool
}

// FieldSpec describes one text input the front end should offer.
type FieldSpec struct {
	Key      string
	Label    string
	Textarea bool
}

// FieldSpecs returns the text inputs for the action. The delete action
// additionally offers a force toggle, surfaced via HasForceToggle.
func (a Action) FieldSpecs() []FieldSpec {
	switch a {
	case ActionCopy:
		return []FieldSpec{
			{Key: "source", Label: "Source model"},
			{Key: "destination", Label: "Destination model"},
		}
	case ActionPull, ActionPush, ActionDelete, ActionShow:
		return []FieldSpec{{Key: "model", Label: "Model"}}
	case ActionCreate:
		return []FieldSpec{
			{Key: "model", Label: "Model"},
			{Key: "modelfile", Label: "Modelfile", Textarea: true},
			{Key: "keep_alive", Label: "Keep alive"},
			{Key: "quantize", Label: "Quantization"},
		}
	}
	return nil
}

// HasForceToggle reports whether the action offers a force flag.
func (a Action) HasForceToggle() bool { return a == ActionDelete }
