// Package tui is the interactive terminal front end for the backend console.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"llamero/internal/api"
	"llamero/internal/console"
	"llamero/internal/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	healthyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

type focusArea int

const (
	focusBackend focusArea = iota
	focusAction
	focusFields
)

type backendsMsg struct {
	backends []api.Backend
	err      error
}

type chunkMsg struct{ text string }

type doneMsg struct{ exec *console.Execution }

// Model is the Bubble Tea model for the backend console.
type Model struct {
	session    *session.Manager
	client     *api.Client
	dispatcher *console.Dispatcher

	backends   []api.Backend
	backendIdx int
	actionIdx  int
	inputs     []textinput.Model
	specs      []console.FieldSpec
	force      bool
	focus      focusArea
	fieldIdx   int

	spin      spinner.Model
	vp        viewport.Model
	ready     bool
	loading   bool
	streaming bool
	listBusy  bool
	errText   string
	// result is a plain string: the model is copied by value on every Update,
	// which a strings.Builder does not survive.
	result string

	events <-chan tea.Msg
	cancel context.CancelFunc
	width  int
	height int
}

// New builds the console model over an authenticated session.
func New(sess *session.Manager, client *api.Client) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		session:    sess,
		client:     client,
		dispatcher: console.NewDispatcher(client, sess),
		spin:       sp,
		listBusy:   true,
	}
	m.rebuildInputs()
	return m
}

func (m *Model) rebuildInputs() {
	action := console.Actions[m.actionIdx]
	m.specs = action.FieldSpecs()
	m.inputs = make([]textinput.Model, len(m.specs))
	for i, spec := range m.specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = spec.Label
		ti.CharLimit = 0
		m.inputs[i] = ti
	}
	m.fieldIdx = 0
	m.force = false
}

func (m Model) fields() console.Fields {
	var f console.Fields
	for i, spec := range m.specs {
		value := strings.TrimSpace(m.inputs[i].Value())
		switch spec.Key {
		case "model":
			f.Model = value
		case "source":
			f.Source = value
		case "destination":
			f.Destination = value
		case "modelfile":
			f.Modelfile = value
		case "keep_alive":
			f.KeepAlive = value
		case "quantize":
			f.Quantize = value
		case "system":
			f.System = value
		}
	}
	f.Force = m.force
	return f
}

// Init loads the backend fleet immediately.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadBackends())
}

func (m Model) loadBackends() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		backends, err := client.ListBackends(context.Background())
		return backendsMsg{backends: backends, err: err}
	}
}

func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// submit starts a dispatch. The submit key is ignored while one is in
// flight: a single console instance never has two dispatches racing.
func (m *Model) submit() tea.Cmd {
	if m.loading {
		return nil
	}
	action := console.Actions[m.actionIdx]
	backendID := ""
	if m.backendIdx < len(m.backends) {
		backendID = m.backends[m.backendIdx].ID
	}
	fields := m.fields()

	m.loading = true
	m.streaming = action.Streaming()
	m.errText = ""
	m.result = ""
	m.syncViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	ch := make(chan tea.Msg, 16)
	m.events = ch
	dispatcher := m.dispatcher
	go func() {
		// Sends race the operator quitting. Once the program stops draining
		// the channel, ctx cancellation is the only way out.
		exec := dispatcher.Execute(ctx, action, backendID, fields, func(chunk string) {
			select {
			case ch <- chunkMsg{text: chunk}:
			case <-ctx.Done():
			}
		})
		select {
		case ch <- doneMsg{exec: exec}:
		case <-ctx.Done():
		}
		close(ch)
	}()
	return listen(ch)
}

func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	text := m.result
	if text == "" {
		switch {
		case m.loading && m.streaming:
			text = "Streaming..."
		case m.loading:
			text = "Running..."
		default:
			text = "Awaiting action"
		}
	}
	m.vp.SetContent(text)
	if m.streaming {
		m.vp.GotoBottom()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 16
		if vpHeight < 5 {
			vpHeight = 5
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width-4, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width - 4
			m.vp.Height = vpHeight
		}
		m.syncViewport()
		return m, nil

	case backendsMsg:
		m.listBusy = false
		if msg.err != nil {
			m.errText = "Unable to load backends"
			return m, nil
		}
		m.backends = msg.backends
		if m.backendIdx >= len(m.backends) {
			m.backendIdx = 0
		}
		return m, nil

	case chunkMsg:
		m.result += msg.text
		m.syncViewport()
		return m, listen(m.events)

	case doneMsg:
		m.stopDispatch()
		m.loading = false
		m.streaming = false
		if msg.exec != nil {
			if rejection := msg.exec.Err(); rejection != "" {
				m.errText = rejection
			}
			m.result = msg.exec.Result()
		}
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stopDispatch()
		return m, tea.Quit
	case "q":
		// Only quit when no text input has focus.
		if m.focus != focusFields || len(m.inputs) == 0 {
			m.stopDispatch()
			return m, tea.Quit
		}
	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil
	case "enter":
		return m, m.submit()
	case "ctrl+r":
		m.listBusy = true
		return m, m.loadBackends()
	}

	switch m.focus {
	case focusBackend:
		switch msg.String() {
		case "up", "k":
			if m.backendIdx > 0 {
				m.backendIdx--
			}
		case "down", "j":
			if m.backendIdx < len(m.backends)-1 {
				m.backendIdx++
			}
		}
	case focusAction:
		switch msg.String() {
		case "up", "k":
			if m.actionIdx > 0 {
				m.actionIdx--
				m.rebuildInputs()
			}
		case "down", "j":
			if m.actionIdx < len(console.Actions)-1 {
				m.actionIdx++
				m.rebuildInputs()
			}
		}
	case focusFields:
		action := console.Actions[m.actionIdx]
		if msg.String() == "ctrl+f" && action.HasForceToggle() {
			m.force = !m.force
			return m, nil
		}
		if len(m.inputs) > 0 {
			switch msg.String() {
			case "up":
				if m.fieldIdx > 0 {
					m.inputs[m.fieldIdx].Blur()
					m.fieldIdx--
					m.inputs[m.fieldIdx].Focus()
				}
				return m, nil
			case "down":
				if m.fieldIdx < len(m.inputs)-1 {
					m.inputs[m.fieldIdx].Blur()
					m.fieldIdx++
					m.inputs[m.fieldIdx].Focus()
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.inputs[m.fieldIdx], cmd = m.inputs[m.fieldIdx].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// stopDispatch cancels any dispatch in flight so its goroutine is not left
// blocked on a channel nobody drains.
func (m *Model) stopDispatch() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) cycleFocus(dir int) {
	if len(m.inputs) > 0 && m.focus == focusFields {
		m.inputs[m.fieldIdx].Blur()
	}
	m.focus = focusArea((int(m.focus) + dir + 3) % 3)
	if m.focus == focusFields && len(m.inputs) > 0 {
		m.fieldIdx = 0
		m.inputs[0].Focus()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	var b strings.Builder

	header := titleStyle.Render("Llamero backend console")
	if who := m.session.Claims(); who != nil && who.Email != "" {
		header += mutedStyle.Render("  " + who.Email)
	}
	b.WriteString(header + "\n\n")

	b.WriteString(m.fleetView() + "\n")
	b.WriteString(m.formView() + "\n")

	if m.errText != "" {
		b.WriteString(dangerStyle.Render(m.errText) + "\n")
	}

	resultTitle := "Result"
	if m.loading {
		resultTitle = m.spin.View() + " " + resultTitle
	}
	b.WriteString(mutedStyle.Render(resultTitle) + "\n")
	b.WriteString(panelStyle.Render(m.vp.View()) + "\n")
	b.WriteString(mutedStyle.Render("tab focus · enter run · ctrl+r refresh fleet · ctrl+f force · q quit"))
	return b.String()
}

func (m Model) fleetView() string {
	if len(m.backends) == 0 {
		if m.listBusy {
			return mutedStyle.Render("Discovering backends…")
		}
		return mutedStyle.Render("No backends registered")
	}
	var rows []string
	for i, backend := range m.backends {
		health := healthyStyle.Render("healthy")
		if !backend.Healthy {
			health = dangerStyle.Render("unreachable")
		}
		line := fmt.Sprintf("%s  %s  %s  %.0f ms", backend.ID, backend.Address, health, backend.LatencyMS)
		if i == m.backendIdx {
			marker := "> "
			if m.focus == focusBackend {
				line = activeStyle.Render(marker + line)
			} else {
				line = marker + line
			}
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) formView() string {
	action := console.Actions[m.actionIdx]

	actionLine := "Action: " + action.Label()
	if m.focus == focusAction {
		actionLine = activeStyle.Render("> " + actionLine + "  (↑/↓ change)")
	} else {
		actionLine = "  " + actionLine
	}

	parts := []string{actionLine}
	for i, spec := range m.specs {
		label := mutedStyle.Render(spec.Label + ": ")
		parts = append(parts, "  "+label+m.inputs[i].View())
	}
	if action.HasForceToggle() {
		toggle := "[ ] force"
		if m.force {
			toggle = "[x] force"
		}
		parts = append(parts, "  "+mutedStyle.Render(toggle))
	}
	return panelStyle.Render(strings.Join(parts, "\n"))
}
