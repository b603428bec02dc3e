package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ragdash/internal/domain"
	"ragdash/internal/pdfinfo"
	"ragdash/internal/projection"
	"ragdash/internal/workflow"
)

// WorkflowPort is the TUI-facing subset of the workflow store.
type WorkflowPort interface {
	Snapshot() workflow.Snapshot
	Upload(ctx context.Context, f *domain.File) error
	RunPipeline(ctx context.Context) error
	SetQuery(q string)
	UpdateConfig(fn func(domain.PipelineConfig) domain.PipelineConfig) error
	DismissError()
	SetActiveTab(i int)
}

// HealthFunc probes the remote service.
type HealthFunc func(ctx context.Context) error

// StateChangedMsg tells the model the store changed outside of Update.
type StateChangedMsg struct{}

type (
	fileLoadedMsg struct {
		info pdfinfo.Info
		err  error
	}
	uploadDoneMsg struct {
		pages int
		err   error
	}
	pipelineDoneMsg struct{ err error }
	healthMsg       struct{ err error }
)

type focus int

const (
	focusPath focus = iota
	focusQuery
	focusConfig
	focusCount
)

type configField int

const (
	fieldMethod configField = iota
	fieldChunkSize
	fieldOverlap
	fieldBM25
	fieldCosine
	fieldFaiss
	fieldRerank
	fieldTopK
	fieldCount
)

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	ctx      context.Context
	port     WorkflowPort
	health   HealthFunc
	loadFile func(path string) (pdfinfo.Info, error)

	pathInput  textinput.Model
	queryInput textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model

	focus    focus
	cursor   configField
	snap     workflow.Snapshot
	pages    int
	status   string
	remote   string
	digest   string
	digestOf string
	width    int
	ready    bool
	spinning bool

	// rendered is the result pane content for renderedFor; fresh is false
	// until the first render and after every resize.
	rendered    string
	renderedFor renderKey
	fresh       bool
}

// renderKey holds every input of renderContent.
type renderKey struct {
	result *domain.PipelineResult
	tab    int
	query  string
	method domain.ChunkMethod
	digest string
	width  int
}

// New creates the dashboard model. health may be nil.
func New(ctx context.Context, port WorkflowPort, health HealthFunc) Model {
	path := textinput.New()
	path.Prompt = "file> "
	path.Placeholder = "path/to/document.pdf, Enter to upload"
	path.CharLimit = 0
	path.Focus()

	query := textinput.New()
	query.Prompt = "query> "
	query.Placeholder = "Enter your search query..."
	query.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		port:       port,
		health:     health,
		loadFile:   pdfinfo.Load,
		pathInput:  path,
		queryInput: query,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		status:     "Upload a PDF document and enter a query to start the analysis.",
	}
	m.snap = port.Snapshot()
	return m
}

// WithPath prefills the file input.
func (m Model) WithPath(path string) Model {
	m.pathInput.SetValue(path)
	return m
}

// Init starts the cursor blink and the health probe. The spinner only ticks
// while a remote call is in flight.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.health != nil {
		health, ctx := m.health, m.ctx
		cmds = append(cmds, func() tea.Msg { return healthMsg{err: health(ctx)} })
	}
	return tea.Batch(cmds...)
}

// Update handles input, background completions and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		var handled bool
		m, cmd, handled = m.handleKey(msg)
		if !handled {
			cmd = m.updateInputs(msg)
		}
	case spinner.TickMsg:
		// the spinner is drawn by View; the result pane is untouched
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fileLoadedMsg:
		cmd = m.onFileLoaded(msg)
	case uploadDoneMsg:
		switch {
		case msg.err == nil:
			m.pages = msg.pages
			m.status = fmt.Sprintf("Loaded %s.", m.port.Snapshot().Document.FileName)
		case errors.Is(msg.err, workflow.ErrSuperseded):
		case errors.Is(msg.err, domain.ErrUpload):
			m.status = "Upload failed."
		default:
			m.status = "Upload rejected."
		}
	case pipelineDoneMsg:
		switch {
		case msg.err == nil:
			m.status = "Pipeline finished."
			m.viewport.GotoTop()
		case errors.Is(msg.err, workflow.ErrSuperseded):
		case errors.Is(msg.err, domain.ErrPipeline):
			m.status = "Pipeline failed."
		default:
			m.status = "Pipeline not started."
		}
	case healthMsg:
		if msg.err != nil {
			m.remote = "remote unreachable"
		} else {
			m.remote = "remote ok"
		}
	case StateChangedMsg:
	default:
		var vcmd tea.Cmd
		m.viewport, vcmd = m.viewport.Update(msg)
		cmd = tea.Batch(m.updateInputs(msg), vcmd)
	}
	tick := m.sync()
	switch {
	case tick == nil:
		return m, cmd
	case cmd == nil:
		return m, tick
	}
	return m, tea.Batch(cmd, tick)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		return m, tea.Quit, true
	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil, true
	case "shift+tab":
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil, true
	case "esc":
		m.port.DismissError()
		return m, nil, true
	case "ctrl+r":
		return m, m.runPipeline(), true
	case "ctrl+t":
		m.port.SetActiveTab((m.snap.ActiveTab + 1) % projection.TabCount)
		return m, nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	case "enter":
		switch m.focus {
		case focusPath:
			return m, m.upload(), true
		case focusQuery:
			return m, m.runPipeline(), true
		}
		return m, nil, true
	}
	if m.focus == focusConfig {
		switch msg.String() {
		case "up", "k":
			m.cursor = (m.cursor + fieldCount - 1) % fieldCount
		case "down", "j":
			m.cursor = (m.cursor + 1) % fieldCount
		case "left", "h":
			m.adjust(-1)
		case "right", "l", " ":
			m.adjust(1)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case focusQuery:
		m.queryInput, cmd = m.queryInput.Update(msg)
		m.port.SetQuery(m.queryInput.Value())
	}
	return cmd
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.pathInput.Blur()
	m.queryInput.Blur()
	switch f {
	case focusPath:
		m.pathInput.Focus()
	case focusQuery:
		m.queryInput.Focus()
	}
}

// upload lets the store reject a wrong extension before the file is read, so
// the disk and the network are never touched for it.
func (m *Model) upload() tea.Cmd {
	path := strings.TrimSpace(m.pathInput.Value())
	if path == "" {
		return nil
	}
	if m.snap.Uploading() {
		return nil
	}
	if !workflow.IsPDF(path) {
		port, ctx, name := m.port, m.ctx, filepath.Base(path)
		return func() tea.Msg {
			return uploadDoneMsg{err: port.Upload(ctx, &domain.File{Name: name})}
		}
	}
	load := m.loadFile
	return func() tea.Msg {
		info, err := load(path)
		return fileLoadedMsg{info: info, err: err}
	}
}

func (m *Model) onFileLoaded(msg fileLoadedMsg) tea.Cmd {
	if msg.err != nil {
		m.status = "Cannot read file: " + msg.err.Error()
		return nil
	}
	m.status = "Uploading " + msg.info.File.Name + "..."
	port, ctx, file, pages := m.port, m.ctx, msg.info.File, msg.info.Pages
	return func() tea.Msg {
		return uploadDoneMsg{pages: pages, err: port.Upload(ctx, &file)}
	}
}

// runPipeline mirrors the execute control, which is disabled while a run is
// in flight.
func (m *Model) runPipeline() tea.Cmd {
	if m.snap.Processing() {
		return nil
	}
	m.port.SetQuery(m.queryInput.Value())
	port, ctx := m.port, m.ctx
	return func() tea.Msg {
		return pipelineDoneMsg{err: port.RunPipeline(ctx)}
	}
}

func (m *Model) adjust(delta int) {
	var fn func(domain.PipelineConfig) domain.PipelineConfig
	switch m.cursor {
	case fieldMethod:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig {
			if delta < 0 {
				return c.WithMethod(c.Method.Prev())
			}
			return c.WithMethod(c.Method.Next())
		}
	case fieldChunkSize:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig {
			return c.WithChunkSize(c.ChunkSize + delta*domain.ChunkSizeStep)
		}
	case fieldOverlap:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig {
			return c.WithOverlap(c.Overlap + delta*domain.OverlapStep)
		}
	case fieldBM25:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig { return c.WithBM25(!c.UseBM25) }
	case fieldCosine:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig { return c.WithCosine(!c.UseCosine) }
	case fieldFaiss:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig { return c.WithFaiss(!c.UseFaiss) }
	case fieldRerank:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig { return c.WithRerank(!c.RerankEnabled) }
	case fieldTopK:
		fn = func(c domain.PipelineConfig) domain.PipelineConfig { return c.WithTopK(c.TopK + delta) }
	default:
		return
	}
	if err := m.port.UpdateConfig(fn); err != nil {
		m.status = err.Error()
	}
}

// sync pulls the latest snapshot, re-renders the result pane only when one
// of its inputs changed, and starts the spinner when a call is in flight.
func (m *Model) sync() tea.Cmd {
	m.snap = m.port.Snapshot()
	if text := m.snap.Document.ExtractedText; text != m.digestOf {
		m.digestOf = text
		m.digest = documentDigest(text)
	}
	if key := m.renderKey(); !m.fresh || key != m.renderedFor {
		m.renderedFor, m.fresh = key, true
		m.rendered = m.renderContent()
		m.viewport.SetContent(m.rendered)
	}
	if m.busy() && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m Model) renderKey() renderKey {
	return renderKey{
		result: m.snap.Result,
		tab:    m.snap.ActiveTab,
		query:  m.snap.ResultQuery,
		method: m.snap.Config.Method,
		digest: m.digest,
		width:  m.viewport.Width,
	}
}

func (m Model) busy() bool { return m.snap.Uploading() || m.snap.Processing() }

func (m *Model) resize(width, height int) {
	m.width = width
	mainWidth := width - sidebarWidth - 1
	_, bh := mainBoxStyle.GetFrameSize()
	_, qh := inputBoxStyle.GetFrameSize()
	reserved := 1 + 1 + 1 + 2*(qh+1) + 1 // header, banner, tabs, two inputs, status
	vh := height - reserved - bh
	m.viewport.Width = max(20, mainWidth-4)
	m.viewport.Height = max(3, vh)
	m.pathInput.Width = max(10, width-16)
	m.queryInput.Width = max(10, width-16)
	m.fresh = false
}
