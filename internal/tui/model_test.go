package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ragdash/internal/domain"
	"ragdash/internal/projection"
	"ragdash/internal/remote"
	"ragdash/internal/workflow"
)

func newTestModel(t *testing.T) (Model, *remote.MockService, *workflow.Store) {
	t.Helper()
	svc := &remote.MockService{}
	store := workflow.New(svc)
	m := New(context.Background(), store, nil)
	m = step(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	return m, svc, store
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func sampleResult() domain.PipelineResult {
	return domain.PipelineResult{
		Response: "Go is fast.",
		Chunks: []domain.Chunk{
			{ID: 1, Content: "Go is simple."},
			{ID: 2, Content: "Go is fast. It compiles quickly."},
			{ID: 3, Content: "Go has goroutines."},
		},
		RetrievedChunks: []int{2},
		Metrics: domain.Metrics{
			NumChunks: 3, WeightedScore: 0.875, LatencyMs: 120,
			AvgCoherence: 0.8, CPUUsagePercent: 12.5, MemoryUsageMB: 256,
			ContextPreservation: 0.7, Coverage: 0.6, SemanticCoverage: 0.5,
		},
	}
}

func TestViewBeforeResize(t *testing.T) {
	store := workflow.New(&remote.MockService{})
	m := New(context.Background(), store, nil)
	assert.Equal(t, "Initializing...", m.View())
}

func TestUploadRejectsNonPDF(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m = typeText(t, m, "notes.txt")

	m, cmd := stepCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(uploadDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, workflow.ErrNotPDF)

	m = step(t, m, msg)
	assert.Equal(t, "Upload rejected.", m.status)
	assert.Contains(t, m.View(), "Please upload a PDF file")
	svc.AssertNotCalled(t, "ExtractDocument", mock.Anything, mock.Anything, mock.Anything)

	m = step(t, m, key(tea.KeyEsc))
	assert.NotContains(t, m.View(), "Please upload a PDF file")
}

func TestUploadThenRunPipeline(t *testing.T) {
	m, svc, store := newTestModel(t)

	data := []byte("%PDF-1.4 not really")
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	text := "Go is simple. Go is fast."

	svc.On("ExtractDocument", mock.Anything, "report.pdf", data).
		Return(domain.Document{ExtractedText: text, FileName: "report.pdf"}, nil).Once()
	svc.On("RunPipeline", mock.Anything, text, "fast", domain.DefaultPipelineConfig()).
		Return(sampleResult(), nil).Once()

	m = typeText(t, m, path)
	m, load := stepCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, load)
	m, upload := stepCmd(t, m, load())
	require.NotNil(t, upload)
	m = step(t, m, upload())

	view := m.View()
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "Gradient › 4/5")
	assert.Contains(t, view, "6 words extracted")
	assert.Contains(t, m.status, "Loaded report.pdf")

	m = step(t, m, key(tea.KeyTab))
	m = typeText(t, m, "fast")
	assert.Equal(t, "fast", store.Snapshot().Query)

	m, run := stepCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, run)
	m = step(t, m, run())

	view = m.View()
	assert.Contains(t, view, "System Metrics")
	assert.Contains(t, view, "Chunks (3)")
	content := m.renderContent()
	assert.Contains(t, content, "AI Response")
	assert.Contains(t, content, "87.5%")
	assert.Contains(t, content, "Overall Score 88 out of 100")

	m = step(t, m, key(tea.KeyCtrlT))
	assert.Equal(t, projection.TabChunks, store.Snapshot().ActiveTab)
	content = m.renderContent()
	assert.Contains(t, content, "3 chunks created • 1 retrieved")
	assert.Contains(t, content, "Chunk #2")
	assert.Contains(t, content, "✓ Retrieved")

	// editing the query afterwards does not change what the result is matched against
	m = typeText(t, m, "er")
	assert.Equal(t, "faster", store.Snapshot().Query)
	assert.Equal(t, "fast", m.renderKey().query)

	m = step(t, m, key(tea.KeyCtrlT))
	assert.Equal(t, projection.TabMetrics, store.Snapshot().ActiveTab)
	svc.AssertExpectations(t)
}

func TestUploadMissingFile(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m = typeText(t, m, filepath.Join(t.TempDir(), "gone.pdf"))

	m, load := stepCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, load)
	m, upload := stepCmd(t, m, load())
	assert.Nil(t, upload)
	assert.Contains(t, m.status, "Cannot read file")
	svc.AssertNotCalled(t, "ExtractDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteWithoutDocument(t *testing.T) {
	m, svc, _ := newTestModel(t)

	m, run := stepCmd(t, m, key(tea.KeyCtrlR))
	require.NotNil(t, run)
	msg := run()
	done, ok := msg.(pipelineDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, workflow.ErrNoDocument)

	m = step(t, m, msg)
	assert.Equal(t, "Pipeline not started.", m.status)
	assert.Contains(t, m.View(), "Please upload a PDF document first")
	svc.AssertNotCalled(t, "RunPipeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfigPanelAdjustsConfiguration(t *testing.T) {
	m, _, store := newTestModel(t)
	m = step(t, m, key(tea.KeyTab))
	m = step(t, m, key(tea.KeyTab))
	require.Equal(t, focusConfig, m.focus)

	// chunk size moves in slider steps
	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyRight))
	assert.Equal(t, 550, store.Config().ChunkSize)
	m = step(t, m, key(tea.KeyLeft))
	m = step(t, m, key(tea.KeyLeft))
	assert.Equal(t, 450, store.Config().ChunkSize)

	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyRight))
	assert.Equal(t, 60, store.Config().Overlap)

	m = step(t, m, key(tea.KeyUp))
	m = step(t, m, key(tea.KeyUp))
	m = step(t, m, key(tea.KeyRight))
	assert.Equal(t, domain.MethodGradientFinal, store.Config().Method)
	m = step(t, m, key(tea.KeyLeft))
	m = step(t, m, key(tea.KeyLeft))
	assert.Equal(t, domain.MethodSentenceDensity, store.Config().Method)

	for i := 0; i < int(fieldBM25); i++ {
		m = step(t, m, key(tea.KeyDown))
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, store.Config().UseBM25)

	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyDown))
	m = step(t, m, key(tea.KeyRight))
	assert.True(t, store.Config().UseFaiss)

	// topK cannot drop below one
	for m.cursor != fieldTopK {
		m = step(t, m, key(tea.KeyDown))
	}
	for i := 0; i < 3; i++ {
		m = step(t, m, key(tea.KeyLeft))
	}
	assert.Equal(t, 1, store.Config().TopK)
	m = step(t, m, key(tea.KeyLeft))
	assert.Equal(t, 1, store.Config().TopK)
	assert.NotEmpty(t, m.status)
}

func TestConfigKeysDoNotReachInputs(t *testing.T) {
	m, _, store := newTestModel(t)
	m = step(t, m, key(tea.KeyShiftTab))
	require.Equal(t, focusConfig, m.focus)

	m = typeText(t, m, "j")
	assert.Empty(t, m.pathInput.Value())
	assert.Empty(t, store.Snapshot().Query)
	assert.Equal(t, fieldChunkSize, m.cursor)
}

func TestHealthStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = step(t, m, healthMsg{err: errors.New("dial tcp: refused")})
	assert.Contains(t, m.View(), "remote unreachable")
	m = step(t, m, healthMsg{})
	assert.Contains(t, m.View(), "remote ok")
}

func TestPlaceholderDescribesMethod(t *testing.T) {
	m, _, _ := newTestModel(t)
	content := m.renderContent()
	assert.Contains(t, content, "Ready to Analyze")
	assert.Contains(t, content, domain.Describe(domain.MethodGradient).Name)
}

func TestHighlightBestSentence(t *testing.T) {
	assert.Equal(t, "no overlap here.", highlightBestSentence("no overlap here.", "golang"))
	out := highlightBestSentence("Cats sleep. Go compiles fast.", "fast go")
	assert.Contains(t, out, "Go compiles fast.")
	assert.Contains(t, out, "Cats sleep.")
}

func TestHighlightKeepsWholeChunk(t *testing.T) {
	tests := []struct {
		name    string
		content string
		query   string
	}{
		{"unterminated tail", "Gradient chunking finds boundaries. It then splits the text at the point where", "gradient boundaries"},
		{"match in tail", "Intro line.\nThe gradient method splits text\nat the point where", "gradient point"},
		{"no match", "Line one\n\nline two", "quantum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.content, highlightBestSentence(tt.content, tt.query))
		})
	}
}

func TestUploadRemoteFailure(t *testing.T) {
	m, svc, store := newTestModel(t)
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	svc.On("ExtractDocument", mock.Anything, "bad.pdf", []byte("x")).
		Return(domain.Document{}, &domain.RemoteError{Op: domain.OpUpload, Status: 422, Detail: "corrupt PDF"}).Once()

	m = typeText(t, m, path)
	m, load := stepCmd(t, m, key(tea.KeyEnter))
	require.NotNil(t, load)
	m, upload := stepCmd(t, m, load())
	require.NotNil(t, upload)
	m = step(t, m, upload())

	assert.Equal(t, "Upload failed.", m.status)
	assert.Contains(t, m.View(), "corrupt PDF")
	assert.False(t, store.Snapshot().Document.Loaded())
}

// fixedPort serves a constant snapshot.
type fixedPort struct {
	snap workflow.Snapshot
}

func (p *fixedPort) Snapshot() workflow.Snapshot { return p.snap }
func (p *fixedPort) Upload(context.Context, *domain.File) error { return nil }
func (p *fixedPort) RunPipeline(context.Context) error { return nil }
func (p *fixedPort) SetQuery(string) {}
func (p *fixedPort) DismissError() {}
func (p *fixedPort) SetActiveTab(int) {}
func (p *fixedPort) UpdateConfig(func(domain.PipelineConfig) domain.PipelineConfig) error {
	return nil
}

func TestSpinnerTicksOnlyWhileBusy(t *testing.T) {
	res := sampleResult()
	port := &fixedPort{snap: workflow.Snapshot{
		Config:      domain.DefaultPipelineConfig(),
		Result:      &res,
		ResultQuery: "fast",
		ActiveTab:   projection.TabChunks,
		Pipeline:    workflow.StatusInFlight,
	}}
	m := New(context.Background(), port, nil)
	m, cmd := stepCmd(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	require.NotNil(t, cmd, "spinner starts while a run is in flight")
	assert.True(t, m.spinning)

	rendered := m.rendered
	m.rendered = "untouched"
	m, cmd = stepCmd(t, m, spinner.TickMsg{ID: m.spinner.ID(), Time: time.Now()})
	assert.NotNil(t, cmd)
	assert.Equal(t, "untouched", m.rendered)

	port.snap.Pipeline = workflow.StatusSucceeded
	m = step(t, m, StateChangedMsg{})
	m, cmd = stepCmd(t, m, spinner.TickMsg{ID: m.spinner.ID(), Time: time.Now()})
	assert.Nil(t, cmd)
	assert.False(t, m.spinning)
	assert.Equal(t, "untouched", m.rendered)

	// a changed input re-renders
	port.snap.ActiveTab = projection.TabMetrics
	m = step(t, m, StateChangedMsg{})
	assert.NotEqual(t, rendered, m.rendered)
	assert.Contains(t, m.rendered, "AI Response")
}

func TestChunksTabReportsUnknownRetrievedIDs(t *testing.T) {
	res := sampleResult()
	res.RetrievedChunks = []int{2, 99}
	port := &fixedPort{snap: workflow.Snapshot{
		Config:    domain.DefaultPipelineConfig(),
		Result:    &res,
		ActiveTab: projection.TabChunks,
	}}
	m := step(t, New(context.Background(), port, nil), tea.WindowSizeMsg{Width: 140, Height: 50})
	assert.Contains(t, m.rendered, "3 chunks created • 2 retrieved")
	assert.Contains(t, m.rendered, "1 retrieved ids match no chunk")
}

func TestIdleModelDoesNotSpin(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.False(t, m.spinning)
	_, cmd := stepCmd(t, m, spinner.TickMsg{ID: m.spinner.ID(), Time: time.Now()})
	assert.Nil(t, cmd)
}

func TestRelayCoalesces(t *testing.T) {
	var got atomic.Int32
	notify, stop := Relay(func(msg tea.Msg) {
		if _, ok := msg.(StateChangedMsg); ok {
			got.Add(1)
		}
	})
	defer stop()
	for i := 0; i < 5; i++ {
		notify()
	}
	require.Eventually(t, func() bool { return got.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, got.Load(), int32(5))
}

func TestRelayStop(t *testing.T) {
	var got atomic.Int32
	notify, stop := Relay(func(tea.Msg) { got.Add(1) })
	stop()
	stop()
	notify()
	notify()
	assert.Never(t, func() bool { return got.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
