package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"ragdash/internal/domain"
	"ragdash/internal/projection"
)

// Status is the state of one operation lane.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInFlight:
		return "in-flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ValidationError is a local precondition failure. No remote call is issued.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrNotPDF     = &ValidationError{Message: "Please upload a PDF file"}
	ErrNoDocument = &ValidationError{Message: "Please upload a PDF document first"}
	ErrEmptyQuery = &ValidationError{Message: "Please enter a search query"}
	ErrSuperseded = errors.New("response superseded by a newer request")
)

const acceptedSuffix = ".pdf"

// lane tracks one operation track. issued is the sequence number of the most
// recent call; only that call may settle the lane.
type lane struct {
	status Status
	issued uint64
}

func (l *lane) begin() uint64 {
	l.issued++
	l.status = StatusInFlight
	return l.issued
}

func (l *lane) latest(seq uint64) bool { return seq == l.issued }

// Snapshot is a point-in-time copy of the workflow state for rendering.
// Result is nil until the first successful pipeline run and must be treated
// as read-only. ResultQuery is the query Result was produced for.
type Snapshot struct {
	Config      domain.PipelineConfig
	Document    domain.Document
	Query       string
	Result      *domain.PipelineResult
	ResultQuery string
	Error       string
	Upload      Status
	Pipeline    Status
	ActiveTab   int
}

func (s Snapshot) Uploading() bool  { return s.Upload == StatusInFlight }
func (s Snapshot) Processing() bool { return s.Pipeline == StatusInFlight }

// CanRun mirrors the execute control: a document is loaded and no run is in flight.
func (s Snapshot) CanRun() bool { return s.Document.Loaded() && !s.Processing() }

// Store is the single owner of the dashboard state. Upload and RunPipeline
// are the only transitions that reach the remote service; everything else is
// a local edit.
type Store struct {
	remote domain.RemoteService
	config *ConfigModel
	log    *slog.Logger

	mu          sync.Mutex
	document    domain.Document
	query       string
	result      *domain.PipelineResult
	resultQuery string
	errMsg      string
	activeTab   int
	upload      lane
	pipeline    lane

	obsMu     sync.Mutex
	observers []func()
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for transition logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithConfig sets the initial pipeline configuration.
func WithConfig(cfg domain.PipelineConfig) Option {
	return func(s *Store) { s.config = NewConfigModel(cfg) }
}

// New creates a store bound to remote.
func New(remote domain.RemoteService, opts ...Option) *Store {
	s := &Store{
		remote:    remote,
		config:    NewConfigModel(domain.DefaultPipelineConfig()),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		activeTab: projection.DefaultTab,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers fn to be called after every state change. fn runs on the
// goroutine that made the change, outside the store lock.
func (s *Store) Observe(fn func()) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

func (s *Store) notify() {
	s.obsMu.Lock()
	obs := make([]func(), len(s.observers))
	copy(obs, s.observers)
	s.obsMu.Unlock()
	for _, fn := range obs {
		fn()
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Config:      s.config.Get(),
		Document:    s.document,
		Query:       s.query,
		Result:      s.result,
		ResultQuery: s.resultQuery,
		Error:       s.errMsg,
		Upload:      s.upload.status,
		Pipeline:    s.pipeline.status,
		ActiveTab:   s.activeTab,
	}
}

// Config returns the current pipeline configuration.
func (s *Store) Config() domain.PipelineConfig { return s.config.Get() }

// SetConfig replaces the pipeline configuration. A run already in flight
// keeps the snapshot it started with.
func (s *Store) SetConfig(cfg domain.PipelineConfig) error {
	if err := s.config.Set(cfg); err != nil {
		return err
	}
	s.notify()
	return nil
}

// UpdateConfig derives a new configuration from the current one.
func (s *Store) UpdateConfig(fn func(domain.PipelineConfig) domain.PipelineConfig) error {
	if _, err := s.config.Update(fn); err != nil {
		return err
	}
	s.notify()
	return nil
}

// SetQuery replaces the query text.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	changed := s.query != q
	s.query = q
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// DismissError clears the active error banner.
func (s *Store) DismissError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

// SetActiveTab selects a result tab, clamped to the available tabs.
func (s *Store) SetActiveTab(i int) {
	if i < 0 {
		i = 0
	}
	if i >= projection.TabCount {
		i = projection.TabCount - 1
	}
	s.mu.Lock()
	s.activeTab = i
	s.mu.Unlock()
	s.notify()
}

// ResetDocument unloads the current document. Nothing in the normal
// upload/run flow calls it.
func (s *Store) ResetDocument() {
	s.mu.Lock()
	s.document = domain.Document{}
	s.mu.Unlock()
	s.notify()
}

// IsPDF reports whether name carries the accepted upload extension.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), acceptedSuffix)
}

// Upload sends f to the extraction service and, on success, replaces the
// loaded document. A nil file is ignored. Files without a .pdf extension are
// rejected locally with ErrNotPDF.
//
// If another upload is started before this one settles, this call's outcome
// is discarded and ErrSuperseded is returned.
func (s *Store) Upload(ctx context.Context, f *domain.File) error {
	if f == nil {
		return nil
	}
	if !IsPDF(f.Name) {
		s.reject(ErrNotPDF)
		return ErrNotPDF
	}

	s.mu.Lock()
	seq := s.upload.begin()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
	s.log.Info("upload started", "file", f.Name, "bytes", len(f.Data), "seq", seq)

	doc, err := s.remote.ExtractDocument(ctx, f.Name, f.Data)

	s.mu.Lock()
	if !s.upload.latest(seq) {
		s.mu.Unlock()
		s.log.Debug("discarding stale upload response", "seq", seq, "err", err)
		return ErrSuperseded
	}
	if err != nil {
		s.upload.status = StatusFailed
		s.errMsg = messageOf(err, domain.OpUpload)
		s.mu.Unlock()
		s.log.Warn("upload failed", "file", f.Name, "seq", seq, "err", err)
		s.notify()
		return err
	}
	if doc.FileName == "" {
		doc.FileName = filepath.Base(f.Name)
	}
	s.document = doc
	s.upload.status = StatusSucceeded
	s.mu.Unlock()
	s.log.Info("upload settled", "file", doc.FileName, "chars", len(doc.ExtractedText), "seq", seq)
	s.notify()
	return nil
}

// RunPipeline runs the remote pipeline on the loaded document with the
// current query and configuration, captured at call time. On success the
// result replaces any previous one and the active tab resets to the metrics
// view. Only the most recently started run may update state; older runs
// return ErrSuperseded when they settle.
func (s *Store) RunPipeline(ctx context.Context) error {
	s.mu.Lock()
	if !s.document.Loaded() {
		s.errMsg = ErrNoDocument.Message
		s.mu.Unlock()
		s.notify()
		return ErrNoDocument
	}
	if strings.TrimSpace(s.query) == "" {
		s.errMsg = ErrEmptyQuery.Message
		s.mu.Unlock()
		s.notify()
		return ErrEmptyQuery
	}
	text, query, cfg := s.document.ExtractedText, s.query, s.config.Get()
	seq := s.pipeline.begin()
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
	s.log.Info("pipeline started", "method", cfg.Method, "chunk_size", cfg.ChunkSize, "top_k", cfg.TopK, "seq", seq)

	res, err := s.remote.RunPipeline(ctx, text, query, cfg)

	s.mu.Lock()
	if !s.pipeline.latest(seq) {
		s.mu.Unlock()
		s.log.Debug("discarding stale pipeline response", "seq", seq, "err", err)
		return ErrSuperseded
	}
	if err != nil {
		s.pipeline.status = StatusFailed
		s.errMsg = messageOf(err, domain.OpPipeline)
		s.mu.Unlock()
		s.log.Warn("pipeline failed", "seq", seq, "err", err)
		s.notify()
		return err
	}
	s.result = &res
	s.resultQuery = query
	s.activeTab = projection.DefaultTab
	s.pipeline.status = StatusSucceeded
	s.mu.Unlock()
	s.log.Info("pipeline settled", "chunks", len(res.Chunks), "retrieved", len(res.RetrievedChunks), "seq", seq)
	s.notify()
	return nil
}

func (s *Store) reject(verr *ValidationError) {
	s.mu.Lock()
	s.errMsg = verr.Message
	s.mu.Unlock()
	s.log.Debug("rejected", "reason", verr.Message)
	s.notify()
}

func messageOf(err error, op domain.Operation) string {
	var rerr *domain.RemoteError
	if errors.As(err, &rerr) {
		return rerr.Message()
	}
	return (&domain.RemoteError{Op: op}).Message()
}
