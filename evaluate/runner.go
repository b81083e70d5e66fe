package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/store"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// RunResult is the complete output of one evaluation run.
type RunResult struct {
	// RunID is a unique identifier for this run.
	RunID string `json:"runId"`

	// DocumentID is the document's own identifier.
	DocumentID string `json:"documentId"`

	// Records is the flat result record sequence, ordered by declaration
	// then emission order.
	Records []Record `json:"records"`

	// Entities holds one report per described entity.
	Entities []EntityReport `json:"entities"`

	// Document is the whole-document report.
	Document DocumentReport `json:"document"`
}

// Runner evaluates documents against one manifest. A Runner is safe for
// concurrent use; each run keeps its own state.
type Runner struct {
	manifest     *manifest.Manifest
	logger       *slog.Logger
	metrics      *Metrics
	parallelism  int
	queryTimeout time.Duration
	seedEntities bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithParallelism bounds how many query declarations execute concurrently.
// Values below 1 mean sequential execution.
func WithParallelism(n int) Option {
	return func(r *Runner) { r.parallelism = n }
}

// WithQueryTimeout wraps each declaration's execution in a timeout. Expiry is
// treated identically to a caught execution failure.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Runner) { r.queryTimeout = d }
}

// WithEntitySeeding makes runs pass the backend's full subject set to the
// resource aggregator, so entities with zero findings still get reports.
// Only takes effect for backends that can enumerate their subjects.
func WithEntitySeeding(enabled bool) Option {
	return func(r *Runner) { r.seedEntities = enabled }
}

// NewRunner creates a runner over the given manifest.
func NewRunner(m *manifest.Manifest, opts ...Option) *Runner {
	r := &Runner{
		manifest:    m,
		logger:      slog.Default(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates one document end-to-end: parse, normalize every declaration,
// then aggregate. A parse failure aborts the run; a single declaration's
// failure does not.
func (r *Runner) Run(ctx context.Context, docText, filename string) (*RunResult, error) {
	r.metrics.runStarted()

	graph, err := store.Load(docText, filename)
	if err != nil {
		r.metrics.runFailed()
		return nil, err
	}

	var known []string
	if r.seedEntities {
		known = graph.Subjects()
	}
	return r.RunBackend(ctx, graph, known)
}

// RunBackend evaluates against an already-loaded backend. knownEntities may
// be nil; when supplied, every listed entity gets a report even with zero
// findings.
func (r *Runner) RunBackend(ctx context.Context, backend store.Backend, knownEntities []string) (*RunResult, error) {
	runID := uuid.New().String()
	start := time.Now()

	documentID := backend.DocumentSubject(curation.OWLOntology)
	if documentID == "" {
		documentID = curation.UnknownDocumentID
	}

	records := r.normalizeAll(ctx, backend, runID)
	r.metrics.recordsProduced(len(records))

	// The full record sequence is materialized before either aggregator
	// runs; both read it independently.
	entities := AggregateResources(records, r.manifest.Requirements, knownEntities)
	document := AggregateDocument(documentID, records, r.manifest.Requirements)
	r.metrics.documentGraded(string(document.Status))

	r.logger.Info("Evaluation run complete",
		"run_id", runID,
		"document_id", documentID,
		"records", len(records),
		"entities", len(entities),
		"status", document.Status,
		"elapsed", time.Since(start))

	return &RunResult{
		RunID:      runID,
		DocumentID: documentID,
		Records:    records,
		Entities:   entities,
		Document:   document,
	}, nil
}

// normalizeAll executes every declaration, sequentially or in parallel, and
// returns the records collected in declaration order regardless of
// scheduling, so downstream output stays byte-deterministic.
func (r *Runner) normalizeAll(ctx context.Context, backend store.Backend, runID string) []Record {
	normalizer := NewNormalizer(backend, r.logger)
	decls := r.manifest.Queries
	perDecl := make([][]Record, len(decls))

	evalOne := func(i int) {
		queryCtx := ctx
		if r.queryTimeout > 0 {
			var cancel context.CancelFunc
			queryCtx, cancel = context.WithTimeout(ctx, r.queryTimeout)
			defer cancel()
		}
		records, err := normalizer.Normalize(queryCtx, decls[i])
		if err != nil {
			// One failing declaration never aborts the rest of the run.
			r.metrics.queryFailed()
			r.logger.Warn("Query evaluation failed, continuing",
				"run_id", runID,
				"query_id", decls[i].ID,
				"error", err)
			return
		}
		perDecl[i] = records
	}

	if r.parallelism > 1 && len(decls) > 1 {
		sem := make(chan struct{}, r.parallelism)
		var wg sync.WaitGroup
		for i := range decls {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				evalOne(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range decls {
			evalOne(i)
		}
	}

	var records []Record
	for _, batch := range perDecl {
		records = append(records, batch...)
	}
	return records
}

// BatchInput is one document in a batch run.
type BatchInput struct {
	// Name identifies the document (typically its path); also the filename
	// hint for format detection.
	Name string

	// Text is the raw document text.
	Text string
}

// BatchResult pairs one batch input with its outcome.
type BatchResult struct {
	Name   string
	Result *RunResult
	Err    error
}

// RunBatch evaluates independent documents concurrently with at most workers
// in flight. Results come back in input order. A failing document fails only
// its own entry.
func (r *Runner) RunBatch(ctx context.Context, inputs []BatchInput, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(inputs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, input BatchInput) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := r.Run(ctx, input.Text, input.Name)
			if err != nil {
				err = fmt.Errorf("evaluate %s: %w", input.Name, err)
			}
			results[i] = BatchResult{Name: input.Name, Result: res, Err: err}
		}(i, input)
	}
	wg.Wait()
	return results
}
