// Package pipeline orchestrates the statement import flow: for each input
// file it runs reader, detector, extractor and normalizer, then merges all
// files' transactions into one de-duplicated, date-ordered batch. File and
// row failures are recorded as issues and never abort the batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/normalize"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/reader"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/registry"
)

// Stage labels the per-file state machine position where a failure occurred.
type Stage string

const (
	StageRead      Stage = "read"
	StageDetect    Stage = "detect"
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageMerge     Stage = "merge"
)

// Issue is one recorded non-fatal problem: a failed file, a dropped row or a
// collapsed duplicate. Row is -1 for file-level issues.
type Issue struct {
	File  string
	Row   int
	Stage Stage
	Err   error
}

// Input names one file of a batch with its optional per-file settings.
type Input struct {
	Path        string
	Password    string
	Sheet       string
	Institution string
}

// BatchResult aggregates a completed batch. Every dropped row or file is
// present in Issues; there is no silent partial-success mode.
type BatchResult struct {
	ID           uuid.UUID
	Transactions []statement.Transaction
	Issues       []Issue
	FilesOK      int
	FilesFailed  int
}

// IdentityKeys returns the keys of the merged transactions, for recording in
// a history ledger after a successful export.
func (r *BatchResult) IdentityKeys() []string {
	keys := make([]string, len(r.Transactions))
	for i, tx := range r.Transactions {
		keys[i] = tx.IdentityKey
	}
	return keys
}

// History is the optional cross-batch ledger consulted during the merge.
type History interface {
	Seen(key string) (bool, error)
}

// Defaults carries the static normalization configuration shared by every
// adapter in a batch. Supplied at construction time, never re-read mid-batch.
type Defaults struct {
	Currency        string
	EarliestDate    time.Time
	FutureTolerance time.Duration
}

// Coordinator drives batches through the pipeline. Construct once and reuse;
// it is safe for concurrent batches since all per-file state is local.
type Coordinator struct {
	registry *registry.Registry
	defaults Defaults
	logger   *slog.Logger
	history  History
	workers  int
	metrics  bool
	now      func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithWorkers bounds per-file parallelism. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithHistory enables cross-batch de-duplication against a persisted ledger.
func WithHistory(h History) Option { return func(c *Coordinator) { c.history = h } }

// WithMetrics toggles the prometheus counters. Off by default.
func WithMetrics(enabled bool) Option { return func(c *Coordinator) { c.metrics = enabled } }

// WithDefaults sets batch-wide normalization defaults.
func WithDefaults(d Defaults) Option { return func(c *Coordinator) { c.defaults = d } }

// withNow overrides the clock used for date plausibility checks in tests.
func withNow(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// New builds a Coordinator over an adapter registry.
func New(reg *registry.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry: reg,
		defaults: Defaults{Currency: "AUD", FutureTolerance: 72 * time.Hour},
		logger:   slog.Default(),
		workers:  runtime.GOMAXPROCS(0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fileResult is the outcome of one file's Unread→…→Normalized run. A failed
// file carries issues but no transactions, so it can never be half-merged.
type fileResult struct {
	txs    []statement.Transaction
	issues []Issue
	failed bool
}

// Process runs a batch. Files are processed in parallel; the merge is
// serialized after all workers finish. Cancellation stops scheduling new
// files, lets in-flight files finish, and returns the merged result of the
// files that completed alongside ctx's error.
func (c *Coordinator) Process(ctx context.Context, inputs []Input) (*BatchResult, error) {
	results := make([]fileResult, len(inputs))

	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for i := range inputs {
		if err := ctx.Err(); err != nil {
			// cancellation stops scheduling; in-flight files finish
			results[i] = fileResult{failed: true, issues: []Issue{{File: inputs[i].Path, Row: -1, Stage: StageRead, Err: err}}}
			continue
		}
		g.Go(func() error {
			results[i] = c.processFile(ctx, inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	batch := c.merge(inputs, results)

	c.logger.Info("batch complete",
		slog.String("batch_id", batch.ID.String()),
		slog.Int("files_ok", batch.FilesOK),
		slog.Int("files_failed", batch.FilesFailed),
		slog.Int("transactions", len(batch.Transactions)),
		slog.Int("issues", len(batch.Issues)),
	)

	return batch, ctx.Err()
}

// processFile walks one file through Read → Detect → Extract → Normalize.
// Any stage failure moves the file to the absorbing Failed state.
func (c *Coordinator) processFile(ctx context.Context, in Input) fileResult {
	if err := ctx.Err(); err != nil {
		return fileResult{failed: true, issues: []Issue{{File: in.Path, Row: -1, Stage: StageRead, Err: err}}}
	}

	doc, err := reader.Read(in.Path, reader.Options{
		Password:    in.Password,
		Sheet:       in.Sheet,
		Institution: in.Institution,
	})
	if err != nil {
		c.countFile("failed")
		c.logger.Warn("file unreadable", slog.String("file", in.Path), slog.Any("error", err))
		return fileResult{failed: true, issues: []Issue{{File: in.Path, Row: -1, Stage: StageRead, Err: err}}}
	}

	desc, err := c.registry.Detect(doc)
	if err != nil {
		c.countFile("failed")
		return fileResult{failed: true, issues: []Issue{{File: in.Path, Row: -1, Stage: StageDetect, Err: err}}}
	}
	c.logger.Debug("format detected", slog.String("file", in.Path), slog.String("adapter", desc.Name))

	currency := desc.Currency
	if currency == "" {
		currency = c.defaults.Currency
	}
	norm := normalize.New(normalize.Options{
		DateFormats:     desc.DateFormats,
		DefaultCurrency: currency,
		InvertSign:      desc.InvertSign,
		Boilerplate:     desc.Boilerplate,
		Institution:     desc.Institution,
		EarliestDate:    c.defaults.EarliestDate,
		FutureTolerance: c.defaults.FutureTolerance,
		Now:             c.now,
	})

	var res fileResult
	for fields, rowErr := range desc.Extractor.Extract(doc) {
		if rowErr != nil {
			c.countRow("failed")
			res.issues = append(res.issues, Issue{File: in.Path, Row: rowErr.Row, Stage: StageExtract, Err: rowErr})
			continue
		}
		tx, normErr := norm.Normalize(fields, doc.Source)
		if normErr != nil {
			c.countRow("failed")
			res.issues = append(res.issues, Issue{File: in.Path, Row: normErr.Row, Stage: StageNormalize, Err: normErr})
			continue
		}
		c.countRow("ok")
		res.txs = append(res.txs, *tx)
	}

	c.countFile("ok")
	return res
}

func errDuplicate(tx statement.Transaction) error {
	return fmt.Errorf("duplicate transaction dropped: %s", tx)
}

func errPreviouslyImported(tx statement.Transaction) error {
	return fmt.Errorf("transaction already imported by a previous batch: %s", tx)
}

// merge collapses duplicates by identity key (keeping the earliest input's
// record) and orders the final list by date, source file path, then row, so
// the output is independent of both worker scheduling and input order.
func (c *Coordinator) merge(inputs []Input, results []fileResult) *BatchResult {
	batch := &BatchResult{ID: uuid.New()}

	var kept []statement.Transaction
	byKey := make(map[string]struct{})

	for i, res := range results {
		batch.Issues = append(batch.Issues, res.issues...)
		if res.failed {
			batch.FilesFailed++
			continue
		}
		batch.FilesOK++

		for _, tx := range res.txs {
			if _, dup := byKey[tx.IdentityKey]; dup {
				c.countDuplicate()
				batch.Issues = append(batch.Issues, Issue{
					File: inputs[i].Path, Row: tx.SourceRow, Stage: StageMerge,
					Err: errDuplicate(tx),
				})
				continue
			}
			if c.history != nil {
				seen, err := c.history.Seen(tx.IdentityKey)
				if err != nil {
					batch.Issues = append(batch.Issues, Issue{
						File: inputs[i].Path, Row: tx.SourceRow, Stage: StageMerge, Err: err,
					})
				} else if seen {
					c.countDuplicate()
					batch.Issues = append(batch.Issues, Issue{
						File: inputs[i].Path, Row: tx.SourceRow, Stage: StageMerge,
						Err: errPreviouslyImported(tx),
					})
					continue
				}
			}
			byKey[tx.IdentityKey] = struct{}{}
			kept = append(kept, tx)
		}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		if !kept[a].Date.Equal(kept[b].Date) {
			return kept[a].Date.Before(kept[b].Date)
		}
		if kept[a].SourceFile != kept[b].SourceFile {
			return kept[a].SourceFile < kept[b].SourceFile
		}
		return kept[a].SourceRow < kept[b].SourceRow
	})

	batch.Transactions = kept
	return batch
}
