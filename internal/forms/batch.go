package forms

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// BatchConfig tunes one orchestrator.
type BatchConfig struct {
	// Workers bounds concurrent fill units. One worker reproduces strictly
	// sequential processing; more are safe because units share no mutable
	// state and archive assembly stays sequential either way.
	Workers int

	// MaxRows rejects oversized inputs as a run precondition.
	MaxRows int

	Now        func() time.Time
	Logger     *zap.Logger
	OnProgress func(completed, total int)
}

// DefaultBatchConfig returns sequential processing with production limits.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Workers: 1,
		MaxRows: 10000,
		Now:     time.Now,
		Logger:  zap.NewNop(),
	}
}

// SourceLoader supplies template source bytes by descriptor source name.
// *TemplateLoader is the production implementation.
type SourceLoader interface {
	Load(source string) ([]byte, error)
}

// Batch orchestrates one run: rows in input order crossed with the
// template's descriptors in declared order, each unit filled in isolation,
// successes bundled into the archive with a summary of any failures.
type Batch struct {
	registry *Registry
	loader   SourceLoader
	filler   *Filler

	workers    int
	maxRows    int
	now        func() time.Time
	logger     *zap.Logger
	onProgress func(completed, total int)
}

// NewBatch creates an orchestrator over a registry, loader, and filler.
func NewBatch(registry *Registry, loader SourceLoader, filler *Filler, config ...BatchConfig) *Batch {
	cfg := DefaultBatchConfig()
	if len(config) > 0 {
		if config[0].Workers > 0 {
			cfg.Workers = config[0].Workers
		}
		if config[0].MaxRows > 0 {
			cfg.MaxRows = config[0].MaxRows
		}
		if config[0].Now != nil {
			cfg.Now = config[0].Now
		}
		if config[0].Logger != nil {
			cfg.Logger = config[0].Logger
		}
		cfg.OnProgress = config[0].OnProgress
	}

	return &Batch{
		registry:   registry,
		loader:     loader,
		filler:     filler,
		workers:    cfg.Workers,
		maxRows:    cfg.MaxRows,
		now:        cfg.Now,
		logger:     cfg.Logger,
		onProgress: cfg.OnProgress,
	}
}

// BatchResult is the outcome of one run. The archive holds every successful
// unit; per-unit outcomes carry the diagnostics.
type BatchResult struct {
	RunID        string        `json:"run_id"`
	TemplateID   string        `json:"template_id"`
	ArchiveName  string        `json:"archive_name"`
	Archive      []byte        `json:"-"`
	Units        []UnitOutcome `json:"units"`
	RowCount     int           `json:"row_count"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	WarningCount int           `json:"warning_count"`
	DurationMS   int64         `json:"duration_ms"`
}

// batchUnit is one (row, descriptor) pair with its precomputed output name.
type batchUnit struct {
	rowIndex   int
	descIndex  int
	row        rowset.Row
	descriptor OutputDescriptor
	name       string
}

// Run executes one batch. Preconditions are checked before any unit work:
// the template must resolve, the row set must be non-empty and within the
// row limit, and every descriptor source must load. A precondition failure
// returns an error with no side effects. After that, a unit failure never
// aborts the run; only archive assembly errors and cancellation do.
func (b *Batch) Run(ctx context.Context, templateID string, table *rowset.Table) (*BatchResult, error) {
	tmpl, ok := b.registry.Resolve(templateID)
	if !ok {
		return nil, fmt.Errorf("template %q is not registered", templateID)
	}
	if table == nil || table.RowCount() == 0 {
		return nil, fmt.Errorf("input contains no data rows")
	}
	if b.maxRows > 0 && table.RowCount() > b.maxRows {
		return nil, fmt.Errorf("input has %d rows, limit is %d", table.RowCount(), b.maxRows)
	}

	templateBytes := make([][]byte, len(tmpl.Documents))
	for i, doc := range tmpl.Documents {
		data, err := b.loader.Load(doc.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to load template source %q: %w", doc.Source, err)
		}
		templateBytes[i] = data
	}

	runID := uuid.New().String()
	start := time.Now()
	units := buildUnits(tmpl, table)

	b.logger.Info("starting batch run",
		zap.String("run_id", runID),
		zap.String("template_id", templateID),
		zap.Int("rows", table.RowCount()),
		zap.Int("units", len(units)),
		zap.Int("workers", b.workers))

	outcomes := make([]UnitOutcome, len(units))
	blobs := make([][]byte, len(units))

	if b.workers <= 1 {
		for k := range units {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("batch run canceled: %w", err)
			}
			outcomes[k], blobs[k] = b.runUnit(templateBytes[units[k].descIndex], units[k])
			b.reportProgress(k+1, len(units), outcomes[k])
		}
	} else {
		sem := make(chan struct{}, b.workers)
		var wg sync.WaitGroup
		var completed int64
		for k := range units {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(k int) {
				defer wg.Done()
				defer func() { <-sem }()
				outcomes[k], blobs[k] = b.runUnit(templateBytes[units[k].descIndex], units[k])
				done := atomic.AddInt64(&completed, 1)
				b.reportProgress(int(done), len(units), outcomes[k])
			}(k)
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch run canceled: %w", err)
		}
	}

	// Archive assembly is sequential in unit order, so runs with the same
	// input produce the same entry order regardless of worker count.
	archive := NewArchive(b.now())
	for k := range units {
		if !outcomes[k].Succeeded() {
			continue
		}
		if err := archive.AddEntry(units[k].name, blobs[k]); err != nil {
			return nil, fmt.Errorf("failed to assemble archive: %w", err)
		}
	}
	archiveBytes, err := archive.Finalize()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	result := &BatchResult{
		RunID:       runID,
		TemplateID:  templateID,
		ArchiveName: fmt.Sprintf("%s_%s.zip", templateID, b.now().Format("2006-01-02")),
		Archive:     archiveBytes,
		Units:       outcomes,
		RowCount:    table.RowCount(),
		DurationMS:  time.Since(start).Milliseconds(),
	}
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
		result.WarningCount += len(outcome.Warnings)
	}

	b.logger.Info("batch run finished",
		zap.String("run_id", runID),
		zap.Int("successes", result.SuccessCount),
		zap.Int("failures", result.FailureCount),
		zap.Int("warnings", result.WarningCount),
		zap.Int64("duration_ms", result.DurationMS))
	return result, nil
}

func buildUnits(tmpl Template, table *rowset.Table) []batchUnit {
	units := make([]batchUnit, 0, len(table.Rows)*len(tmpl.Documents))
	for i, row := range table.Rows {
		for j, descriptor := range tmpl.Documents {
			units = append(units, batchUnit{
				rowIndex:   i,
				descIndex:  j,
				row:        row,
				descriptor: descriptor,
				name:       OutputName(row, i, tmpl.NameColumn, descriptor, len(tmpl.Documents)),
			})
		}
	}
	return units
}

// runUnit fills one unit with full isolation: errors and panics degrade to
// a failed outcome for this unit alone.
func (b *Batch) runUnit(template []byte, unit batchUnit) (outcome UnitOutcome, blob []byte) {
	outcome = UnitOutcome{
		RowIndex:   unit.rowIndex,
		Label:      unit.descriptor.Label,
		OutputName: unit.name,
	}
	defer func() {
		if r := recover(); r != nil {
			blob = nil
			outcome.Error = fmt.Sprintf("panic while filling document: %v", r)
			b.logger.Error("fill unit panicked",
				zap.Int("row", unit.rowIndex),
				zap.String("label", unit.descriptor.Label))
		}
	}()

	data, warnings, err := b.filler.Fill(template, unit.descriptor, unit.row)
	outcome.Warnings = warnings
	if err != nil {
		outcome.Error = err.Error()
		b.logger.Warn("fill unit failed",
			zap.Int("row", unit.rowIndex),
			zap.String("label", unit.descriptor.Label),
			zap.Error(err))
		return outcome, nil
	}

	outcome.SizeBytes = len(data)
	return outcome, data
}

func (b *Batch) reportProgress(completed, total int, outcome UnitOutcome) {
	b.logger.Debug("processed unit",
		zap.String("progress", fmt.Sprintf("%d of %d", completed, total)),
		zap.String("output", outcome.OutputName),
		zap.Bool("success", outcome.Succeeded()))
	if b.onProgress != nil {
		b.onProgress(completed, total)
	}
}
