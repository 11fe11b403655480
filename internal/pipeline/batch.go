package pipeline

import (
	"context"
	"sync"
	"time"

	"mlaurent/scanledger/internal/hardware"
	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
)

// Status is the lifecycle state of a batch run.
type Status string

// Batch states. Transitions: Pending -> Running -> one of the terminal
// three.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ItemResult is the outcome of one document in a batch.
type ItemResult struct {
	File    string
	Tx      *models.Transaction
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is invoked after each completed item.
type ProgressFunc func(file string, done, total int, elapsed time.Duration)

// PipelineFactory builds a pipeline for one worker. Each worker gets its
// own because extractor engines hold per-run temp state.
type PipelineFactory func() *Pipeline

// BatchOptions tunes a batch run.
type BatchOptions struct {
	// Workers caps the pool size. Zero sizes the pool from the hardware.
	Workers int
	// MemoryPerJobGB bounds workers by available RAM when sizing from
	// hardware.
	MemoryPerJobGB float64
	// FailSafe processes files sequentially in submission order. Slower,
	// but results arrive in a deterministic order and a crash loses at
	// most one in-flight document.
	FailSafe bool
	// Progress, when set, is called after every item.
	Progress ProgressFunc
}

// Batch runs a set of documents through the pipeline.
type Batch struct {
	factory PipelineFactory
	opts    BatchOptions
	log     logging.Logger

	mu     sync.Mutex
	status Status
}

// NewBatch creates a batch runner in the pending state.
func NewBatch(factory PipelineFactory, opts BatchOptions, log logging.Logger) *Batch {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Batch{factory: factory, opts: opts, log: log, status: StatusPending}
}

// Status returns the current lifecycle state.
func (b *Batch) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Batch) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// Run processes the files and returns one result per processed file.
// Individual document failures are reported in their ItemResult; the run
// itself only errors on cancellation. In fail-safe mode results keep
// submission order; in pool mode they arrive in completion order.
func (b *Batch) Run(ctx context.Context, files []string) ([]ItemResult, error) {
	b.setStatus(StatusRunning)
	start := time.Now()

	var (
		results []ItemResult
		err     error
	)
	if b.opts.FailSafe {
		results, err = b.runSequential(ctx, files)
	} else {
		results, err = b.runPool(ctx, files)
	}

	switch {
	case err != nil:
		b.setStatus(StatusCancelled)
	case allFailed(results):
		b.setStatus(StatusFailed)
	default:
		b.setStatus(StatusCompleted)
	}

	b.log.Info("batch finished",
		logging.Field{Key: logging.FieldStatus, Value: string(b.Status())},
		logging.Field{Key: logging.FieldCount, Value: len(results)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start)})
	return results, err
}

func (b *Batch) runSequential(ctx context.Context, files []string) ([]ItemResult, error) {
	p := b.factory()
	results := make([]ItemResult, 0, len(files))
	start := time.Now()

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, b.processOne(ctx, p, file))
		b.reportProgress(file, i+1, len(files), time.Since(start))
	}
	return results, nil
}

func (b *Batch) runPool(ctx context.Context, files []string) ([]ItemResult, error) {
	workers := b.opts.Workers
	if workers <= 0 {
		info := hardware.Detect(b.log)
		workers = info.OptimalWorkers(len(files), b.opts.MemoryPerJobGB)
	}
	if workers > len(files) {
		workers = len(files)
	}
	b.log.Info("starting batch workers",
		logging.Field{Key: logging.FieldWorkers, Value: workers},
		logging.Field{Key: logging.FieldCount, Value: len(files)})

	jobs := make(chan string)
	out := make(chan ItemResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := b.factory()
			for file := range jobs {
				out <- b.processOne(ctx, p, file)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]ItemResult, 0, len(files))
	start := time.Now()
	for r := range out {
		results = append(results, r)
		b.reportProgress(r.File, len(results), len(files), time.Since(start))
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (b *Batch) processOne(ctx context.Context, p *Pipeline, file string) ItemResult {
	start := time.Now()
	tx, err := p.ProcessDocument(ctx, file)
	if err != nil {
		b.log.WithError(err).Warn("document failed",
			logging.Field{Key: logging.FieldFile, Value: file})
	}
	return ItemResult{File: file, Tx: tx, Err: err, Elapsed: time.Since(start)}
}

func (b *Batch) reportProgress(file string, done, total int, elapsed time.Duration) {
	if b.opts.Progress != nil {
		b.opts.Progress(file, done, total, elapsed)
	}
}

func allFailed(results []ItemResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}
