package extractor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// ErrFileTimeout marks a file whose extraction exceeded the per-file budget.
var ErrFileTimeout = errors.New("extraction timed out")

// Outcome is the result of extracting one file in a batch.
// Exactly one of Result and Err is set.
type Outcome struct {
	Path   string
	Result *extraction.Result
	Err    error
}

// Stats tracks what a batch processed.
type Stats struct {
	FilesProcessed int
	SyntaxErrors   int
	Failed         int
	TimedOut       int
	ProcessingTime time.Duration
}

// Processor extracts many files concurrently.
type Processor interface {
	// ProcessFiles extracts files with bounded concurrency and calls emit once
	// per file in input order. An error from emit stops the batch.
	ProcessFiles(ctx context.Context, files []string, emit func(Outcome) error) (*Stats, error)
}

// processor implements Processor.
type processor struct {
	extractor   Extractor
	workers     int
	fileTimeout time.Duration
	progress    ProgressReporter
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processor)

// WithWorkers bounds the number of files extracted at once.
func WithWorkers(workers int) ProcessorOption {
	return func(p *processor) {
		if workers > 0 {
			p.workers = workers
		}
	}
}

// WithFileTimeout sets the wall-clock budget for one file. Zero disables it.
func WithFileTimeout(timeout time.Duration) ProcessorOption {
	return func(p *processor) {
		p.fileTimeout = timeout
	}
}

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) ProcessorOption {
	return func(p *processor) {
		if progress != nil {
			p.progress = progress
		}
	}
}

// NewProcessor creates a new Processor instance.
func NewProcessor(extractor Extractor, opts ...ProcessorOption) Processor {
	p := &processor{
		extractor: extractor,
		workers:   runtime.NumCPU(),
		progress:  &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessFiles runs the batch. Per-file failures are reported through emit,
// never returned; the returned error is a cancellation or an emit failure.
func (p *processor) ProcessFiles(ctx context.Context, files []string, emit func(Outcome) error) (*Stats, error) {
	startTime := time.Now()
	stats := &Stats{}

	p.progress.OnDiscoveryComplete(len(files))

	outcomes := make([]Outcome, len(files))
	done := make([]chan struct{}, len(files))
	for i := range done {
		done[i] = make(chan struct{})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	// Emit in input order while workers complete out of order.
	var emitErr error
	var emitWg sync.WaitGroup
	emitWg.Add(1)
	go func() {
		defer emitWg.Done()
		for i := range files {
			// Every worker closes its channel, so this never blocks forever.
			<-done[i]
			if ctx.Err() != nil {
				return
			}
			p.record(stats, outcomes[i])
			if err := emit(outcomes[i]); err != nil {
				emitErr = fmt.Errorf("failed to write result for %s: %w", files[i], err)
				cancel()
				return
			}
		}
	}()

	for i, file := range files {
		g.Go(func() error {
			defer close(done[i])
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Path: file, Err: err}
				return err
			}
			outcomes[i] = p.extractOne(gctx, file)
			p.progress.OnFileProcessed(file)
			return nil
		})
	}

	waitErr := g.Wait()
	emitWg.Wait()

	stats.ProcessingTime = time.Since(startTime)
	p.progress.OnComplete(stats)

	if emitErr != nil {
		return stats, emitErr
	}
	return stats, waitErr
}

// extractOne runs one extraction under the per-file budget. A slow extraction
// keeps running in the background but its result is discarded.
func (p *processor) extractOne(ctx context.Context, file string) Outcome {
	if p.fileTimeout <= 0 {
		result, err := p.extractor.Extract(ctx, file)
		return Outcome{Path: file, Result: result, Err: err}
	}

	ch := make(chan Outcome, 1)
	go func() {
		result, err := p.extractor.Extract(ctx, file)
		ch <- Outcome{Path: file, Result: result, Err: err}
	}()

	timer := time.NewTimer(p.fileTimeout)
	defer timer.Stop()

	select {
	case outcome := <-ch:
		return outcome
	case <-timer.C:
		return Outcome{Path: file, Err: fmt.Errorf("%w after %s", ErrFileTimeout, p.fileTimeout)}
	case <-ctx.Done():
		return Outcome{Path: file, Err: ctx.Err()}
	}
}

func (p *processor) record(stats *Stats, outcome Outcome) {
	switch {
	case errors.Is(outcome.Err, ErrFileTimeout):
		stats.TimedOut++
		log.Printf("Warning: %s: %v", outcome.Path, outcome.Err)
	case outcome.Err != nil:
		stats.Failed++
		log.Printf("Warning: %s: %v", outcome.Path, outcome.Err)
	default:
		stats.FilesProcessed++
		if outcome.Result.Meta.SyntaxError {
			stats.SyntaxErrors++
		}
	}
}
