// Package worker drains the job queue: reconciliations, provider tree
// dumps, and delayed file deletions.
package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"packmirror/internal/queue"
	"packmirror/internal/vcs"
)

const (
	// idlePoll is how long a worker sleeps when the queue is empty.
	idlePoll = time.Second

	// maxAttempts bounds transient-failure retries per job.
	maxAttempts = 5

	// retryBase is the first retry delay; it doubles per attempt.
	retryBase = 30 * time.Second
)

// Updater runs package reconciliations. *engine.Engine satisfies it.
type Updater interface {
	UpdatePackage(ctx context.Context, name string, force bool) error
}

// Dumper republishes the provider tree. *emitter.Emitter satisfies it.
type Dumper interface {
	DumpProviderJSON(ctx context.Context) error
}

// Worker processes jobs with a fixed pool of goroutines.
type Worker struct {
	queue       queue.Queue
	updater     Updater
	dumper      Dumper
	concurrency int
	logger      *log.Logger
}

// New wires a worker pool.
func New(q queue.Queue, updater Updater, dumper Dumper, concurrency int, logger *log.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{
		queue:       q,
		updater:     updater,
		dumper:      dumper,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes jobs until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := w.queue.Dequeue(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idlePoll):
			}
			continue
		}
		if err != nil {
			w.logger.Error("dequeue failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(idlePoll):
			}
			continue
		}

		w.Handle(ctx, job)
	}
}

// Handle dispatches one job. Transient update failures are requeued
// with exponential backoff until the attempt budget runs out.
func (w *Worker) Handle(ctx context.Context, job queue.Job) {
	switch job.Kind {
	case queue.KindUpdatePackage:
		err := w.updater.UpdatePackage(ctx, job.Name, job.Force)
		if err == nil {
			return
		}
		if errors.Is(err, vcs.ErrTransient) && job.Attempt < maxAttempts {
			delay := retryBase << job.Attempt
			w.logger.Warn("transient failure, requeueing", "package", job.Name, "attempt", job.Attempt+1, "delay", delay)
			if qErr := w.queue.Requeue(ctx, job, delay); qErr != nil {
				w.logger.Error("requeue failed", "package", job.Name, "err", qErr)
			}
			return
		}
		w.logger.Error("update failed", "package", job.Name, "err", err)

	case queue.KindDeletePaths:
		for _, path := range job.Paths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				w.logger.Warn("delete failed", "path", path, "err", err)
			}
		}

	case queue.KindDumpProviders:
		if err := w.dumper.DumpProviderJSON(ctx); err != nil {
			w.logger.Error("provider dump failed", "err", err)
		}

	default:
		w.logger.Error("unknown job kind", "kind", job.Kind)
	}
}
