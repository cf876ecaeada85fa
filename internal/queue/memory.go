package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is the in-process queue used by tests and single-node
// runs. Safe for concurrent use.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   []Job
	delayed []delayedJob
	now     func() time.Time
}

type delayedJob struct {
	job     Job
	readyAt time.Time
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{now: time.Now}
}

func (q *MemoryQueue) EnqueueUpdate(ctx context.Context, name string, force bool) error {
	return q.push(Job{Kind: KindUpdatePackage, Name: name, Force: force}, 0)
}

func (q *MemoryQueue) EnqueueDelete(ctx context.Context, paths []string, delay time.Duration) error {
	return q.push(Job{Kind: KindDeletePaths, Paths: paths}, delay)
}

func (q *MemoryQueue) EnqueueDump(ctx context.Context) error {
	return q.push(Job{Kind: KindDumpProviders}, 0)
}

func (q *MemoryQueue) Requeue(ctx context.Context, job Job, delay time.Duration) error {
	job.Attempt++
	return q.push(job, delay)
}

func (q *MemoryQueue) push(job Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if delay <= 0 {
		q.ready = append(q.ready, job)
		return nil
	}
	q.delayed = append(q.delayed, delayedJob{job: job, readyAt: q.now().Add(delay)})
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	kept := q.delayed[:0]
	for _, d := range q.delayed {
		if !d.readyAt.After(now) {
			q.ready = append(q.ready, d.job)
		} else {
			kept = append(kept, d)
		}
	}
	q.delayed = kept

	if len(q.ready) == 0 {
		return Job{}, ErrEmpty
	}
	job := q.ready[0]
	q.ready = q.ready[1:]
	return job, nil
}

// SetClock overrides the queue's time source; tests use it to make
// delayed jobs come due.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Pending reports how many jobs are queued, ready plus delayed.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) + len(q.delayed)
}
