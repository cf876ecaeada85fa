package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"packmirror/internal/queue"
	"packmirror/internal/vcs"
)

type fakeUpdater struct {
	calls []string
	err   error
}

func (u *fakeUpdater) UpdatePackage(ctx context.Context, name string, force bool) error {
	u.calls = append(u.calls, name)
	return u.err
}

type fakeDumper struct {
	calls int
}

func (d *fakeDumper) DumpProviderJSON(ctx context.Context) error {
	d.calls++
	return nil
}

func TestHandleUpdate(t *testing.T) {
	q := queue.NewMemoryQueue()
	u := &fakeUpdater{}
	w := New(q, u, &fakeDumper{}, 1, nil)

	w.Handle(context.Background(), queue.Job{Kind: queue.KindUpdatePackage, Name: "acme/plugin"})

	if len(u.calls) != 1 || u.calls[0] != "acme/plugin" {
		t.Errorf("calls = %v", u.calls)
	}
	if q.Pending() != 0 {
		t.Errorf("successful update should not requeue, pending = %d", q.Pending())
	}
}

func TestHandleTransientRequeues(t *testing.T) {
	q := queue.NewMemoryQueue()
	u := &fakeUpdater{err: fmt.Errorf("wrapped: %w", vcs.ErrTransient)}
	w := New(q, u, &fakeDumper{}, 1, nil)

	w.Handle(context.Background(), queue.Job{Kind: queue.KindUpdatePackage, Name: "acme/plugin"})
	if q.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", q.Pending())
	}

	// the retry carries a delay; it is not immediately ready
	if _, err := q.Dequeue(context.Background()); err != queue.ErrEmpty {
		t.Fatal("retry surfaced without its backoff delay")
	}

	base := time.Now()
	q.SetClock(func() time.Time { return base.Add(time.Hour) })
	job, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", job.Attempt)
	}
}

func TestHandleTransientGivesUp(t *testing.T) {
	q := queue.NewMemoryQueue()
	u := &fakeUpdater{err: vcs.ErrTransient}
	w := New(q, u, &fakeDumper{}, 1, nil)

	w.Handle(context.Background(), queue.Job{Kind: queue.KindUpdatePackage, Name: "acme/plugin", Attempt: maxAttempts})
	if q.Pending() != 0 {
		t.Errorf("exhausted job must not requeue, pending = %d", q.Pending())
	}
}

func TestHandleDeletePaths(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "stale.json")
	if err := os.WriteFile(present, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "already-gone.json")

	w := New(queue.NewMemoryQueue(), &fakeUpdater{}, &fakeDumper{}, 1, nil)
	w.Handle(context.Background(), queue.Job{Kind: queue.KindDeletePaths, Paths: []string{present, missing}})

	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Error("stale file not removed")
	}
}

func TestHandleDump(t *testing.T) {
	d := &fakeDumper{}
	w := New(queue.NewMemoryQueue(), &fakeUpdater{}, d, 1, nil)
	w.Handle(context.Background(), queue.Job{Kind: queue.KindDumpProviders})
	if d.calls != 1 {
		t.Errorf("dump calls = %d", d.calls)
	}
}
