package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	if err := q.EnqueueUpdate(ctx, "acme/plugin", false); err != nil {
		t.Fatal(err)
	}
	if err := q.EnqueueUpdate(ctx, "psr/log", true); err != nil {
		t.Fatal(err)
	}

	first, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.Kind != KindUpdatePackage || first.Name != "acme/plugin" || first.Force {
		t.Errorf("first job = %+v", first)
	}

	second, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "psr/log" || !second.Force {
		t.Errorf("second job = %+v", second)
	}

	if _, err := q.Dequeue(ctx); err != ErrEmpty {
		t.Errorf("drained queue err = %v, want ErrEmpty", err)
	}
}

func TestMemoryQueueDelay(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	base := time.Now()
	current := base
	q.SetClock(func() time.Time { return current })

	if err := q.EnqueueDelete(ctx, []string{"p/acme/old.json"}, 5*time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := q.Dequeue(ctx); err != ErrEmpty {
		t.Fatalf("delayed job surfaced early: %v", err)
	}

	current = base.Add(5*time.Minute + time.Second)
	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("due job not surfaced: %v", err)
	}
	if job.Kind != KindDeletePaths || len(job.Paths) != 1 {
		t.Errorf("job = %+v", job)
	}
}

func TestRequeueBumpsAttempt(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	job := Job{Kind: KindUpdatePackage, Name: "acme/plugin"}
	if err := q.Requeue(ctx, job, 0); err != nil {
		t.Fatal(err)
	}

	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Attempt != 1 {
		t.Errorf("attempt = %d, want 1", got.Attempt)
	}
}

func TestJobRoundTrip(t *testing.T) {
	job := Job{Kind: KindDeletePaths, Paths: []string{"a", "b"}, Attempt: 2}
	data, err := job.encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := decodeJob(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Kind != job.Kind || len(decoded.Paths) != 2 || decoded.Attempt != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}
