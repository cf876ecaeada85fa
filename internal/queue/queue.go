// Package queue carries the registry's background jobs: package update
// reconciliations and delayed deletion of superseded provider files.
//
// Two implementations exist: a Redis-backed queue for production
// multi-worker deployments and an in-memory queue for tests and
// single-process runs. Jobs are idempotent; re-running an update simply
// reconciles again, and a delete tolerates already-removed files.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrEmpty is returned by Dequeue when no job is ready.
var ErrEmpty = errors.New("queue empty")

// Job kinds
const (
	KindUpdatePackage = "update-package"
	KindDeletePaths   = "delete-paths"
	KindDumpProviders = "dump-providers"
)

// Job is one unit of background work.
type Job struct {
	Kind    string   `json:"kind"`
	Name    string   `json:"name,omitempty"`
	Force   bool     `json:"force,omitempty"`
	Paths   []string `json:"paths,omitempty"`
	Attempt int      `json:"attempt,omitempty"`
}

func (j Job) encode() ([]byte, error) {
	return json.Marshal(j)
}

func decodeJob(data []byte) (Job, error) {
	var j Job
	err := json.Unmarshal(data, &j)
	return j, err
}

// Queue is the transport between the API/engine and the workers.
type Queue interface {
	// EnqueueUpdate schedules a reconciliation for a package name.
	EnqueueUpdate(ctx context.Context, name string, force bool) error

	// EnqueueDelete schedules removal of webroot paths after the delay
	// elapses.
	EnqueueDelete(ctx context.Context, paths []string, delay time.Duration) error

	// EnqueueDump schedules a provider tree republication.
	EnqueueDump(ctx context.Context) error

	// Requeue puts a job back with a delay, bumping its attempt count.
	Requeue(ctx context.Context, job Job, delay time.Duration) error

	// Dequeue pops the next ready job, returning ErrEmpty when there is
	// none.
	Dequeue(ctx context.Context) (Job, error)
}
