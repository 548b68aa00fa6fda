// Package possync writes computed domain coordinates back to a store so a
// later load can reuse them instead of re-running the force simulation.
//
// Persistence is best-effort. [Syncer.Dispatch] returns immediately and the
// write runs on its own goroutine; a failure is logged and reported on the
// Failures channel, never retried, and never affects the rendered view.
// Concurrent jobs are not ordered: the last write to land wins.
//
// Backends:
//
//   - the domain store itself over HTTP (domainstore.Client)
//   - [FileStore]: a single JSON file
//   - [SQLiteStore]: an embedded SQLite database
//   - [MongoStore]: a MongoDB collection
package possync

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/semtiles/pkg/graph"
	"github.com/matzehuels/semtiles/pkg/observability"
)

// DefaultTimeout bounds a single write-back.
const DefaultTimeout = 10 * time.Second

// Persister writes coordinates. Backend names it in logs and metrics.
type Persister interface {
	SavePositions(ctx context.Context, pos graph.Positions) error
	Backend() string
}

// Store is a Persister that can also read coordinates back.
type Store interface {
	Persister
	// LoadPositions returns the stored coordinates of ids. Ids with no
	// stored position are absent from the result. A nil ids loads all.
	LoadPositions(ctx context.Context, ids []string) (graph.Positions, error)
	Close() error
}

// Failure describes one failed write-back.
type Failure struct {
	JobID string
	Count int
	Err   error
}

// Syncer dispatches write-backs in the background.
type Syncer struct {
	persister Persister
	logger    *log.Logger
	timeout   time.Duration
	failures  chan Failure
	wg        sync.WaitGroup
}

// NewSyncer creates a Syncer. A nil logger discards output and a
// non-positive timeout uses [DefaultTimeout].
func NewSyncer(p Persister, logger *log.Logger, timeout time.Duration) *Syncer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Syncer{
		persister: p,
		logger:    logger,
		timeout:   timeout,
		failures:  make(chan Failure, 16),
	}
}

// Dispatch starts persisting pos and returns the job id without waiting.
// The write is detached from ctx cancellation so that a finished request
// does not abort it; it is bounded by the Syncer timeout instead. An empty
// map dispatches nothing and returns "".
func (s *Syncer) Dispatch(ctx context.Context, pos graph.Positions) string {
	if s == nil || s.persister == nil || len(pos) == 0 {
		return ""
	}
	jobID := uuid.NewString()
	snapshot := make(graph.Positions, len(pos))
	for id, p := range pos {
		snapshot[id] = p
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), jobID, snapshot)
	}()
	return jobID
}

func (s *Syncer) run(ctx context.Context, jobID string, pos graph.Positions) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	backend := s.persister.Backend()
	start := time.Now()
	err := s.persister.SavePositions(ctx, pos)
	elapsed := time.Since(start)
	observability.Sync().OnSyncComplete(ctx, backend, len(pos), elapsed, err)

	if err != nil {
		s.logger.Warn("position sync failed", "job", jobID, "backend", backend, "count", len(pos), "error", err)
		select {
		case s.failures <- Failure{JobID: jobID, Count: len(pos), Err: err}:
		default:
		}
		return
	}
	s.logger.Debug("positions saved", "job", jobID, "backend", backend, "count", len(pos), "duration", elapsed)
}

// Failures reports failed jobs. The channel is buffered; failures that
// arrive while it is full are only logged. A nil Syncer returns a nil
// channel, which never delivers.
func (s *Syncer) Failures() <-chan Failure {
	if s == nil {
		return nil
	}
	return s.failures
}

// Wait blocks until every dispatched job has finished. It returns at once
// on a nil Syncer.
func (s *Syncer) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// Restore overlays stored coordinates onto a listing so that fully stored
// levels skip the simulation.
func Restore(ctx context.Context, st Store, l graph.Listing) (graph.Listing, error) {
	ids := make([]string, len(l.Domains))
	for i, d := range l.Domains {
		ids[i] = d.ID
	}
	pos, err := st.LoadPositions(ctx, ids)
	if err != nil {
		return l, err
	}
	if len(pos) == 0 {
		return l, nil
	}
	return l.WithPositions(pos), nil
}
