package possync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/semtiles/pkg/graph"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []graph.Positions
	err   error
	delay time.Duration
}

func (p *recordingPersister) SavePositions(ctx context.Context, pos graph.Positions) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, pos)
	return p.err
}

func (p *recordingPersister) Backend() string { return "test" }

func TestSyncerDispatch(t *testing.T) {
	p := &recordingPersister{}
	s := NewSyncer(p, nil, time.Second)

	pos := graph.Positions{"a": {X: 1, Y: 2}}
	id := s.Dispatch(context.Background(), pos)
	if id == "" {
		t.Fatal("Dispatch returned empty job id")
	}
	pos["a"] = graph.Position{X: 99, Y: 99}
	s.Wait()

	if len(p.saved) != 1 {
		t.Fatalf("saved %d times, want 1", len(p.saved))
	}
	if got := p.saved[0]["a"]; got != (graph.Position{X: 1, Y: 2}) {
		t.Errorf("saved %+v, want snapshot taken at dispatch", got)
	}
}

func TestSyncerDispatchEmpty(t *testing.T) {
	p := &recordingPersister{}
	s := NewSyncer(p, nil, 0)
	if id := s.Dispatch(context.Background(), nil); id != "" {
		t.Errorf("empty dispatch returned job %q", id)
	}
	s.Wait()
	if len(p.saved) != 0 {
		t.Error("empty positions should not be persisted")
	}

	var nilSyncer *Syncer
	if id := nilSyncer.Dispatch(context.Background(), graph.Positions{"a": {}}); id != "" {
		t.Error("nil syncer should be a no-op")
	}
}

func TestNilSyncerIsInert(t *testing.T) {
	var s *Syncer
	if id := s.Dispatch(context.Background(), graph.Positions{"a": {}}); id != "" {
		t.Errorf("Dispatch = %q, want no job", id)
	}
	s.Wait()
	if s.Failures() != nil {
		t.Error("Failures() on nil Syncer should be a nil channel")
	}
	select {
	case f := <-s.Failures():
		t.Errorf("unexpected failure %v", f)
	default:
	}
}

func TestSyncerDoesNotBlock(t *testing.T) {
	p := &recordingPersister{delay: 200 * time.Millisecond}
	s := NewSyncer(p, nil, time.Second)

	start := time.Now()
	s.Dispatch(context.Background(), graph.Positions{"a": {X: 1, Y: 1}})
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Dispatch blocked for %v", elapsed)
	}
	s.Wait()
}

func TestSyncerSurvivesCanceledContext(t *testing.T) {
	p := &recordingPersister{delay: 20 * time.Millisecond}
	s := NewSyncer(p, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	s.Dispatch(ctx, graph.Positions{"a": {X: 1, Y: 1}})
	cancel()
	s.Wait()

	if len(p.saved) != 1 {
		t.Error("write-back should outlive the dispatching request")
	}
}

func TestSyncerReportsFailure(t *testing.T) {
	boom := errors.New("store offline")
	p := &recordingPersister{err: boom}
	s := NewSyncer(p, nil, time.Second)

	id := s.Dispatch(context.Background(), graph.Positions{"a": {X: 1, Y: 1}, "b": {X: 2, Y: 2}})
	s.Wait()

	select {
	case f := <-s.Failures():
		if f.JobID != id || f.Count != 2 || !errors.Is(f.Err, boom) {
			t.Errorf("failure = %+v", f)
		}
	default:
		t.Fatal("no failure reported")
	}
}

func TestSyncerTimeout(t *testing.T) {
	p := &recordingPersister{delay: time.Second}
	s := NewSyncer(p, nil, 10*time.Millisecond)
	s.Dispatch(context.Background(), graph.Positions{"a": {}})
	s.Wait()

	f := <-s.Failures()
	if !errors.Is(f.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", f.Err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	st, err := NewFileStore(filepath.Join(t.TempDir(), "positions.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SavePositions(ctx, graph.Positions{"a": {X: 100, Y: 100}, "z": {X: 5, Y: 5}}); err != nil {
		t.Fatal(err)
	}

	l := graph.Listing{Domains: []graph.Domain{{ID: "a"}, {ID: "b"}}}
	got, err := Restore(ctx, st, l)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	nodes := got.Nodes()
	if !nodes[0].Positioned() || nodes[0].Pos.X != 100 {
		t.Errorf("a not restored: %+v", nodes[0])
	}
	if nodes[1].Positioned() {
		t.Errorf("b should stay unpositioned: %+v", nodes[1])
	}
	if l.Domains[0].X != nil {
		t.Error("Restore mutated its input")
	}
}
