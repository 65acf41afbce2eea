package snapshotmgr

import (
	"context"
	"sync"
	"testing"

	"github.com/corehive/agentcore/internal/snapshot"
	"github.com/corehive/agentcore/internal/snapshot/strategy"
)

func newTestManager(t *testing.T, maxConcurrent int) *Manager {
	t.Helper()
	store := snapshot.NewStore(snapshot.StoreOptions{})
	factory := strategy.NewFactory(
		strategy.NewFileStrategy(store),
		func() (*strategy.GitStrategy, error) { return nil, nil },
		nil,
	)
	if err := factory.Initialize(context.Background(), strategy.NameFile); err != nil {
		t.Fatal(err)
	}
	return New(factory, store, maxConcurrent)
}

func TestCreateSnapshotRejectsEmptyInstruction(t *testing.T) {
	m := newTestManager(t, 2)
	if _, err := m.CreateSnapshot(context.Background(), "", nil, nil); err != snapshot.ErrEmptyInstruction {
		t.Fatalf("expected ErrEmptyInstruction, got %v", err)
	}
}

func TestCreateSnapshotRejectsInvalidFilesShape(t *testing.T) {
	m := newTestManager(t, 2)
	if _, err := m.CreateSnapshot(context.Background(), "do it", 42, nil); err != ErrInvalidFiles {
		t.Fatalf("expected ErrInvalidFiles, got %v", err)
	}
}

func TestCreateSnapshotWithMapFiles(t *testing.T) {
	m := newTestManager(t, 2)
	files := map[string]string{"a.txt": "hello"}
	snap, err := m.CreateSnapshot(context.Background(), "seed", files, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Instruction != "seed" {
		t.Fatalf("unexpected instruction: %s", snap.Instruction)
	}

	got, err := m.GetSnapshot(context.Background(), snap.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry := got.Files["a.txt"]
	if string(entry.Content) != "hello" {
		t.Fatalf("unexpected content: %q", entry.Content)
	}
}

func TestCreateSnapshotWithPathListReadsContent(t *testing.T) {
	m := newTestManager(t, 2)
	reads := map[string][]byte{"b.txt": []byte("world")}
	readFile := func(path string) ([]byte, error) { return reads[path], nil }

	snap, err := m.CreateSnapshot(context.Background(), "seed2", []string{"b.txt"}, readFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(snap.Files["b.txt"].Content) != "world" {
		t.Fatalf("unexpected content: %+v", snap.Files["b.txt"])
	}
}

func TestGetSnapshotsDeleteAndClear(t *testing.T) {
	m := newTestManager(t, 2)
	snap, err := m.CreateSnapshot(context.Background(), "one", map[string]string{"a": "1"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	list, err := m.GetSnapshots(context.Background(), 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one snapshot, got %d, err %v", len(list), err)
	}

	if err := m.DeleteSnapshot(context.Background(), snap.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := m.GetSnapshot(context.Background(), snap.ID, false); err != snapshot.ErrSnapshotNotFound {
		t.Fatalf("expected ErrSnapshotNotFound after delete, got %v", err)
	}

	if _, err := m.CreateSnapshot(context.Background(), "two", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearSnapshots(context.Background()); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	list, _ = m.GetSnapshots(context.Background(), 0)
	if len(list) != 0 {
		t.Fatalf("expected empty store after clear, got %d", len(list))
	}
}

func TestBoundedConcurrencyLimitsInFlightOperations(t *testing.T) {
	m := newTestManager(t, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.run(context.Background(), func() (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	status := m.GetStatus()
	if status.InFlight != 1 {
		t.Fatalf("expected exactly one in-flight operation, got %d", status.InFlight)
	}
	close(release)
	wg.Wait()
}

func TestShutdownRejectsNewOperationsAndDrains(t *testing.T) {
	m := newTestManager(t, 2)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
	if _, err := m.CreateSnapshot(context.Background(), "too late", nil, nil); err != ErrShuttingDown {
		t.Fatalf("expected ErrShuttingDown, got %v", err)
	}
}

func TestGetMetricsTracksOperationsAndErrorRate(t *testing.T) {
	m := newTestManager(t, 2)
	if _, err := m.CreateSnapshot(context.Background(), "ok", nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateSnapshot(context.Background(), "", nil, nil); err == nil {
		t.Fatal("expected validation error")
	}

	metrics := m.GetMetrics()
	if metrics.TotalOperations != 1 {
		t.Fatalf("expected validation failures to bypass run(), got %d ops", metrics.TotalOperations)
	}
	if metrics.TotalSnapshots != 1 {
		t.Fatalf("expected one snapshot created, got %d", metrics.TotalSnapshots)
	}
}
