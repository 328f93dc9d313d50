package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissOnEmptyCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, hit, err := s.Get(ctx, "01", "100", KindController, "controllers/01-100.yaml", 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"controller":"01/100"}`)
	if err := s.Put(ctx, "01", "100", KindController, "controllers/01-100.yaml", 100, 200, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := s.Get(ctx, "01", "100", KindController, "controllers/01-100.yaml", 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit after Put")
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestGetMissesOnStaleSourceMTime(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "01", "100", KindPlan, "plans/01-100.yaml", 100, 200, []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// The source file has since changed (newer mtime than what was cached).
	_, hit, err := s.Get(ctx, "01", "100", KindPlan, "plans/01-100.yaml", 150)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("expected a miss when sourceMTime is newer than the cached entry")
	}
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "01", "100", KindObservation, "obs/01-100.yaml", 100, 200, []byte("old")); err != nil {
		t.Fatalf("Put (initial): %v", err)
	}
	if err := s.Put(ctx, "01", "100", KindObservation, "obs/01-100.yaml", 150, 250, []byte("new")); err != nil {
		t.Fatalf("Put (update): %v", err)
	}

	got, hit, err := s.Get(ctx, "01", "100", KindObservation, "obs/01-100.yaml", 150)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit after overwrite")
	}
	if string(got) != "new" {
		t.Errorf("payload = %q, want %q", got, "new")
	}
}

func TestInvalidateRemovesAllRowsForSite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "01", "100", KindController, "c.yaml", 1, 1, []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "01", "100", KindPlan, "p.yaml", 1, 1, []byte("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.Invalidate(ctx, "01", "100"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if _, hit, _ := s.Get(ctx, "01", "100", KindController, "c.yaml", 1); hit {
		t.Error("controller row still present after Invalidate")
	}
	if _, hit, _ := s.Get(ctx, "01", "100", KindPlan, "p.yaml", 1); hit {
		t.Error("plan row still present after Invalidate")
	}
}
