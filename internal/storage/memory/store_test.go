package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/curalink/triage-gateway/internal/storage"
)

func TestSaveAndGetRun(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := &storage.RunRecord{
		ID:        "run-1",
		Symptoms:  "fever",
		Status:    "completed",
		Result:    json.RawMessage(`{}`),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveRun(ctx, rec); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Symptoms != "fever" {
		t.Errorf("got %+v", got)
	}

	// Mutating the returned record must not affect the stored copy.
	got.Status = "mutated"
	again, _ := s.GetRun(ctx, "run-1")
	if again.Status != "completed" {
		t.Error("store returned a shared reference")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := New()
	if _, err := s.GetRun(context.Background(), "missing"); err != storage.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRuns_OrderAndPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"old", "mid", "new"} {
		s.SaveRun(ctx, &storage.RunRecord{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recs, err := s.ListRuns(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(recs) != 3 || recs[0].ID != "new" || recs[2].ID != "old" {
		t.Errorf("unexpected order: %+v", recs)
	}

	page, err := s.ListRuns(ctx, storage.ListOptions{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(page) != 1 || page[0].ID != "mid" {
		t.Errorf("unexpected page: %+v", page)
	}

	empty, err := s.ListRuns(ctx, storage.ListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %+v", empty)
	}
}

func TestListRuns_NegativeBounds(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.SaveRun(ctx, &storage.RunRecord{ID: "only", CreatedAt: time.Now().UTC()})

	// Negative offset and limit are treated as zero/default, never sliced raw.
	recs, err := s.ListRuns(ctx, storage.ListOptions{Limit: -5, Offset: -1})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "only" {
		t.Errorf("unexpected records: %+v", recs)
	}
}
