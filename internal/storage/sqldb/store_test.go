package sqldb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/curalink/triage-gateway/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &storage.RunRecord{
		ID:        "run-1",
		Symptoms:  "fever and headache",
		Status:    "completed",
		Result:    json.RawMessage(`{"primaryDiagnosis":"influenza"}`),
		ElapsedMS: 1234,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.SaveRun(ctx, rec); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Symptoms != rec.Symptoms || got.Status != rec.Status || got.ElapsedMS != rec.ElapsedMS {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	var result map[string]any
	if err := json.Unmarshal(got.Result, &result); err != nil {
		t.Fatalf("stored result not valid JSON: %v", err)
	}
	if result["primaryDiagnosis"] != "influenza" {
		t.Errorf("result = %v", result)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if err != storage.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		rec := &storage.RunRecord{
			ID:        id,
			Symptoms:  "fever",
			Status:    "completed",
			Result:    json.RawMessage(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun(%s): %v", id, err)
		}
	}

	recs, err := s.ListRuns(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].ID != "run-new" || recs[2].ID != "run-old" {
		t.Errorf("unexpected order: %s, %s, %s", recs[0].ID, recs[1].ID, recs[2].ID)
	}
}

func TestListRuns_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		rec := &storage.RunRecord{
			ID:        string(rune('a' + i)),
			Symptoms:  "fever",
			Status:    "completed",
			Result:    json.RawMessage(`{}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	recs, err := s.ListRuns(ctx, storage.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}

	// Negative bounds never reach the database.
	all, err := s.ListRuns(ctx, storage.ListOptions{Limit: -1, Offset: -1})
	if err != nil {
		t.Fatalf("ListRuns with negative bounds: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d records, want 5", len(all))
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle", DSN: "whatever"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
