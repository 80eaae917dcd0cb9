package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hnjobs/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPosting(id, title string) model.Posting {
	posted := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return model.Posting{
		ID:          id,
		Title:       title,
		Description: "We are hiring.",
		PostedDate:  &posted,
	}
}

func TestPutPostingsIgnoreKeepsFirstWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testPosting("p1", "Backend Engineer")
	first.Description = "original description"
	if err := s.PutPostings(ctx, []model.Posting{first}, UpsertIgnore); err != nil {
		t.Fatalf("first PutPostings: %v", err)
	}

	second := first
	second.Description = "re-scraped description"
	if err := s.PutPostings(ctx, []model.Posting{second}, UpsertIgnore); err != nil {
		t.Fatalf("second PutPostings: %v", err)
	}

	got, err := s.GetPosting(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPosting: %v", err)
	}
	if got == nil {
		t.Fatal("expected posting to exist")
	}
	if got.Description != "original description" {
		t.Errorf("IGNORE mode overwrote the row: got %q", got.Description)
	}
}

func TestPutPostingsOverwriteReplacesAllColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testPosting("p1", "Backend Engineer")
	if err := s.PutPostings(ctx, []model.Posting{first}, UpsertIgnore); err != nil {
		t.Fatalf("first PutPostings: %v", err)
	}

	second := first
	second.Title = "Senior Backend Engineer"
	second.Description = "updated"
	second.PostedDate = nil
	if err := s.PutPostings(ctx, []model.Posting{second}, UpsertOverwrite); err != nil {
		t.Fatalf("overwrite PutPostings: %v", err)
	}

	got, err := s.GetPosting(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPosting: %v", err)
	}
	if got.Title != "Senior Backend Engineer" || got.Description != "updated" {
		t.Errorf("OVERWRITE mode did not replace columns: %+v", got)
	}
	if got.PostedDate != nil {
		t.Errorf("expected posted_date to be overwritten to NULL, got %v", got.PostedDate)
	}
}

func TestPutEmptyBatchIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutPostings(ctx, nil, UpsertIgnore); err != nil {
		t.Fatalf("empty PutPostings: %v", err)
	}
	if err := s.PutEnrichments(ctx, nil, UpsertOverwrite); err != nil {
		t.Fatalf("empty PutEnrichments: %v", err)
	}

	raw, enriched, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if raw != 0 || enriched != 0 {
		t.Errorf("empty upsert mutated the store: raw=%d enriched=%d", raw, enriched)
	}
}

func TestUpsertBatchIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Second row violates NOT NULL via a short row slice; the whole batch
	// must roll back.
	err := s.upsert(ctx, rawSpec, [][]any{
		{"p1", "Engineer", "desc", nil},
		{"p2", "Engineer"},
	}, UpsertIgnore)
	if err == nil {
		t.Fatal("expected batch error")
	}

	raw, _, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if raw != 0 {
		t.Errorf("partial batch visible after failure: %d rows", raw)
	}
}

func TestSelectUnprocessedAntiJoin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	postings := []model.Posting{
		testPosting("a", "First"),
		testPosting("b", "Second"),
		testPosting("c", "Third"),
	}
	if err := s.PutPostings(ctx, postings, UpsertIgnore); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	unprocessed, err := s.SelectUnprocessed(ctx)
	if err != nil {
		t.Fatalf("SelectUnprocessed: %v", err)
	}
	if len(unprocessed) != 3 {
		t.Fatalf("expected 3 unprocessed, got %d", len(unprocessed))
	}

	// Enrich the middle posting; it must drop out of the selection.
	e := model.Enrichment{ID: "b", Title: "Second", Description: "enriched"}
	if err := s.PutEnrichments(ctx, []model.Enrichment{e}, UpsertOverwrite); err != nil {
		t.Fatalf("PutEnrichments: %v", err)
	}

	unprocessed, err = s.SelectUnprocessed(ctx)
	if err != nil {
		t.Fatalf("SelectUnprocessed after enrich: %v", err)
	}
	if len(unprocessed) != 2 {
		t.Fatalf("expected 2 unprocessed, got %d", len(unprocessed))
	}
	// Ordered by id for deterministic batching.
	if unprocessed[0].ID != "a" || unprocessed[1].ID != "c" {
		t.Errorf("unexpected selection order: %s, %s", unprocessed[0].ID, unprocessed[1].ID)
	}
}

func TestListPostingIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutPostings(ctx, []model.Posting{
		testPosting("a", "First"),
		testPosting("b", "Second"),
	}, UpsertIgnore); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	ids, err := s.ListPostingIDs(ctx)
	if err != nil {
		t.Fatalf("ListPostingIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	for _, want := range []string{"a", "b"} {
		if _, ok := ids[want]; !ok {
			t.Errorf("missing id %s", want)
		}
	}
}

func TestEnrichmentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutPostings(ctx, []model.Posting{testPosting("p1", "Platform Engineer")}, UpsertIgnore); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	jobURL := "https://example.com/jobs/1"
	location := "Berlin"
	remote := true
	posted := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	in := model.Enrichment{
		ID:           "p1",
		Title:        "Platform Engineer",
		Description:  "Build the platform.",
		PostedDate:   &posted,
		JobURL:       &jobURL,
		Technologies: []string{"Go", "Kubernetes"},
		Location:     &location,
		IsRemote:     &remote,
	}
	if err := s.PutEnrichments(ctx, []model.Enrichment{in}, UpsertOverwrite); err != nil {
		t.Fatalf("PutEnrichments: %v", err)
	}

	got, err := s.GetEnrichment(ctx, "p1")
	if err != nil {
		t.Fatalf("GetEnrichment: %v", err)
	}
	if got == nil {
		t.Fatal("expected enrichment to exist")
	}
	if got.JobURL == nil || *got.JobURL != jobURL {
		t.Errorf("job_url mismatch: %v", got.JobURL)
	}
	if got.CompanyURL != nil {
		t.Errorf("expected nil company_url, got %v", *got.CompanyURL)
	}
	if len(got.Technologies) != 2 || got.Technologies[0] != "Go" {
		t.Errorf("technologies mismatch: %v", got.Technologies)
	}
	if got.IsRemote == nil || !*got.IsRemote {
		t.Errorf("is_remote mismatch: %v", got.IsRemote)
	}
	if got.PostedDate == nil || !got.PostedDate.Equal(posted) {
		t.Errorf("posted_date mismatch: %v", got.PostedDate)
	}
}

func TestGetEnrichmentAbsentReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetEnrichment(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetEnrichment: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}
