package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hnjobs/internal/model"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<ul class="jobs">
  <li>
    <div class="body">
      Acme Corp | Senior Go Engineer | Remote
      <p>We build infrastructure for rockets.</p>
      <p>Stack: Go, Postgres, Kubernetes. Salary $150k-$180k.</p>
    </div>
  </li>
  <li>
    <div class="body">
      <span class="meta">reply</span>
      Globex | Frontend Developer | Berlin
      <p>Small team, big ambitions.</p>
    </div>
  </li>
  <li>
    <div class="body"></div>
  </li>
</ul>
</body></html>`

func TestFetchPostingsParsesListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/january-2026" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	s := NewHNHiringScraper(srv.URL, srv.Client())
	postings, err := s.FetchPostings(context.Background(), "january-2026")
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 postings (empty item skipped), got %d", len(postings))
	}

	first := postings[0]
	if first.Title != "Acme Corp | Senior Go Engineer | Remote" {
		t.Errorf("title = %q", first.Title)
	}
	wantDesc := "We build infrastructure for rockets.\n\nStack: Go, Postgres, Kubernetes. Salary $150k-$180k."
	if first.Description != wantDesc {
		t.Errorf("description = %q", first.Description)
	}
	if first.ID != "" {
		t.Errorf("scraper must not assign ids, got %q", first.ID)
	}

	wantDate := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if first.PostedDate == nil || !first.PostedDate.Equal(wantDate) {
		t.Errorf("posted date = %v, want %v", first.PostedDate, wantDate)
	}

	// Title is the first non-empty text node even when an element precedes it.
	if postings[1].Title != "Globex | Frontend Developer | Berlin" {
		t.Errorf("second title = %q", postings[1].Title)
	}
}

func TestFetchPostingsNonSuccessIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewHNHiringScraper(srv.URL, srv.Client())
	_, err := s.FetchPostings(context.Background(), "march-2019")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpErr.StatusCode)
	}
}

func TestFetchPostingsEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><ul class="jobs"></ul></body></html>`))
	}))
	defer srv.Close()

	s := NewHNHiringScraper(srv.URL, srv.Client())
	postings, err := s.FetchPostings(context.Background(), "january-2026")
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("expected no postings, got %d", len(postings))
	}
}

func TestPageDate(t *testing.T) {
	tests := []struct {
		page string
		want *time.Time
	}{
		{"january-2026", datePtr(2026, time.January)},
		{"December-2025", datePtr(2025, time.December)},
		{"about", nil},
		{"notamonth-2026", nil},
		{"", nil},
	}
	for _, tc := range tests {
		got := pageDate(tc.page)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("pageDate(%q) = %v, want nil", tc.page, got)
		case tc.want != nil && (got == nil || !got.Equal(*tc.want)):
			t.Errorf("pageDate(%q) = %v, want %v", tc.page, got, tc.want)
		}
	}
}

func datePtr(y int, m time.Month) *time.Time {
	t := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return &t
}
