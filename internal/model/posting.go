package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Posting is a raw job listing exactly as scraped, before enrichment.
type Posting struct {
	ID          string     // content fingerprint, assigned by the pipeline
	Title       string     // listing title line
	Description string     // plain-text body
	PostedDate  *time.Time // nullable (not every listing carries a date)
}

// Enrichment holds the structured fields extracted from a posting by the
// LLM, keyed by the same fingerprint as its source posting. Title,
// Description, and PostedDate are denormalized copies taken at extraction
// time; every extracted field is nullable because the model is told to
// return null for anything not explicitly stated.
type Enrichment struct {
	ID           string
	Title        string
	Description  string
	PostedDate   *time.Time
	JobURL       *string
	CompanyURL   *string
	Technologies []string // nil = unknown
	Location     *string
	Industry     *string
	Salary       *string
	IsRemote     *bool
}

// Fingerprint derives a posting's stable identity from its title and posted
// date: SHA-256 over title + ISO-8601 date (empty string when the date is
// absent). Two postings with the same title and date are the same posting.
func Fingerprint(title string, postedDate *time.Time) string {
	strDate := ""
	if postedDate != nil {
		strDate = postedDate.Format("2006-01-02")
	}
	sum := sha256.Sum256([]byte(title + strDate))
	return hex.EncodeToString(sum[:])
}

// PostingSource fetches raw postings from an external listing page.
type PostingSource interface {
	FetchPostings(ctx context.Context, page string) ([]Posting, error)
}

// PostingExtractor turns one raw posting into structured fields via the
// enrichment service. A returned error marks that single posting as failed;
// it never aborts the batch.
type PostingExtractor interface {
	Extract(ctx context.Context, p Posting) (Enrichment, error)
}
