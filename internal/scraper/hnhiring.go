package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hnjobs/internal/model"
)

// HNHiringScraper fetches monthly "Who is hiring?" listing pages from
// hnhiring.com and extracts raw postings.
type HNHiringScraper struct {
	baseURL string
	client  *http.Client
}

var _ model.PostingSource = (*HNHiringScraper)(nil)

// NewHNHiringScraper wires an HTTP client; a nil client gets a 30s timeout.
func NewHNHiringScraper(baseURL string, client *http.Client) *HNHiringScraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HNHiringScraper{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// FetchPostings retrieves one listing page (e.g. "january-2026") and returns
// its postings. IDs are left empty; identity assignment is the pipeline's
// job. A non-success response is fatal for the page and reported as a
// *model.HTTPError.
func (s *HNHiringScraper) FetchPostings(ctx context.Context, page string) ([]model.Posting, error) {
	pageURL := s.baseURL + "/" + page

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", page, err)
	}
	req.Header.Set("User-Agent", "hnjobs/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch page %s", page),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", page, err)
	}

	posted := pageDate(page)

	var postings []model.Posting
	doc.Find("ul.jobs li").Each(func(i int, li *goquery.Selection) {
		p := parsePosting(li)
		if p.Title == "" && p.Description == "" {
			return
		}
		p.PostedDate = posted
		postings = append(postings, p)
	})

	return postings, nil
}

// parsePosting extracts one listing from its <li>. The title is the first
// non-empty text node directly under div.body; the description is every
// paragraph joined by blank lines.
func parsePosting(li *goquery.Selection) model.Posting {
	body := li.Find("div.body").First()

	var title string
	body.Contents().EachWithBreak(func(i int, node *goquery.Selection) bool {
		if goquery.NodeName(node) != "#text" {
			return true
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			title = text
			return false
		}
		return true
	})

	var paragraphs []string
	body.Find("p").Each(func(i int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return model.Posting{
		Title:       title,
		Description: strings.Join(paragraphs, "\n\n"),
	}
}

// pageDate derives a posting date from a page identifier like
// "january-2026" (first of the month). Unrecognized identifiers yield nil;
// the date column is nullable.
func pageDate(page string) *time.Time {
	parts := strings.SplitN(page, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil
	}
	month := strings.ToUpper(parts[0][:1]) + strings.ToLower(parts[0][1:])
	t, err := time.Parse("January-2006", month+"-"+parts[1])
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
