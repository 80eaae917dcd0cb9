package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"hnjobs/internal/model"
)

// Provider sends one system+user instruction pair to the enrichment service
// and returns the raw text response.
type Provider interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

const systemInstruction = `You are an information extraction system.
You extract structured data and return ONLY valid JSON.`

// Extractor turns raw postings into enrichments via one LLM round trip per
// posting. Failures are per-item: the caller logs, skips, and moves on.
type Extractor struct {
	provider Provider
	logger   *slog.Logger
}

var _ model.PostingExtractor = (*Extractor)(nil)

// NewExtractor wires the enrichment provider.
func NewExtractor(provider Provider, logger *slog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		logger:   logger,
	}
}

// Extract builds the instruction pair for p, calls the provider once, and
// normalizes the response into an Enrichment. Any error means this single
// posting failed; it never aborts a batch.
func (e *Extractor) Extract(ctx context.Context, p model.Posting) (model.Enrichment, error) {
	var promptBuf bytes.Buffer
	err := extractTemplate.Execute(&promptBuf, struct{ Title, Description string }{
		Title: p.Title,
		// Keep the description on one line inside the prompt.
		Description: strings.Join(strings.Fields(p.Description), " "),
	})
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := e.provider.Chat(ctx, systemInstruction, promptBuf.String())
	if err != nil {
		return model.Enrichment{}, fmt.Errorf("chat: %w", err)
	}

	fields, err := parseExtraction(raw)
	if err != nil {
		return model.Enrichment{}, err
	}

	isRemote, coerced := coerceRemote(fields.IsRemote)
	if coerced {
		// Lossy but deliberate: anything the model returns that is neither
		// a boolean nor "hybrid" defaults to not-remote.
		e.logger.Warn("coerced non-boolean is_remote",
			"posting", p.ID,
			"raw", string(fields.IsRemote),
			"value", *isRemote,
		)
	}

	return model.Enrichment{
		ID:           p.ID,
		Title:        p.Title,
		Description:  *fields.Description,
		PostedDate:   p.PostedDate,
		JobURL:       fields.JobURL,
		CompanyURL:   fields.CompanyURL,
		Technologies: fields.Technologies,
		Location:     fields.JobLocation,
		Industry:     fields.Industry,
		Salary:       fields.Salary,
		IsRemote:     isRemote,
	}, nil
}

// rawExtraction is the JSON shape the model is asked to return. Benefits
// are requested in the prompt but not persisted.
type rawExtraction struct {
	Description  *string         `json:"description"`
	JobURL       *string         `json:"job_url"`
	CompanyURL   *string         `json:"company_url"`
	Industry     *string         `json:"industry"`
	Salary       *string         `json:"salary"`
	JobLocation  *string         `json:"job_location"`
	IsRemote     json.RawMessage `json:"is_remote"`
	Technologies []string        `json:"technologies"`
}

// parseExtraction strips the model's defensive artifacts and parses the
// remaining text as a JSON object.
func parseExtraction(raw string) (*rawExtraction, error) {
	normalized := strings.ReplaceAll(raw, `\_`, "_")
	normalized = stripCodeFence(normalized)

	var fields rawExtraction
	if err := json.Unmarshal([]byte(normalized), &fields); err != nil {
		return nil, fmt.Errorf("parse extraction JSON: %w", err)
	}
	if fields.Description == nil {
		return nil, fmt.Errorf("extraction response missing description")
	}
	return &fields, nil
}

// stripCodeFence removes a Markdown code-fence wrapper, with or without a
// language tag, leaving bare JSON untouched.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// coerceRemote maps the raw is_remote value to a nullable bool. Booleans
// and null pass through; the string "hybrid" counts as remote; anything
// else falls back to false, reported via the second return.
func coerceRemote(raw json.RawMessage) (value *bool, coerced bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.EqualFold(s, "hybrid") {
		t := true
		return &t, false
	}

	f := false
	return &f, true
}
