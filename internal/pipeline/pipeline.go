package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"hnjobs/internal/model"
	"hnjobs/internal/store"
)

// Store is the persistence surface the pipeline needs: conflict-aware batch
// writes plus the anti-join selector.
type Store interface {
	PutPostings(ctx context.Context, postings []model.Posting, mode store.UpsertMode) error
	PutEnrichments(ctx context.Context, enrichments []model.Enrichment, mode store.UpsertMode) error
	SelectUnprocessed(ctx context.Context) ([]model.Posting, error)
	ListPostings(ctx context.Context) ([]model.Posting, error)
	ListPostingIDs(ctx context.Context) (map[string]struct{}, error)
}

const defaultBatchSize = 10

// Pipeline owns the two-phase ingestion/enrichment workflow:
// fetch → fingerprint → upsert-raw(ignore), then
// select-unprocessed → extract → upsert-enriched(overwrite) in batches.
// Strictly sequential; all cross-run state lives in the store.
type Pipeline struct {
	source    model.PostingSource
	extractor model.PostingExtractor
	store     Store
	batchSize int
	logger    *slog.Logger
}

// New wires the pipeline. batchSize bounds the enrichment work lost on a
// crash; values below 1 fall back to the default of 10.
func New(source model.PostingSource, extractor model.PostingExtractor, st Store, batchSize int, logger *slog.Logger) *Pipeline {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	return &Pipeline{
		source:    source,
		extractor: extractor,
		store:     st,
		batchSize: batchSize,
		logger:    logger,
	}
}

// IngestReport summarizes one ingest phase.
type IngestReport struct {
	Fetched    int // postings returned by the source
	New        int // ids not previously stored
	Duplicates int // ids already stored (left untouched)
}

// Ingest fetches one listing page, assigns fingerprints, and upserts the
// postings in IGNORE mode so re-scraping never corrupts stored rows. A
// failed fetch is fatal for the page; an empty fetch skips the upsert.
func (p *Pipeline) Ingest(ctx context.Context, page string) (IngestReport, error) {
	postings, err := p.source.FetchPostings(ctx, page)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest %s: %w", page, err)
	}

	if len(postings) == 0 {
		p.logger.Info("no postings fetched, skipping upsert", "page", page)
		return IngestReport{}, nil
	}

	known, err := p.store.ListPostingIDs(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest %s: %w", page, err)
	}

	report := IngestReport{Fetched: len(postings)}
	for i := range postings {
		postings[i].ID = model.Fingerprint(postings[i].Title, postings[i].PostedDate)
		if _, dup := known[postings[i].ID]; dup {
			report.Duplicates++
		} else {
			report.New++
			known[postings[i].ID] = struct{}{}
		}
	}

	if err := p.store.PutPostings(ctx, postings, store.UpsertIgnore); err != nil {
		return report, fmt.Errorf("ingest %s: %w", page, err)
	}

	p.logger.Info("ingested page",
		"page", page,
		"fetched", report.Fetched,
		"new", report.New,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

// EnrichReport summarizes one enrichment phase.
type EnrichReport struct {
	Selected  int // postings picked up for extraction
	Extracted int // successful extractions
	Failed    int // skipped postings (logged individually)
	Flushed   int // enrichments durably written
}

// Enrich extracts structured fields for every unprocessed posting (or, when
// reprocess is set, every stored posting) and writes the results in
// OVERWRITE mode. Accumulated enrichments are flushed each time batchSize
// postings have been processed, success or failure; a remainder below the
// boundary stays unflushed and is re-selected by the next run. Extraction
// failures never abort the phase.
func (p *Pipeline) Enrich(ctx context.Context, reprocess bool) (EnrichReport, error) {
	var (
		postings []model.Posting
		err      error
	)
	if reprocess {
		postings, err = p.store.ListPostings(ctx)
	} else {
		postings, err = p.store.SelectUnprocessed(ctx)
	}
	if err != nil {
		return EnrichReport{}, fmt.Errorf("enrich: %w", err)
	}

	report := EnrichReport{Selected: len(postings)}
	batch := make([]model.Enrichment, 0, p.batchSize)

	for i, posting := range postings {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		enrichment, err := p.extractor.Extract(ctx, posting)
		if err != nil {
			p.logger.Warn("skipping posting after failed extraction",
				"posting", posting.ID,
				"error", err,
			)
			report.Failed++
		} else {
			batch = append(batch, enrichment)
			report.Extracted++
		}

		// Checkpoint: i+1 postings processed so far.
		if (i+1)%p.batchSize == 0 && len(batch) > 0 {
			if err := p.store.PutEnrichments(ctx, batch, store.UpsertOverwrite); err != nil {
				return report, fmt.Errorf("enrich: flush batch: %w", err)
			}
			report.Flushed += len(batch)
			batch = batch[:0]
		}
	}

	p.logger.Info("enrichment phase done",
		"selected", report.Selected,
		"extracted", report.Extracted,
		"failed", report.Failed,
		"flushed", report.Flushed,
	)
	return report, nil
}
