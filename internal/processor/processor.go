// Package processor runs the per-entry pipeline: fetch content, extract
// structured knowledge, embed text, persist the node, expand the frontier,
// and report the outcome to the work queue. It only ever operates on
// entries already claimed by the orchestrator; it never claims work itself.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/graphweave/internal/database"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/storage"
)

// ContentFetcher fetches rendered article content.
type ContentFetcher interface {
	Fetch(ctx context.Context, title string) (*domain.Page, error)
}

// KnowledgeExtractor extracts structured knowledge from article sections.
type KnowledgeExtractor interface {
	Extract(ctx context.Context, title string, sections []domain.Section) (*domain.Knowledge, error)
}

// Embedder generates embedding vectors for a batch of texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NodePersister writes processed node documents to the graph store.
type NodePersister interface {
	Index(ctx context.Context, doc *storage.NodeDocument) error
}

// WorkQueue is the slice of the entry repository the processor reports to.
type WorkQueue interface {
	Advance(ctx context.Context, title, newState string) error
	Fail(ctx context.Context, title, lastError string, maxRetries int) error
	FailPermanent(ctx context.Context, title, lastError string) error
	UpdateCategory(ctx context.Context, title, category string) error
}

// FrontierExpander enqueues newly discovered links.
type FrontierExpander interface {
	Expand(ctx context.Context, sourceTitle string, candidateLinks []string, currentDepth, maxDepth int) (int, error)
}

// Recorder counts pipeline outcomes for monitoring.
type Recorder interface {
	RecordSuccess(linksDiscovered int)
	RecordFailure()
}

// Config holds processor settings.
type Config struct {
	MaxDepth   int
	MaxRetries int
}

// Processor processes one claimed entry at a time.
type Processor struct {
	fetcher   ContentFetcher
	extractor KnowledgeExtractor
	embedder  Embedder
	persister NodePersister
	queue     WorkQueue
	expander  FrontierExpander
	recorder  Recorder
	log       logger.Interface
	cfg       Config
}

// New creates a new processor.
func New(
	fetcher ContentFetcher,
	extractor KnowledgeExtractor,
	embedder Embedder,
	persister NodePersister,
	queue WorkQueue,
	expander FrontierExpander,
	recorder Recorder,
	log logger.Interface,
	cfg Config,
) *Processor {
	return &Processor{
		fetcher:   fetcher,
		extractor: extractor,
		embedder:  embedder,
		persister: persister,
		queue:     queue,
		expander:  expander,
		recorder:  recorder,
		log:       log,
		cfg:       cfg,
	}
}

// Process runs the pipeline for one claimed entry. Collaborator failures
// are converted into work queue transitions and absorbed; the returned
// error is non-nil only when the state transition itself failed, which the
// orchestrator treats as fatal for this entry (a coordination bug or a
// store outage, not a business failure).
func (p *Processor) Process(ctx context.Context, entry *domain.Entry) error {
	page, fetchErr := p.fetcher.Fetch(ctx, entry.Title)
	if fetchErr != nil {
		return p.reportFailure(ctx, entry, fetchErr)
	}

	knowledge, extractErr := p.extractor.Extract(ctx, entry.Title, page.Sections)
	if extractErr != nil {
		return p.reportFailure(ctx, entry, extractErr)
	}

	vectors, embedErr := p.embedSections(ctx, page.Sections)
	if embedErr != nil {
		return p.reportFailure(ctx, entry, embedErr)
	}

	category := entry.Category
	if len(page.Categories) > 0 {
		category = page.Categories[0]
	}

	doc := &storage.NodeDocument{
		Title:         entry.Title,
		Category:      category,
		Depth:         entry.Depth,
		Sections:      page.Sections,
		Entities:      knowledge.Entities,
		Relationships: knowledge.Relationships,
		Facts:         knowledge.Facts,
		Vectors:       vectors,
	}
	if persistErr := p.persister.Index(ctx, doc); persistErr != nil {
		return p.reportFailure(ctx, entry, persistErr)
	}

	if category != entry.Category {
		if catErr := p.queue.UpdateCategory(ctx, entry.Title, category); catErr != nil {
			return fmt.Errorf("failed to update category for %q: %w", entry.Title, catErr)
		}
	}

	// Persisting and expansion are both idempotent, so a failure past this
	// point can safely re-run the whole pipeline on retry.
	newCount, expandErr := p.expander.Expand(ctx, entry.Title, page.Links, entry.Depth, p.cfg.MaxDepth)
	if expandErr != nil {
		return p.reportFailure(ctx, entry, expandErr)
	}

	if advanceErr := p.queue.Advance(ctx, entry.Title, domain.EntryStateLoaded); advanceErr != nil {
		// The reclaimer may have returned the entry to the pool after the
		// lease expired. The next claim re-runs the pipeline; everything up
		// to here is idempotent, so the only cost is duplicate work.
		if errors.Is(advanceErr, database.ErrNotClaimed) {
			p.log.Warn("lease lost before completion, entry will be reprocessed", "title", entry.Title)
			return nil
		}
		return fmt.Errorf("failed to advance %q: %w", entry.Title, advanceErr)
	}

	p.recorder.RecordSuccess(newCount)
	p.log.Info("entry processed",
		"title", entry.Title,
		"depth", entry.Depth,
		"links_discovered", newCount,
		"entities", len(knowledge.Entities),
	)

	return nil
}

// embedSections embeds the non-empty section texts. Articles with no
// embeddable text yield no vectors rather than an embedder error.
func (p *Processor) embedSections(ctx context.Context, sections []domain.Section) ([][]float32, error) {
	texts := make([]string, 0, len(sections))
	for _, section := range sections {
		if section.Text != "" {
			texts = append(texts, section.Text)
		}
	}

	if len(texts) == 0 {
		return nil, nil
	}

	return p.embedder.Embed(ctx, texts)
}

// reportFailure converts a collaborator error into the matching work queue
// transition. Not-found and other permanent errors skip retry accounting
// entirely; transient ones consume a retry. Fatal errors are propagated.
func (p *Processor) reportFailure(ctx context.Context, entry *domain.Entry, cause error) error {
	kind := domain.KindOf(cause)
	if kind == domain.ErrorKindFatal {
		return cause
	}

	sanitized := SanitizeError(cause.Error())

	p.recorder.RecordFailure()
	p.log.Warn("entry processing failed",
		"title", entry.Title,
		"kind", kind.String(),
		"retry_count", entry.RetryCount,
		"error", sanitized,
	)

	var queueErr error
	if kind == domain.ErrorKindPermanent {
		queueErr = p.queue.FailPermanent(ctx, entry.Title, sanitized)
	} else {
		queueErr = p.queue.Fail(ctx, entry.Title, sanitized, p.cfg.MaxRetries)
	}

	if queueErr != nil {
		// The reclaimer may have beaten us to it; that race is expected and
		// the entry is already back in the pool.
		if errors.Is(queueErr, database.ErrNotClaimed) {
			p.log.Warn("entry no longer claimed, skipping failure report", "title", entry.Title)
			return nil
		}
		return fmt.Errorf("failed to record failure for %q: %w", entry.Title, queueErr)
	}

	return nil
}
