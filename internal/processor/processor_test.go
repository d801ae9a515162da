package processor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jonesrussell/graphweave/internal/database"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/metrics"
	"github.com/jonesrussell/graphweave/internal/processor"
	"github.com/jonesrussell/graphweave/internal/storage"
)

// Test configuration constants.
const (
	testMaxDepth   = 3
	testMaxRetries = 3
	testTitle      = "Alan Turing"
)

// --- Mock implementations ---

type mockFetcher struct {
	page *domain.Page
	err  error
}

func (m *mockFetcher) Fetch(_ context.Context, _ string) (*domain.Page, error) {
	return m.page, m.err
}

type mockExtractor struct {
	knowledge *domain.Knowledge
	err       error
}

func (m *mockExtractor) Extract(_ context.Context, _ string, _ []domain.Section) (*domain.Knowledge, error) {
	return m.knowledge, m.err
}

type mockEmbedder struct {
	vectors [][]float32
	err     error
	inputs  [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.inputs = append(m.inputs, texts)
	return m.vectors, m.err
}

type mockPersister struct {
	docs []*storage.NodeDocument
	err  error
}

func (m *mockPersister) Index(_ context.Context, doc *storage.NodeDocument) error {
	m.docs = append(m.docs, doc)
	return m.err
}

type mockQueue struct {
	mu             sync.Mutex
	advances       []string
	fails          []string
	permanentFails []string
	categories     map[string]string
	failErr        error
	advanceErr     error
}

func newMockQueue() *mockQueue {
	return &mockQueue{categories: map[string]string{}}
}

func (m *mockQueue) Advance(_ context.Context, title, newState string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advances = append(m.advances, title+":"+newState)
	return m.advanceErr
}

func (m *mockQueue) Fail(_ context.Context, title, lastError string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails = append(m.fails, title+":"+lastError)
	return m.failErr
}

func (m *mockQueue) FailPermanent(_ context.Context, title, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permanentFails = append(m.permanentFails, title+":"+lastError)
	return m.failErr
}

func (m *mockQueue) UpdateCategory(_ context.Context, title, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[title] = category
	return nil
}

type mockExpander struct {
	newCount int
	err      error
	calls    []expandCall
}

type expandCall struct {
	Source string
	Links  []string
	Depth  int
	Max    int
}

func (m *mockExpander) Expand(
	_ context.Context,
	sourceTitle string,
	candidateLinks []string,
	currentDepth, maxDepth int,
) (int, error) {
	m.calls = append(m.calls, expandCall{
		Source: sourceTitle, Links: candidateLinks, Depth: currentDepth, Max: maxDepth,
	})
	return m.newCount, m.err
}

// --- Fixtures ---

func samplePage() *domain.Page {
	return &domain.Page{
		Title: testTitle,
		Sections: []domain.Section{
			{Heading: "", Text: "Alan Turing was a mathematician."},
			{Heading: "Legacy", Text: "Father of computer science."},
		},
		Links:      []string{"Bletchley Park", "Computer science"},
		Categories: []string{"British mathematicians"},
	}
}

func sampleKnowledge() *domain.Knowledge {
	return &domain.Knowledge{
		Entities: []domain.Entity{{Name: "Alan Turing", Type: "person"}},
		Facts:    []string{"Born in 1912."},
	}
}

type fixtures struct {
	fetcher   *mockFetcher
	extractor *mockExtractor
	embedder  *mockEmbedder
	persister *mockPersister
	queue     *mockQueue
	expander  *mockExpander
	metrics   *metrics.Metrics
}

func newProcessor(f *fixtures) *processor.Processor {
	return processor.New(
		f.fetcher, f.extractor, f.embedder, f.persister, f.queue, f.expander,
		f.metrics, logger.NewNoOp(),
		processor.Config{MaxDepth: testMaxDepth, MaxRetries: testMaxRetries},
	)
}

func happyFixtures() *fixtures {
	return &fixtures{
		fetcher:   &mockFetcher{page: samplePage()},
		extractor: &mockExtractor{knowledge: sampleKnowledge()},
		embedder:  &mockEmbedder{vectors: [][]float32{{0.1}, {0.2}}},
		persister: &mockPersister{},
		queue:     newMockQueue(),
		expander:  &mockExpander{newCount: 2},
		metrics:   metrics.New(),
	}
}

func claimedEntry(depth int) *domain.Entry {
	return &domain.Entry{Title: testTitle, Depth: depth, State: domain.EntryStateClaimed}
}

// --- Tests ---

func TestProcess_Success(t *testing.T) {
	f := happyFixtures()
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(1)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.persister.docs) != 1 {
		t.Fatalf("persisted %d docs, want 1", len(f.persister.docs))
	}
	doc := f.persister.docs[0]
	if doc.Category != "British mathematicians" {
		t.Errorf("doc.Category = %q", doc.Category)
	}
	if len(doc.Vectors) != 2 {
		t.Errorf("doc.Vectors = %d, want 2", len(doc.Vectors))
	}

	if got := f.queue.categories[testTitle]; got != "British mathematicians" {
		t.Errorf("category update = %q", got)
	}

	if len(f.expander.calls) != 1 {
		t.Fatalf("expander called %d times, want 1", len(f.expander.calls))
	}
	call := f.expander.calls[0]
	if call.Depth != 1 || call.Max != testMaxDepth {
		t.Errorf("expand depth = %d/%d, want 1/%d", call.Depth, call.Max, testMaxDepth)
	}

	if len(f.queue.advances) != 1 || f.queue.advances[0] != testTitle+":loaded" {
		t.Errorf("advances = %v, want [%s:loaded]", f.queue.advances, testTitle)
	}
	if len(f.queue.fails)+len(f.queue.permanentFails) != 0 {
		t.Errorf("unexpected failures: %v %v", f.queue.fails, f.queue.permanentFails)
	}

	snap := f.metrics.Snapshot()
	if snap.ProcessedCount != 1 || snap.LinksDiscovered != 2 {
		t.Errorf("metrics = %d processed, %d links; want 1, 2",
			snap.ProcessedCount, snap.LinksDiscovered)
	}
}

func TestProcess_NotFoundIsPermanent(t *testing.T) {
	f := happyFixtures()
	f.fetcher = &mockFetcher{err: fmt.Errorf("fetch %q: %w", testTitle, domain.ErrNotFound)}
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.queue.permanentFails) != 1 {
		t.Fatalf("permanent fails = %v, want 1", f.queue.permanentFails)
	}
	if len(f.queue.fails) != 0 {
		t.Errorf("transient fails = %v, want none", f.queue.fails)
	}
	if len(f.queue.advances) != 0 {
		t.Errorf("advances = %v, want none", f.queue.advances)
	}
}

func TestProcess_TransientFetchError(t *testing.T) {
	f := happyFixtures()
	f.fetcher = &mockFetcher{err: fmt.Errorf("fetch: %w", domain.ErrRateLimited)}
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.queue.fails) != 1 {
		t.Fatalf("fails = %v, want 1", f.queue.fails)
	}
	if len(f.queue.permanentFails) != 0 {
		t.Errorf("permanent fails = %v, want none", f.queue.permanentFails)
	}
}

func TestProcess_ExtractErrorConsumesRetry(t *testing.T) {
	f := happyFixtures()
	f.extractor = &mockExtractor{err: domain.Transient(errors.New("model unavailable"))}
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.queue.fails) != 1 {
		t.Fatalf("fails = %v, want 1", f.queue.fails)
	}
	if len(f.persister.docs) != 0 {
		t.Errorf("persisted despite extract failure")
	}
}

func TestProcess_SanitizesErrorBeforeFail(t *testing.T) {
	f := happyFixtures()
	f.fetcher = &mockFetcher{err: errors.New(`upstream said: api_key=sk-abc123supersecret rejected`)}
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.queue.fails) != 1 {
		t.Fatalf("fails = %v, want 1", f.queue.fails)
	}
	recorded := f.queue.fails[0]
	if strings.Contains(recorded, "sk-abc123supersecret") {
		t.Errorf("recorded failure leaks credentials: %q", recorded)
	}
	if !strings.Contains(recorded, "[REDACTED]") {
		t.Errorf("recorded failure not redacted: %q", recorded)
	}
}

func TestProcess_FatalErrorPropagates(t *testing.T) {
	f := happyFixtures()
	f.fetcher = &mockFetcher{err: domain.Fatal(errors.New("claim ordering violated"))}
	p := newProcessor(f)

	err := p.Process(context.Background(), claimedEntry(0))
	if err == nil {
		t.Fatal("Process() error = nil, want fatal error")
	}
	if domain.KindOf(err) != domain.ErrorKindFatal {
		t.Errorf("error kind = %v, want fatal", domain.KindOf(err))
	}
	if len(f.queue.fails)+len(f.queue.permanentFails) != 0 {
		t.Errorf("fatal error must not be recorded as a business failure")
	}
}

func TestProcess_AdvanceLostLeaseAbsorbed(t *testing.T) {
	f := happyFixtures()
	f.queue.advanceErr = fmt.Errorf("advance %q to %q: %w",
		testTitle, domain.EntryStateLoaded, database.ErrNotClaimed)
	p := newProcessor(f)

	// The lease expired mid-pipeline and the reclaimer returned the entry
	// to the pool. The run must continue; the entry is simply reprocessed.
	if err := p.Process(context.Background(), claimedEntry(1)); err != nil {
		t.Fatalf("Process() error = %v, want nil", err)
	}

	if len(f.queue.fails)+len(f.queue.permanentFails) != 0 {
		t.Errorf("lost lease recorded as failure: %v %v", f.queue.fails, f.queue.permanentFails)
	}
	// The node itself was still persisted before the race surfaced.
	if len(f.persister.docs) != 1 {
		t.Errorf("persisted %d docs, want 1", len(f.persister.docs))
	}
}

func TestProcess_AdvanceStoreErrorPropagates(t *testing.T) {
	f := happyFixtures()
	f.queue.advanceErr = errors.New("connection refused")
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(1)); err == nil {
		t.Fatal("Process() error = nil, want store error")
	}
}

func TestProcess_NoEmbeddableText(t *testing.T) {
	f := happyFixtures()
	page := samplePage()
	for i := range page.Sections {
		page.Sections[i].Text = ""
	}
	f.fetcher = &mockFetcher{page: page}
	p := newProcessor(f)

	if err := p.Process(context.Background(), claimedEntry(1)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(f.embedder.inputs) != 0 {
		t.Errorf("embedder called with empty text: %v", f.embedder.inputs)
	}
	if len(f.queue.advances) != 1 {
		t.Errorf("advances = %v, want 1", f.queue.advances)
	}
}
