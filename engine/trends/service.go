package trends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/TrendDeskAI/trenddesk/engine/domain"
	"github.com/TrendDeskAI/trenddesk/engine/memo"
	"github.com/TrendDeskAI/trenddesk/engine/scrape"
	"github.com/TrendDeskAI/trenddesk/pkg/fn"
	"github.com/TrendDeskAI/trenddesk/pkg/natsutil"
)

// Failure kinds the handlers translate into status codes.
var (
	// ErrScrape marks a per-URL extraction failure; the whole batch
	// aborts and nothing is persisted.
	ErrScrape = errors.New("scrape failed")
	// ErrGenerate marks a memo-generation failure.
	ErrGenerate = errors.New("memo generation failed")
)

// Lifecycle event subjects, published when NATS is configured.
const (
	SubjectCreated = "trends.created"
	SubjectUpdated = "trends.updated"
	SubjectDeleted = "trends.deleted"
)

// ContentExtractor is the slice of scrape.Extractor the service needs.
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string, kind scrape.Kind) fn.Result[string]
}

// Service orchestrates validation, extraction, generation, and
// persistence for trend records.
type Service struct {
	store     Store
	extractor ContentExtractor
	generator memo.Generator // external generator for scraped content
	local     memo.Generator // deterministic analysis for create/update
	nc        *nats.Conn     // nil disables event publishing
	logger    *slog.Logger
}

// NewService wires a Service. nc may be nil.
func NewService(store Store, extractor ContentExtractor, generator memo.Generator, nc *nats.Conn, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		generator: generator,
		local:     memo.Template{},
		nc:        nc,
		logger:    logger,
	}
}

// List returns every stored record.
func (s *Service) List(ctx context.Context) ([]domain.TrendRecord, error) {
	return s.store.List(ctx)
}

// Create validates the record, derives its analysis, and stores it.
// The analysis is always generated, never taken from the request.
func (s *Service) Create(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error) {
	if err := rec.Validate(); err != nil {
		return domain.TrendRecord{}, err
	}
	rec.Analysis = s.analysis(ctx, rec)

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return domain.TrendRecord{}, err
	}
	s.publish(ctx, SubjectCreated, created)
	return created, nil
}

// Update merges the patch onto the stored record and regenerates the
// analysis so the memo always matches the record it describes.
func (s *Service) Update(ctx context.Context, id string, patch domain.TrendPatch) (domain.TrendRecord, error) {
	if !domain.ValidID(id) {
		return domain.TrendRecord{}, domain.ErrInvalidID
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.TrendRecord{}, err
	}

	merged := patch.Apply(current)
	merged.Analysis = s.analysis(ctx, merged)

	updated, err := s.store.Update(ctx, merged)
	if err != nil {
		return domain.TrendRecord{}, err
	}
	s.publish(ctx, SubjectUpdated, updated)
	return updated, nil
}

// Delete removes a record. Deleting an absent id reports not-found;
// deleting twice is the same as deleting a ghost.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrInvalidID
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, SubjectDeleted, domain.TrendRecord{ID: id})
	return nil
}

// analysis builds the local deterministic memo for a record.
func (s *Service) analysis(ctx context.Context, rec domain.TrendRecord) string {
	out, err := s.local.Generate(ctx, memo.Request{
		ResearchTask: rec.ResearchTask,
		Context:      rec.Context,
		Theme:        rec.Theme,
	}).Unwrap()
	if err != nil {
		// The template generator cannot fail; guard anyway.
		s.logger.Warn("analysis generation failed", "err", err)
		return ""
	}
	return out
}

// GenerateMemo runs the external generator over already-scraped content.
func (s *Service) GenerateMemo(ctx context.Context, req memo.Request) (string, error) {
	out, err := s.generator.Generate(ctx, req).Unwrap()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	return out, nil
}

// PersonaDetails is the request-side persona. Interests and background
// flow into the memo context; only id/name/position are persisted.
type PersonaDetails struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Interests  string `json:"interests"`
	Background string `json:"background"`
}

// ScrapeAndGenerateRequest drives the one-shot scrape/synthesize/persist flow.
type ScrapeAndGenerateRequest struct {
	URLs         []string
	ResearchTask string
	Context      string
	Theme        string
	SourceType   string
	Persona      *PersonaDetails
}

// ScrapeAndGenerate extracts every URL, synthesizes one memo over the
// combined content, and persists the result as a new record. Any
// single extraction failure aborts the whole request before anything
// is generated or stored.
func (s *Service) ScrapeAndGenerate(ctx context.Context, req ScrapeAndGenerateRequest) (domain.TrendRecord, error) {
	// Guard the stored-record invariant here, not just at the handler:
	// every persisted record carries a research task.
	if req.ResearchTask == "" {
		return domain.TrendRecord{}, domain.NewValidationError("research_task", "", domain.ErrMissingField)
	}

	kind := scrape.Kind(strings.ToLower(req.SourceType))
	if kind == "" {
		kind = scrape.KindAuto
	}

	var parts []string
	for _, u := range req.URLs {
		content, err := s.extractor.Extract(ctx, u, kind).Unwrap()
		if err != nil {
			return domain.TrendRecord{}, fmt.Errorf("%w: %s: %v", ErrScrape, u, err)
		}
		parts = append(parts, "Source: "+u+"\n\n"+content+"\n\n")
	}
	combined := strings.Join(parts, "\n---\n")

	enhanced := enhanceContext(req.Context, req.Persona)

	analysis, err := s.generator.Generate(ctx, memo.Request{
		Content:      combined,
		ResearchTask: req.ResearchTask,
		Context:      enhanced,
		Theme:        req.Theme,
	}).Unwrap()
	if err != nil {
		return domain.TrendRecord{}, fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	rec := domain.TrendRecord{
		ResearchTask:   req.ResearchTask,
		NewsLinks:      req.URLs,
		Context:        enhanced,
		DateDiscovered: time.Now().Format(time.DateOnly),
		Theme:          req.Theme,
		Analysis:       analysis,
	}
	if p := req.Persona; p != nil {
		id := p.ID
		if id == "" {
			id = "persona-" + uuid.NewString()
		}
		rec.Persona = &domain.Persona{ID: id, Name: p.Name, Position: p.Position}
	}

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return domain.TrendRecord{}, err
	}
	s.publish(ctx, SubjectCreated, created)
	return created, nil
}

// enhanceContext prefixes the caller context with a persona blurb,
// producing the marker phrase the generator keys tone-tailoring on.
func enhanceContext(context string, p *PersonaDetails) string {
	if p == nil {
		return context
	}
	info := fmt.Sprintf("This memo is prepared for %s, %s.\n", p.Name, p.Position)
	if p.Interests != "" {
		info += "Their interests include: " + p.Interests + "\n"
	}
	if p.Background != "" {
		info += "Background: " + p.Background + "\n"
	}
	if context == "" {
		return info
	}
	return info + "\n" + context
}

// publish emits a lifecycle event when NATS is configured. Publish
// failures are logged, never surfaced to the caller.
func (s *Service) publish(ctx context.Context, subject string, rec domain.TrendRecord) {
	if s.nc == nil {
		return
	}
	if err := natsutil.Publish(ctx, s.nc, subject, rec); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "err", err)
	}
}

// FilterQuery selects and orders records for the filter endpoint.
type FilterQuery struct {
	Search    string
	Theme     string
	SortBy    string
	SortOrder string
}

// Filter applies a case-insensitive substring search across the text
// fields, an optional exact theme match, and a stable sort. The same
// in-memory semantics apply to both backends.
func (s *Service) Filter(ctx context.Context, q FilterQuery) ([]domain.TrendRecord, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		recs = fn.Filter(recs, func(rec domain.TrendRecord) bool {
			for _, hay := range []string{rec.ResearchTask, rec.Context, rec.Theme, rec.Analysis} {
				if strings.Contains(strings.ToLower(hay), needle) {
					return true
				}
			}
			return false
		})
	}

	if q.Theme != "" {
		recs = fn.Filter(recs, func(rec domain.TrendRecord) bool {
			return strings.EqualFold(rec.Theme, q.Theme)
		})
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "date_discovered"
	}
	key, ok := sortKeys[sortBy]
	if ok {
		asc := strings.EqualFold(q.SortOrder, "asc")
		sort.SliceStable(recs, func(i, j int) bool {
			if asc {
				return key(recs[i]) < key(recs[j])
			}
			return key(recs[i]) > key(recs[j])
		})
	}
	return recs, nil
}

// sortKeys maps sortable column names to record fields. Unknown
// columns leave the order untouched.
var sortKeys = map[string]func(domain.TrendRecord) string{
	"id":              func(r domain.TrendRecord) string { return r.ID },
	"research_task":   func(r domain.TrendRecord) string { return r.ResearchTask },
	"context":         func(r domain.TrendRecord) string { return r.Context },
	"date_discovered": func(r domain.TrendRecord) string { return r.DateDiscovered },
	"theme":           func(r domain.TrendRecord) string { return r.Theme },
	"analysis":        func(r domain.TrendRecord) string { return r.Analysis },
}
