package trends

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/TrendDeskAI/trenddesk/engine/domain"
	"github.com/TrendDeskAI/trenddesk/pkg/repo"
)

// trendLabel is the node label for the trend collection.
const trendLabel = "Trend"

// Neo4jStore stores trend records as Trend nodes. Every mutation is a
// per-record upsert by id; there is no collection-wide rewrite path.
type Neo4jStore struct {
	records *repo.Neo4jRepo[domain.TrendRecord, string]
}

// NewNeo4jStore creates a Store backed by the given driver.
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{
		records: repo.NewNeo4jRepo[domain.TrendRecord, string](
			driver, trendLabel, trendToProps, trendFromRecord),
	}
}

func (s *Neo4jStore) List(ctx context.Context) ([]domain.TrendRecord, error) {
	return s.records.List(ctx, repo.ListOpts{})
}

func (s *Neo4jStore) Get(ctx context.Context, id string) (domain.TrendRecord, error) {
	rec, err := s.records.Get(ctx, id)
	return rec, mapNotFound(err)
}

func (s *Neo4jStore) Create(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error) {
	rec.ID = uuid.NewString()
	return s.records.Create(ctx, rec)
}

func (s *Neo4jStore) Update(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error) {
	out, err := s.records.Update(ctx, rec)
	return out, mapNotFound(err)
}

func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.records.Delete(ctx, id))
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// trendToProps flattens a record into node properties. Neo4j property
// values cannot nest, so the persona is stored as three scalar props.
func trendToProps(rec domain.TrendRecord) map[string]any {
	props := map[string]any{
		"id":              rec.ID,
		"research_task":   rec.ResearchTask,
		"news_links":      rec.NewsLinks,
		"context":         rec.Context,
		"date_discovered": rec.DateDiscovered,
		"theme":           rec.Theme,
		"analysis":        rec.Analysis,
	}
	if rec.Persona != nil {
		props["persona_id"] = rec.Persona.ID
		props["persona_name"] = rec.Persona.Name
		props["persona_position"] = rec.Persona.Position
	}
	return props
}

// trendFromRecord rebuilds a record from a returned node.
func trendFromRecord(rec *neo4j.Record) (domain.TrendRecord, error) {
	if len(rec.Values) == 0 {
		return domain.TrendRecord{}, fmt.Errorf("empty record")
	}

	var props map[string]any
	switch v := rec.Values[0].(type) {
	case dbtype.Node:
		props = v.Props
	case map[string]any:
		props = v
	default:
		return domain.TrendRecord{}, fmt.Errorf("unexpected record value %T", v)
	}

	out := domain.TrendRecord{
		ID:             str(props, "id"),
		ResearchTask:   str(props, "research_task"),
		NewsLinks:      strSlice(props, "news_links"),
		Context:        str(props, "context"),
		DateDiscovered: str(props, "date_discovered"),
		Theme:          str(props, "theme"),
		Analysis:       str(props, "analysis"),
	}
	if name := str(props, "persona_name"); name != "" || str(props, "persona_id") != "" {
		out.Persona = &domain.Persona{
			ID:       str(props, "persona_id"),
			Name:     name,
			Position: str(props, "persona_position"),
		}
	}
	return out, nil
}

func str(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func strSlice(props map[string]any, key string) []string {
	switch v := props[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
