package trends

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/TrendDeskAI/trenddesk/engine/domain"
)

// csvHeader fixes the column order of the flat-file fallback.
var csvHeader = []string{
	"id", "research_task", "news_links", "context",
	"date_discovered", "theme", "analysis",
	"persona_id", "persona_name", "persona_position",
}

// CSVStore is the flat-file fallback used when no document store is
// configured. Every mutation rewrites the whole file through a temp
// file and rename, so a crash never leaves a half-written collection.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates the store and its parent directory.
func NewCSVStore(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{path: path}, nil
}

func (s *CSVStore) List(ctx context.Context) ([]domain.TrendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *CSVStore) Get(ctx context.Context, id string) (domain.TrendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return domain.TrendRecord{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.TrendRecord{}, domain.ErrNotFound
}

func (s *CSVStore) Create(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return domain.TrendRecord{}, err
	}
	rec.ID = uuid.NewString()
	recs = append(recs, rec)
	if err := s.save(recs); err != nil {
		return domain.TrendRecord{}, err
	}
	return rec, nil
}

func (s *CSVStore) Update(ctx context.Context, rec domain.TrendRecord) (domain.TrendRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return domain.TrendRecord{}, err
	}
	for i := range recs {
		if recs[i].ID == rec.ID {
			recs[i] = rec
			if err := s.save(recs); err != nil {
				return domain.TrendRecord{}, err
			}
			return rec, nil
		}
	}
	return domain.TrendRecord{}, domain.ErrNotFound
}

func (s *CSVStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].ID == id {
			recs = append(recs[:i], recs[i+1:]...)
			return s.save(recs)
		}
	}
	return domain.ErrNotFound
}

// load reads all records; a missing file is an empty collection.
func (s *CSVStore) load() ([]domain.TrendRecord, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var recs []domain.TrendRecord
	for _, row := range rows[1:] {
		if len(row) < len(csvHeader) {
			continue
		}
		rec := domain.TrendRecord{
			ID:             row[0],
			ResearchTask:   row[1],
			Context:        row[3],
			DateDiscovered: row[4],
			Theme:          row[5],
			Analysis:       row[6],
		}
		// news_links cells hold a JSON array so link URLs survive any
		// delimiter characters.
		if row[2] != "" {
			if err := json.Unmarshal([]byte(row[2]), &rec.NewsLinks); err != nil {
				return nil, fmt.Errorf("bad news_links cell for %s: %w", rec.ID, err)
			}
		}
		if row[7] != "" || row[8] != "" {
			rec.Persona = &domain.Persona{ID: row[7], Name: row[8], Position: row[9]}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// save writes the full collection to a temp file and renames it over
// the store path.
func (s *CSVStore) save(recs []domain.TrendRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".trends-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range recs {
		links, err := json.Marshal(rec.NewsLinks)
		if err != nil {
			tmp.Close()
			return err
		}
		row := []string{
			rec.ID, rec.ResearchTask, string(links), rec.Context,
			rec.DateDiscovered, rec.Theme, rec.Analysis,
			"", "", "",
		}
		if rec.Persona != nil {
			row[7], row[8], row[9] = rec.Persona.ID, rec.Persona.Name, rec.Persona.Position
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
