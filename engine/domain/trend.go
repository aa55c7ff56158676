// Package domain holds the trend record model and validation rules.
package domain

import "regexp"

// Persona describes the audience a memo was tailored for. Only the
// identifying fields are persisted with a record.
type Persona struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// TrendRecord is the stored unit of research output.
type TrendRecord struct {
	ID             string   `json:"id,omitempty"`
	ResearchTask   string   `json:"research_task"`
	NewsLinks      []string `json:"news_links"`
	Context        string   `json:"context"`
	DateDiscovered string   `json:"date_discovered"` // YYYY-MM-DD
	Theme          string   `json:"theme"`
	Analysis       string   `json:"analysis"`
	Persona        *Persona `json:"persona,omitempty"`
}

// TrendPatch carries the updatable fields of a record. Nil fields are
// left untouched by an update; analysis is always regenerated and so
// never appears here.
type TrendPatch struct {
	ResearchTask   *string   `json:"research_task"`
	NewsLinks      *[]string `json:"news_links"`
	Context        *string   `json:"context"`
	DateDiscovered *string   `json:"date_discovered"`
	Theme          *string   `json:"theme"`
}

// Apply merges the patch onto a copy of rec and returns it.
func (p TrendPatch) Apply(rec TrendRecord) TrendRecord {
	if p.ResearchTask != nil {
		rec.ResearchTask = *p.ResearchTask
	}
	if p.NewsLinks != nil {
		rec.NewsLinks = *p.NewsLinks
	}
	if p.Context != nil {
		rec.Context = *p.Context
	}
	if p.DateDiscovered != nil {
		rec.DateDiscovered = *p.DateDiscovered
	}
	if p.Theme != nil {
		rec.Theme = *p.Theme
	}
	return rec
}

// Validate checks the required fields for record creation.
func (r TrendRecord) Validate() error {
	if r.ResearchTask == "" {
		return NewValidationError("research_task", r.ResearchTask, ErrMissingField)
	}
	if len(r.NewsLinks) == 0 {
		return NewValidationError("news_links", "", ErrMissingField)
	}
	if r.DateDiscovered == "" {
		return NewValidationError("date_discovered", r.DateDiscovered, ErrMissingField)
	}
	if r.Theme == "" {
		return NewValidationError("theme", r.Theme, ErrMissingField)
	}
	return nil
}

// idPattern is the opaque-id alphabet used by both store backends.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether s is a well-formed record id.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}
