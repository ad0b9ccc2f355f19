// Package research implements the research pipeline: query generation,
// search fan-out, per-category briefing synthesis, and report compilation.
package research

import (
	"github.com/meridianlabs/company-researcher/internal/model"
)

// Context is the immutable identity of a research job, fixed at
// initialization and passed by value to every stage.
type Context struct {
	Company    string
	Industry   string
	HQLocation string
	JobID      string
}

// withDefaults fills missing identity fields so stages degrade instead of
// failing on incomplete input.
func (c Context) withDefaults() Context {
	if c.Company == "" {
		c.Company = "Unknown Company"
	}
	if c.Industry == "" {
		c.Industry = "Unknown"
	}
	if c.HQLocation == "" {
		c.HQLocation = "Unknown"
	}
	return c
}

// Reference is citation metadata for one curated document.
type Reference struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Query string `json:"query,omitempty"`
}

// EditorOutput mirrors the final report under the editor's own namespace.
type EditorOutput struct {
	Report string `json:"report"`
}

// State is the mutable accumulator for one research job, shared by reference
// across stages. Concurrent stage goroutines write only their own category's
// slot; that write discipline is the concurrency-safety invariant, so no
// locking is used.
type State struct {
	Context Context

	raw     documentSlots
	curated documentSlots
	briefs  briefingSlots

	// References holds citation metadata collected during curation; written
	// before synthesis starts, read by the compiler.
	References []Reference

	Report string
	Editor EditorOutput
}

// NewState creates the accumulator for a job.
func NewState(ctx Context) *State {
	return &State{Context: ctx}
}

// SetSearchResults stores the fan-out output for one category.
func (s *State) SetSearchResults(cat model.Category, docs model.DocumentSet) {
	s.raw.set(cat, docs)
}

// SearchResults returns the fan-out output for one category.
func (s *State) SearchResults(cat model.Category) model.DocumentSet {
	return s.raw.get(cat)
}

// SetCurated stores the curated document set for one category.
func (s *State) SetCurated(cat model.Category, docs model.DocumentSet) {
	s.curated.set(cat, docs)
}

// CuratedDocs returns the curated document set for one category.
func (s *State) CuratedDocs(cat model.Category) model.DocumentSet {
	return s.curated.get(cat)
}

// SetBriefing writes a category's briefing slot. Each slot has exactly one
// writer.
func (s *State) SetBriefing(cat model.Category, content string) {
	s.briefs.set(cat, content)
}

// Briefing returns a category's briefing text, empty if synthesis failed or
// never ran.
func (s *State) Briefing(cat model.Category) string {
	return s.briefs.get(cat)
}

// documentSlots holds one document set per category. Distinct goroutines
// write distinct fields, never the same one.
type documentSlots struct {
	company   model.DocumentSet
	industry  model.DocumentSet
	financial model.DocumentSet
	news      model.DocumentSet
}

func (d *documentSlots) set(cat model.Category, docs model.DocumentSet) {
	switch cat {
	case model.CategoryCompany:
		d.company = docs
	case model.CategoryIndustry:
		d.industry = docs
	case model.CategoryFinancial:
		d.financial = docs
	case model.CategoryNews:
		d.news = docs
	}
}

func (d *documentSlots) get(cat model.Category) model.DocumentSet {
	switch cat {
	case model.CategoryCompany:
		return d.company
	case model.CategoryIndustry:
		return d.industry
	case model.CategoryFinancial:
		return d.financial
	case model.CategoryNews:
		return d.news
	}
	return nil
}

// briefingSlots holds one briefing per category, one writer each.
type briefingSlots struct {
	company   string
	industry  string
	financial string
	news      string
}

func (b *briefingSlots) set(cat model.Category, content string) {
	switch cat {
	case model.CategoryCompany:
		b.company = content
	case model.CategoryIndustry:
		b.industry = content
	case model.CategoryFinancial:
		b.financial = content
	case model.CategoryNews:
		b.news = content
	}
}

func (b *briefingSlots) get(cat model.Category) string {
	switch cat {
	case model.CategoryCompany:
		return b.company
	case model.CategoryIndustry:
		return b.industry
	case model.CategoryFinancial:
		return b.financial
	case model.CategoryNews:
		return b.news
	}
	return ""
}
