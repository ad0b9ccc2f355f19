package model

import "time"

// Category identifies one of the four fixed report sections.
type Category string

const (
	CategoryCompany   Category = "company"
	CategoryIndustry  Category = "industry"
	CategoryFinancial Category = "financial"
	CategoryNews      Category = "news"
)

// Categories returns all categories in report order.
func Categories() []Category {
	return []Category{CategoryCompany, CategoryIndustry, CategoryFinancial, CategoryNews}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCompany, CategoryIndustry, CategoryFinancial, CategoryNews:
		return true
	}
	return false
}

// Document is a single web search result, keyed by URL. A later hit for the
// same URL replaces the earlier one within a fan-out batch.
type Document struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content,omitempty"`
	SourceQuery   string  `json:"query"`
	Source        string  `json:"source"`
	Score         float64 `json:"score"`
	CurationScore float64 `json:"curation_score"`
}

// Body returns the best available content for synthesis.
func (d Document) Body() string {
	if d.RawContent != "" {
		return d.RawContent
	}
	return d.Content
}

// DocumentSet is a URL-keyed collection of documents.
type DocumentSet map[string]Document

// Briefing is the synthesized text for one category. Content is empty when
// synthesis failed; failures never propagate past the synthesis stage.
type Briefing struct {
	Category Category `json:"category"`
	Content  string   `json:"content"`
}

// RunStatus tracks a research job through its stages.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusResearching RunStatus = "researching"
	RunStatusBriefing    RunStatus = "briefing"
	RunStatusCompiling   RunStatus = "compiling"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run is the persisted record of a single research job.
type Run struct {
	ID         string    `json:"id"`
	Company    string    `json:"company"`
	Industry   string    `json:"industry"`
	HQLocation string    `json:"hq_location"`
	Status     RunStatus `json:"status"`
	Report     string    `json:"report,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
