package metagen

import (
	"strings"
	"time"

	"github.com/kitaplan/kitaplan-backend/internal/domain"
)

// Request is one metadata-generation request as the web layer hands it over.
type Request struct {
	Activity string `json:"activity"`
	Theme    string `json:"theme,omitempty"`
}

func (r Request) Valid() bool {
	return strings.TrimSpace(r.Activity) != ""
}

// RefContext is the reference catalog loaded for one in-flight request and
// discarded after it.
type RefContext struct {
	Refs    []*domain.CurriculumReference
	Modules []*domain.EducationalModule
}

func (c *RefContext) KnownCodes() map[string]bool {
	out := make(map[string]bool, len(c.Refs))
	for _, r := range c.Refs {
		out[r.Code] = true
	}
	return out
}

// RawOutput is the model's structured answer, untrusted until validated.
type RawOutput struct {
	Reasoning      string   `json:"reasoning"`
	Modules        []string `json:"modules"`
	CurriculumRefs []string `json:"curriculum_refs"`
	Objectives     []string `json:"objectives"`
}

// UsageRecord accounts for one real gateway call. The mock path produces none.
type UsageRecord struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Result is a validated generation outcome. Modules, CurriculumRefs and
// Objectives are each non-empty, and every code in CurriculumRefs was present
// in the catalog loaded for the request.
type Result struct {
	Reasoning      string   `json:"reasoning"`
	Modules        []string `json:"modules"`
	CurriculumRefs []string `json:"curriculum_refs"`
	Objectives     []string `json:"objectives"`

	// Warnings lists curriculum codes the model proposed but the catalog
	// does not contain. Observability only.
	Warnings []string `json:"warnings,omitempty"`

	Usage *UsageRecord `json:"usage,omitempty"`

	Attempts int `json:"attempts"`
}

// PricingEntry is one model's per-token pricing as of FetchedAt.
type PricingEntry struct {
	Model       string
	InputPrice  float64
	OutputPrice float64
	FetchedAt   time.Time
}

// GenerateInput is what a Generator needs for one attempt.
type GenerateInput struct {
	Prompt Prompt
	Refs   *RefContext
}

// Candidate is one generation attempt's raw product before validation.
type Candidate struct {
	Raw   RawOutput
	Usage *UsageRecord
}
