// Package manifest models the query and requirement declarations an
// evaluation run is driven by, and loads them from local files or HTTP.
package manifest

import (
	"fmt"

	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// QueryKind identifies how a declared query evaluates against a document.
type QueryKind string

const (
	// QueryKindEnumerative produces variable-binding rows.
	QueryKindEnumerative QueryKind = "enumerative"

	// QueryKindExistentialCheck produces a single boolean.
	QueryKindExistentialCheck QueryKind = "existential-check"
)

// Polarity is the pass/fail mapping rule for a query's native outcome.
type Polarity string

const (
	// PolarityTrueMeansPass maps a true boolean outcome to pass.
	PolarityTrueMeansPass Polarity = "trueMeansPass"

	// PolarityTrueMeansFail maps a true boolean outcome to fail.
	PolarityTrueMeansFail Polarity = "trueMeansFail"

	// PolarityMatchMeansFail marks each enumerated row as a violation.
	PolarityMatchMeansFail Polarity = "matchMeansFail"
)

// Scope identifies what a check describes.
type Scope string

const (
	// ScopeResource checks describe individual entities in the document.
	ScopeResource Scope = "resource"

	// ScopeDocument checks describe the document as a whole.
	ScopeDocument Scope = "document"
)

// RequirementKind distinguishes mandatory checks from advisory ones.
type RequirementKind string

const (
	// KindRequirement is a mandatory check category.
	KindRequirement RequirementKind = "requirement"

	// KindRecommendation is an advisory check category.
	KindRecommendation RequirementKind = "recommendation"
)

// QueryDecl declares one structural query to run against a document.
type QueryDecl struct {
	// ID is the declaration identifier, unique within a manifest.
	ID string `yaml:"id" json:"id"`

	// File is the path to the query text, relative to the manifest.
	File string `yaml:"file" json:"file"`

	// Kind is the evaluation kind (enumerative or existential-check).
	Kind QueryKind `yaml:"kind" json:"kind"`

	// ChecksConformityTo links the query to a requirement declaration.
	ChecksConformityTo string `yaml:"checksConformityTo" json:"checksConformityTo,omitempty"`

	// Severity is copied verbatim onto every produced record.
	Severity string `yaml:"severity" json:"severity,omitempty"`

	// Scope is resource or document.
	Scope Scope `yaml:"scope" json:"scope"`

	// Polarity is the pass/fail mapping rule. Enumerative queries accept it
	// but currently always record rows as failures.
	Polarity Polarity `yaml:"polarity" json:"polarity,omitempty"`

	// ResourceVar names the bound variable identifying the described entity.
	ResourceVar string `yaml:"resourceVar" json:"resourceVar,omitempty"`

	// Classification tags produced records with an entity-level flag.
	Classification curation.Classification `yaml:"classification" json:"classification,omitempty"`

	// Text is the loaded query text. Populated by the loader, not declared.
	Text string `yaml:"-" json:"-"`
}

// RequirementDecl declares one requirement or recommendation.
type RequirementDecl struct {
	// ID is the requirement identifier.
	ID string `yaml:"id" json:"id"`

	// Type is requirement (mandatory) or recommendation (advisory).
	Type RequirementKind `yaml:"type" json:"type"`

	// Weight is the numeric weight; zero means the default of 1.
	Weight float64 `yaml:"weight" json:"weight,omitempty"`
}

// EffectiveWeight returns the declared weight, defaulting to 1.
func (r RequirementDecl) EffectiveWeight() float64 {
	if r.Weight == 0 {
		return 1
	}
	return r.Weight
}

// Mandatory reports whether the requirement is a mandatory check category.
func (r RequirementDecl) Mandatory() bool {
	return r.Type != KindRecommendation
}

// Manifest is the ordered set of declarations driving one evaluation run.
type Manifest struct {
	Requirements []RequirementDecl `yaml:"requirements" json:"requirements"`
	Queries      []QueryDecl       `yaml:"queries" json:"queries"`
}

// Requirement looks up a requirement declaration by id.
func (m *Manifest) Requirement(id string) (RequirementDecl, bool) {
	for _, r := range m.Requirements {
		if r.ID == id {
			return r, true
		}
	}
	return RequirementDecl{}, false
}

// Validate checks the manifest for structural errors.
func (m *Manifest) Validate() error {
	seenReq := make(map[string]bool, len(m.Requirements))
	for _, r := range m.Requirements {
		if r.ID == "" {
			return fmt.Errorf("requirement with empty id")
		}
		if seenReq[r.ID] {
			return fmt.Errorf("duplicate requirement id: %s", r.ID)
		}
		seenReq[r.ID] = true
		if r.Type != KindRequirement && r.Type != KindRecommendation {
			return fmt.Errorf("requirement %s: unknown type %q", r.ID, r.Type)
		}
		if r.Weight < 0 {
			return fmt.Errorf("requirement %s: negative weight", r.ID)
		}
	}

	seenQuery := make(map[string]bool, len(m.Queries))
	for _, q := range m.Queries {
		if q.ID == "" {
			return fmt.Errorf("query with empty id")
		}
		if seenQuery[q.ID] {
			return fmt.Errorf("duplicate query id: %s", q.ID)
		}
		seenQuery[q.ID] = true
		if q.File == "" && q.Text == "" {
			return fmt.Errorf("query %s: no file and no text", q.ID)
		}
		if q.Scope != ScopeResource && q.Scope != ScopeDocument {
			return fmt.Errorf("query %s: unknown scope %q", q.ID, q.Scope)
		}
		if q.ChecksConformityTo != "" && !seenReq[q.ChecksConformityTo] {
			return fmt.Errorf("query %s: unknown requirement %q", q.ID, q.ChecksConformityTo)
		}
		// Unknown kinds are tolerated at evaluation time (they produce no
		// records), so Validate only rejects what can never be useful.
	}
	return nil
}
