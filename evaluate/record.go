// Package evaluate implements the evaluation-and-grading pipeline: it
// normalizes heterogeneous query outcomes into uniform result records and
// folds those records into per-entity and whole-document curation reports.
package evaluate

import (
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// RecordStatus is the normalized outcome of one check against one row or
// boolean.
type RecordStatus string

const (
	// StatusPass marks a satisfied check.
	StatusPass RecordStatus = "pass"

	// StatusFail marks a violation.
	StatusFail RecordStatus = "fail"
)

// Record is the uniform result of one query declaration against one
// variable-binding row or boolean outcome. Records are immutable once
// created; aggregators only ever read them.
type Record struct {
	// Entity identifies the thing being checked: a term identifier for
	// resource-scoped checks, the document's own identifier for
	// document-scoped ones. Empty when no identifier could be resolved.
	Entity string `json:"entity"`

	// QueryID is the declaration that produced this record.
	QueryID string `json:"queryId"`

	// RequirementID links the record to a requirement declaration, if any.
	RequirementID string `json:"requirementId,omitempty"`

	// Status is pass or fail.
	Status RecordStatus `json:"status"`

	// Severity is copied from the declaration.
	Severity string `json:"severity,omitempty"`

	// Scope is copied from the declaration.
	Scope manifest.Scope `json:"scope"`

	// Classification is the entity-level flag attached by the normalizer.
	Classification curation.Classification `json:"classification,omitempty"`

	// Details is the opaque native outcome (raw bindings or boolean). It is
	// carried through to exports but never interpreted by the aggregators.
	Details any `json:"details,omitempty"`
}

// Failed reports whether the record marks a violation.
func (r Record) Failed() bool {
	return r.Status == StatusFail
}
