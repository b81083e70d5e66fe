package evaluate

import (
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// RequirementReport is the per-requirement entry of a document report.
type RequirementReport struct {
	// ID is the requirement identifier.
	ID string `json:"id"`

	// Type is requirement or recommendation.
	Type manifest.RequirementKind `json:"type"`

	// Weight is the requirement's effective weight.
	Weight float64 `json:"weight"`

	// Status is fail when any record referencing the requirement failed.
	Status RecordStatus `json:"status"`

	// FailedEntityCount is the number of distinct entities with
	// resource-scoped failures against this requirement.
	FailedEntityCount int `json:"failedEntityCount"`

	// FailedEntities lists those entities in first-seen order.
	FailedEntities []string `json:"failedEntities"`
}

// DocumentReport is the single whole-document output of an evaluation run.
type DocumentReport struct {
	// DocumentID is the document's own identifier.
	DocumentID string `json:"documentId"`

	// Status is the derived curation status identifier.
	Status curation.Status `json:"status"`

	// StatusLabel is the status display label.
	StatusLabel string `json:"statusLabel"`

	// Requirements holds one entry per requirement declaration, in
	// declaration order, including requirements no record referenced.
	Requirements []RequirementReport `json:"requirements"`
}

// requirementProfile is the transient per-requirement fold state.
type requirementProfile struct {
	decl         manifest.RequirementDecl
	failed       bool
	entities     []string
	entitiesSeen map[string]bool
}

// AggregateDocument folds the full record sequence, grouped by requirement,
// into one document report. Every requirement declaration gets a profile up
// front, so requirements with zero matching records still appear as pass.
// Records referencing unknown requirements are ignored here; they were
// already surfaced per entity.
func AggregateDocument(documentID string, records []Record, reqs []manifest.RequirementDecl) DocumentReport {
	profiles := make(map[string]*requirementProfile, len(reqs))
	for _, r := range reqs {
		profiles[r.ID] = &requirementProfile{
			decl:         r,
			entitiesSeen: map[string]bool{},
		}
	}

	for _, rec := range records {
		if rec.RequirementID == "" {
			continue
		}
		p, ok := profiles[rec.RequirementID]
		if !ok {
			continue
		}
		if !rec.Failed() {
			continue
		}
		p.failed = true
		// Only resource-scoped failures are entity-attributed; document-scope
		// failures describe the document, not any one entity.
		if rec.Scope == manifest.ScopeResource && rec.Entity != "" && !p.entitiesSeen[rec.Entity] {
			p.entitiesSeen[rec.Entity] = true
			p.entities = append(p.entities, rec.Entity)
		}
	}

	mandatoryFailures := 0
	advisoryFailures := 0
	reports := make([]RequirementReport, 0, len(reqs))
	for _, r := range reqs {
		p := profiles[r.ID]
		status := StatusPass
		if p.failed {
			status = StatusFail
			if r.Mandatory() {
				mandatoryFailures++
			} else {
				advisoryFailures++
			}
		}
		reports = append(reports, RequirementReport{
			ID:                r.ID,
			Type:              r.Type,
			Weight:            r.EffectiveWeight(),
			Status:            status,
			FailedEntityCount: len(p.entities),
			FailedEntities:    append([]string{}, p.entities...),
		})
	}

	// No document-level uncurated classifier exists; that flag source is
	// reserved and always unset here.
	status := deriveStatus(false, mandatoryFailures, advisoryFailures)

	return DocumentReport{
		DocumentID:   documentID,
		Status:       status,
		StatusLabel:  status.Label(),
		Requirements: reports,
	}
}
