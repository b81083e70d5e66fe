package evaluate

import (
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// EntityReport is the per-entity output of the resource aggregator.
type EntityReport struct {
	// Entity is the described entity's identifier.
	Entity string `json:"entity"`

	// Status is the derived curation status identifier.
	Status curation.Status `json:"status"`

	// StatusLabel is the status display label.
	StatusLabel string `json:"statusLabel"`

	// FailedRequirements lists failed mandatory requirement ids in
	// first-seen order.
	FailedRequirements []string `json:"failedRequirements"`

	// FailedRecommendations lists failed advisory requirement ids in
	// first-seen order.
	FailedRecommendations []string `json:"failedRecommendations"`
}

// flagUncurated is the one entity flag currently tracked. The flags map is
// deliberately open-ended; future classifications add keys without touching
// the fold.
const flagUncurated = "uncurated"

// entityProfile is the transient per-entity fold state.
type entityProfile struct {
	mandatory     []string
	mandatorySeen map[string]bool
	advisory      []string
	advisorySeen  map[string]bool
	flags         map[string]bool
}

func newEntityProfile() *entityProfile {
	return &entityProfile{
		mandatorySeen: map[string]bool{},
		advisorySeen:  map[string]bool{},
		flags:         map[string]bool{},
	}
}

// AggregateResources folds the full record sequence, grouped by entity, into
// one report per entity. When knownEntities is non-nil it seeds an empty
// profile for every listed entity, so entities with zero findings still get a
// report. Requirements unlisted in the declarations default to mandatory.
func AggregateResources(records []Record, reqs []manifest.RequirementDecl, knownEntities []string) []EntityReport {
	byID := make(map[string]manifest.RequirementDecl, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	profiles := map[string]*entityProfile{}
	var order []string
	profile := func(entity string) *entityProfile {
		p, ok := profiles[entity]
		if !ok {
			p = newEntityProfile()
			profiles[entity] = p
			order = append(order, entity)
		}
		return p
	}

	for _, e := range knownEntities {
		profile(e)
	}

	for _, rec := range records {
		if rec.Entity == "" {
			// No entity to attribute the finding to; it still counts at the
			// document level but has no per-entity report to land in.
			continue
		}
		p := profile(rec.Entity)

		if rec.Classification == curation.ClassificationUncurated && rec.Failed() {
			p.flags[flagUncurated] = true
		}

		if !rec.Failed() || rec.RequirementID == "" {
			continue
		}

		mandatory := true
		if decl, ok := byID[rec.RequirementID]; ok {
			mandatory = decl.Mandatory()
		}
		if mandatory {
			if !p.mandatorySeen[rec.RequirementID] {
				p.mandatorySeen[rec.RequirementID] = true
				p.mandatory = append(p.mandatory, rec.RequirementID)
			}
		} else {
			if !p.advisorySeen[rec.RequirementID] {
				p.advisorySeen[rec.RequirementID] = true
				p.advisory = append(p.advisory, rec.RequirementID)
			}
		}
	}

	reports := make([]EntityReport, 0, len(order))
	for _, entity := range order {
		p := profiles[entity]
		status := deriveStatus(p.flags[flagUncurated], len(p.mandatory), len(p.advisory))
		reports = append(reports, EntityReport{
			Entity:                entity,
			Status:                status,
			StatusLabel:           status.Label(),
			FailedRequirements:    append([]string{}, p.mandatory...),
			FailedRecommendations: append([]string{}, p.advisory...),
		})
	}
	return reports
}
