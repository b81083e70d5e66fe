package evaluate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

func findRequirement(t *testing.T, report DocumentReport, id string) RequirementReport {
	t.Helper()
	for _, r := range report.Requirements {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("no requirement report for %s", id)
	return RequirementReport{}
}

func TestDocumentScenarioSingleMandatoryFailure(t *testing.T) {
	// Spec scenario: one E1/R1 failure against [R1 requirement, R2
	// recommendation].
	reqs := []manifest.RequirementDecl{
		{ID: "R1", Type: manifest.KindRequirement},
		{ID: "R2", Type: manifest.KindRecommendation},
	}
	records := []Record{failRecord("E1", "R1")}

	report := AggregateDocument("doc", records, reqs)

	assert.Equal(t, curation.StatusMetadataIncomplete, report.Status)

	r1 := findRequirement(t, report, "R1")
	assert.Equal(t, StatusFail, r1.Status)
	assert.Equal(t, 1, r1.FailedEntityCount)
	assert.Equal(t, []string{"E1"}, r1.FailedEntities)

	r2 := findRequirement(t, report, "R2")
	assert.Equal(t, StatusPass, r2.Status)
	assert.Equal(t, 0, r2.FailedEntityCount)
}

func TestDocumentNoRecords(t *testing.T) {
	// Spec scenario: no records, one recommendation.
	reqs := []manifest.RequirementDecl{{ID: "R2", Type: manifest.KindRecommendation}}

	report := AggregateDocument("doc", nil, reqs)

	assert.Equal(t, curation.StatusPendingFinalVetting, report.Status)
	require.Len(t, report.Requirements, 1)
	assert.Equal(t, StatusPass, report.Requirements[0].Status)
	assert.Equal(t, 0, report.Requirements[0].FailedEntityCount)
}

func TestEveryRequirementAppearsExactlyOnce(t *testing.T) {
	records := []Record{failRecord("E1", "R1"), failRecord("E2", "R1")}
	report := AggregateDocument("doc", records, testRequirements)

	require.Len(t, report.Requirements, len(testRequirements))
	seen := map[string]int{}
	for _, r := range report.Requirements {
		seen[r.ID]++
	}
	for _, req := range testRequirements {
		assert.Equal(t, 1, seen[req.ID])
	}
	// Declaration order is preserved.
	assert.Equal(t, "R1", report.Requirements[0].ID)
	assert.Equal(t, "R2", report.Requirements[1].ID)
	assert.Equal(t, "R3", report.Requirements[2].ID)
}

func TestDocumentAdvisoryOnly(t *testing.T) {
	report := AggregateDocument("doc", []Record{failRecord("E1", "R2")}, testRequirements)
	assert.Equal(t, curation.StatusMetadataComplete, report.Status)
}

func TestDocumentStatusIndependentOfEntities(t *testing.T) {
	// A document-scoped failure makes the document metadata-incomplete even
	// though no entity-attributed failure exists.
	records := []Record{{
		Entity:        "http://example.org/onto",
		QueryID:       "q",
		RequirementID: "R1",
		Status:        StatusFail,
		Scope:         manifest.ScopeDocument,
	}}
	report := AggregateDocument("http://example.org/onto", records, testRequirements)

	assert.Equal(t, curation.StatusMetadataIncomplete, report.Status)
	r1 := findRequirement(t, report, "R1")
	assert.Equal(t, StatusFail, r1.Status)
	// Document-scope failures are not entity-attributed.
	assert.Equal(t, 0, r1.FailedEntityCount)
	assert.Empty(t, r1.FailedEntities)
}

func TestFailingEntitiesDistinctAndOrdered(t *testing.T) {
	records := []Record{
		failRecord("E2", "R1"),
		failRecord("E1", "R1"),
		failRecord("E2", "R1"),
	}
	report := AggregateDocument("doc", records, testRequirements)
	r1 := findRequirement(t, report, "R1")
	assert.Equal(t, 2, r1.FailedEntityCount)
	assert.Equal(t, []string{"E2", "E1"}, r1.FailedEntities)
}

func TestUnknownRequirementIgnoredInDocumentReport(t *testing.T) {
	report := AggregateDocument("doc", []Record{failRecord("E1", "R99")}, testRequirements)
	assert.Equal(t, curation.StatusPendingFinalVetting, report.Status)
	require.Len(t, report.Requirements, len(testRequirements))
}

func TestPassRecordsDoNotFailRequirements(t *testing.T) {
	records := []Record{{
		Entity: "doc", QueryID: "q", RequirementID: "R1",
		Status: StatusPass, Scope: manifest.ScopeDocument,
	}}
	report := AggregateDocument("doc", records, testRequirements)
	assert.Equal(t, StatusPass, findRequirement(t, report, "R1").Status)
	assert.Equal(t, curation.StatusPendingFinalVetting, report.Status)
}

func TestRequirementWeightCarried(t *testing.T) {
	reqs := []manifest.RequirementDecl{
		{ID: "R1", Type: manifest.KindRequirement, Weight: 3},
		{ID: "R2", Type: manifest.KindRecommendation},
	}
	report := AggregateDocument("doc", nil, reqs)
	assert.Equal(t, float64(3), findRequirement(t, report, "R1").Weight)
	assert.Equal(t, float64(1), findRequirement(t, report, "R2").Weight)
}

func TestDocumentAggregationIdempotent(t *testing.T) {
	records := []Record{
		failRecord("E1", "R1"),
		failRecord("E2", "R2"),
	}
	first, err := json.Marshal(AggregateDocument("doc", records, testRequirements))
	require.NoError(t, err)
	second, err := json.Marshal(AggregateDocument("doc", records, testRequirements))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
