package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

func sampleResult() *evaluate.RunResult {
	return &evaluate.RunResult{
		RunID:      "run-1",
		DocumentID: "http://example.org/onto",
		Records: []evaluate.Record{
			{
				Entity:        "http://example.org/term1",
				QueryID:       "missing-definition",
				RequirementID: "R1",
				Status:        evaluate.StatusFail,
				Severity:      "error",
				Scope:         manifest.ScopeResource,
			},
			{
				Entity:  "http://example.org/onto",
				QueryID: "has-license",
				Status:  evaluate.StatusPass,
				Scope:   manifest.ScopeDocument,
			},
		},
		Entities: []evaluate.EntityReport{
			{
				Entity:                "http://example.org/term1",
				Status:                curation.StatusMetadataIncomplete,
				StatusLabel:           curation.StatusMetadataIncomplete.Label(),
				FailedRequirements:    []string{"R1", "R2"},
				FailedRecommendations: []string{},
			},
		},
		Document: evaluate.DocumentReport{
			DocumentID:  "http://example.org/onto",
			Status:      curation.StatusMetadataIncomplete,
			StatusLabel: curation.StatusMetadataIncomplete.Label(),
			Requirements: []evaluate.RequirementReport{
				{
					ID:                "R1",
					Type:              manifest.KindRequirement,
					Weight:            2,
					Status:            evaluate.StatusFail,
					FailedEntityCount: 1,
					FailedEntities:    []string{"http://example.org/term1"},
				},
			},
		},
	}
}

func TestWriteRecords(t *testing.T) {
	result := sampleResult()
	var sb strings.Builder
	require.NoError(t, WriteRecords(&sb, result.DocumentID, result.Records))

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, []string{
		"http://example.org/onto",
		"http://example.org/term1",
		"missing-definition",
		"R1",
		"fail",
		"error",
		"resource",
	}, rows[1])
	assert.Equal(t, "has-license", rows[2][2])
	assert.Equal(t, "pass", rows[2][4])
}

func TestWriteRecordsEmpty(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteRecords(&sb, "doc", nil))

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestWriteEntities(t *testing.T) {
	result := sampleResult()
	var sb strings.Builder
	require.NoError(t, WriteEntities(&sb, result.Entities))

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "http://example.org/term1", rows[1][0])
	assert.Equal(t, "metadata-incomplete", rows[1][1])
	assert.Equal(t, "R1;R2", rows[1][3])
	assert.Equal(t, "", rows[1][4])
}

func TestWriteDocument(t *testing.T) {
	result := sampleResult()
	var sb strings.Builder
	require.NoError(t, WriteDocument(&sb, result.Document))

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"http://example.org/onto", "R1", "requirement", "2", "fail", "1",
	}, rows[1])
}

func TestWriteResultJSON(t *testing.T) {
	result := sampleResult()
	var sb strings.Builder
	require.NoError(t, WriteResult(&sb, result, FormatJSON))

	var decoded evaluate.RunResult
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &decoded))
	assert.Equal(t, result.RunID, decoded.RunID)
	assert.Equal(t, result.Document.Status, decoded.Document.Status)
	require.Len(t, decoded.Records, 2)
}

func TestWriteResultCSV(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteResult(&sb, sampleResult(), FormatCSV))
	assert.True(t, strings.HasPrefix(sb.String(), "documentId,"))
}

func TestWriteResultUnknownFormat(t *testing.T) {
	var sb strings.Builder
	err := WriteResult(&sb, sampleResult(), Format("xml"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got)
	}
}

func TestGetFormatInfo(t *testing.T) {
	info, ok := GetFormatInfo(FormatCSV)
	require.True(t, ok)
	assert.Equal(t, ".csv", info.Extension)
	assert.Equal(t, "text/csv", info.MIMEType)

	_, ok = GetFormatInfo(Format("tsv"))
	assert.False(t, ok)
}
