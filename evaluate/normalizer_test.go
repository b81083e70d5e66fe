package evaluate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/store"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// fakeBackend is a hand-rolled store.Backend for normalizer tests.
type fakeBackend struct {
	rows      []store.Row
	selectErr error
	askResult bool
	askErr    error
	subject   string
}

func (f *fakeBackend) Select(context.Context, string) ([]store.Row, error) {
	return f.rows, f.selectErr
}

func (f *fakeBackend) Ask(context.Context, string) (bool, error) {
	return f.askResult, f.askErr
}

func (f *fakeBackend) DocumentSubject(string) string {
	return f.subject
}

func enumDecl() manifest.QueryDecl {
	return manifest.QueryDecl{
		ID:                 "missing-label",
		Kind:               manifest.QueryKindEnumerative,
		Scope:              manifest.ScopeResource,
		Polarity:           manifest.PolarityMatchMeansFail,
		ChecksConformityTo: "R1",
		Severity:           "error",
		Text:               "SELECT ...",
	}
}

func TestNormalizeEnumerativeEmitsFailPerRow(t *testing.T) {
	backend := &fakeBackend{rows: []store.Row{
		store.NewRow([]string{"term"}, map[string]string{"term": "E1"}),
		store.NewRow([]string{"term"}, map[string]string{"term": "E2"}),
	}}
	n := NewNormalizer(backend, nil)

	records, err := n.Normalize(context.Background(), enumDecl())
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, StatusFail, rec.Status)
		assert.Equal(t, "missing-label", rec.QueryID)
		assert.Equal(t, "R1", rec.RequirementID)
		assert.Equal(t, "error", rec.Severity)
		assert.Equal(t, manifest.ScopeResource, rec.Scope)
	}
	assert.Equal(t, "E1", records[0].Entity)
	assert.Equal(t, "E2", records[1].Entity)
}

func TestNormalizeEnumerativeNoRows(t *testing.T) {
	n := NewNormalizer(&fakeBackend{}, nil)
	records, err := n.Normalize(context.Background(), enumDecl())
	require.NoError(t, err)
	assert.Empty(t, records, "non-matches leave no positive evidence")
}

func TestNormalizeEnumerativeAlwaysFails(t *testing.T) {
	// The always-fail policy holds whatever polarity the declaration carries.
	for _, polarity := range []manifest.Polarity{
		manifest.PolarityMatchMeansFail,
		manifest.PolarityTrueMeansPass,
		"",
	} {
		decl := enumDecl()
		decl.Polarity = polarity
		backend := &fakeBackend{rows: []store.Row{
			store.NewRow([]string{"term"}, map[string]string{"term": "E1"}),
		}}
		records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, StatusFail, records[0].Status, "polarity %q", polarity)
	}
}

func TestEntityResolutionChain(t *testing.T) {
	tests := []struct {
		name        string
		resourceVar string
		row         store.Row
		want        string
	}{
		{
			name:        "designated variable wins",
			resourceVar: "term",
			row:         store.NewRow([]string{"other", "term"}, map[string]string{"other": "X", "term": "E1"}),
			want:        "E1",
		},
		{
			name: "resource variable next",
			row:  store.NewRow([]string{"x", "resource"}, map[string]string{"x": "X", "resource": "E2"}),
			want: "E2",
		},
		{
			name:        "designated variable unbound falls through to resource",
			resourceVar: "term",
			row:         store.NewRow([]string{"resource"}, map[string]string{"resource": "E3"}),
			want:        "E3",
		},
		{
			name: "first bound variable as fallback",
			row:  store.NewRow([]string{"a", "b"}, map[string]string{"a": "", "b": "E4"}),
			want: "E4",
		},
		{
			name: "nothing bound",
			row:  store.NewRow([]string{"a"}, map[string]string{}),
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decl := enumDecl()
			decl.ResourceVar = tc.resourceVar
			backend := &fakeBackend{rows: []store.Row{tc.row}}
			records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tc.want, records[0].Entity)
		})
	}
}

func TestNormalizeExistentialPolarity(t *testing.T) {
	tests := []struct {
		polarity manifest.Polarity
		outcome  bool
		want     RecordStatus
	}{
		{manifest.PolarityTrueMeansPass, true, StatusPass},
		{manifest.PolarityTrueMeansPass, false, StatusFail},
		{manifest.PolarityTrueMeansFail, true, StatusFail},
		{manifest.PolarityTrueMeansFail, false, StatusPass},
		// Unspecified or unknown polarity defaults to true-maps-to-pass.
		{"", true, StatusPass},
		{"sideways", false, StatusFail},
	}

	for _, tc := range tests {
		decl := manifest.QueryDecl{
			ID:       "has-ontology-iri",
			Kind:     manifest.QueryKindExistentialCheck,
			Scope:    manifest.ScopeDocument,
			Polarity: tc.polarity,
			Text:     "ASK ...",
		}
		backend := &fakeBackend{askResult: tc.outcome, subject: "http://example.org/onto"}
		records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
		require.NoError(t, err)
		require.Len(t, records, 1, "existential check always produces exactly one record")
		assert.Equal(t, tc.want, records[0].Status, "polarity=%q outcome=%v", tc.polarity, tc.outcome)
		assert.Equal(t, "http://example.org/onto", records[0].Entity)
		assert.Equal(t, tc.outcome, records[0].Details)
	}
}

func TestNormalizeExistentialUnknownSubject(t *testing.T) {
	decl := manifest.QueryDecl{
		ID:    "q",
		Kind:  manifest.QueryKindExistentialCheck,
		Scope: manifest.ScopeDocument,
	}
	backend := &fakeBackend{askResult: true}
	records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, curation.UnknownDocumentID, records[0].Entity)
}

func TestNormalizeUnknownKind(t *testing.T) {
	decl := manifest.QueryDecl{ID: "q", Kind: "fancy", Scope: manifest.ScopeResource}
	records, err := NewNormalizer(&fakeBackend{}, nil).Normalize(context.Background(), decl)
	assert.NoError(t, err, "unknown kind is a diagnostic, not an error")
	assert.Empty(t, records)
}

func TestNormalizeExecutionFailure(t *testing.T) {
	backend := &fakeBackend{selectErr: errors.New("boom")}
	_, err := NewNormalizer(backend, nil).Normalize(context.Background(), enumDecl())
	assert.ErrorContains(t, err, "boom")
}

func TestClassifierQueryMapsToFlag(t *testing.T) {
	decl := enumDecl()
	decl.ID = curation.ClassifierQueryID
	decl.ChecksConformityTo = ""
	backend := &fakeBackend{rows: []store.Row{
		store.NewRow([]string{"term"}, map[string]string{"term": "E2"}),
	}}

	records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, curation.ClassificationUncurated, records[0].Classification)
}

func TestExplicitClassificationWins(t *testing.T) {
	decl := enumDecl()
	decl.Classification = curation.ClassificationUncurated
	backend := &fakeBackend{rows: []store.Row{
		store.NewRow([]string{"term"}, map[string]string{"term": "E1"}),
	}}

	records, err := NewNormalizer(backend, nil).Normalize(context.Background(), decl)
	require.NoError(t, err)
	assert.Equal(t, curation.ClassificationUncurated, records[0].Classification)
}
