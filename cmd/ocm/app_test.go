package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
)

const testDocument = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix obo: <http://purl.obolibrary.org/obo/> .

<http://example.org/onto> a owl:Ontology .

obo:EX_0000001 a owl:Class ;
    rdfs:label "some term" .
`

// writeFixtures lays out a manifest, its query file, and a document in a
// temp directory and returns their paths.
func writeFixtures(t *testing.T) (manifestPath, documentPath string) {
	t.Helper()
	dir := t.TempDir()

	query := `PREFIX owl: <http://www.w3.org/2002/07/owl#>
ASK { ?s a owl:Ontology }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "has-ontology.rq"), []byte(query), 0644))

	manifestContent := `requirements:
  - id: R-ontology-iri
    type: requirement
queries:
  - id: has-ontology-iri
    file: has-ontology.rq
    kind: existential-check
    scope: document
    polarity: trueMeansPass
    checksConformityTo: R-ontology-iri
`
	manifestPath = filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestContent), 0644))

	documentPath = filepath.Join(dir, "onto.ttl")
	require.NoError(t, os.WriteFile(documentPath, []byte(testDocument), 0644))
	return manifestPath, documentPath
}

func TestRootCmdSubcommands(t *testing.T) {
	root := rootCmd()

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"evaluate", "batch", "watch", "serve", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestEvaluateCommand(t *testing.T) {
	manifestPath, documentPath := writeFixtures(t)
	outputPath := filepath.Join(t.TempDir(), "report.json")

	root := rootCmd()
	root.SetArgs([]string{
		"evaluate", documentPath,
		"--manifest", manifestPath,
		"--format", "json",
		"--output", outputPath,
	})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var result evaluate.RunResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "http://example.org/onto", result.DocumentID)
	require.Len(t, result.Records, 1)
	assert.Equal(t, evaluate.StatusPass, result.Records[0].Status)
}

func TestEvaluateCommandEntityReport(t *testing.T) {
	manifestPath, documentPath := writeFixtures(t)
	outDir := t.TempDir()
	outputPath := filepath.Join(outDir, "report.json")
	entitiesPath := filepath.Join(outDir, "entities.csv")

	root := rootCmd()
	root.SetArgs([]string{
		"evaluate", documentPath,
		"--manifest", manifestPath,
		"--output", outputPath,
		"--entities", entitiesPath,
	})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(entitiesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "entity,status")
}

func TestEvaluateCommandMissingDocument(t *testing.T) {
	manifestPath, _ := writeFixtures(t)

	root := rootCmd()
	root.SetArgs([]string{
		"evaluate", filepath.Join(t.TempDir(), "nope.ttl"),
		"--manifest", manifestPath,
	})
	assert.Error(t, root.Execute())
}

func TestEvaluateCommandNoManifest(t *testing.T) {
	_, documentPath := writeFixtures(t)

	// Isolate from any real user/project config.
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	root := rootCmd()
	root.SetArgs([]string{"evaluate", documentPath})
	assert.Error(t, root.Execute())
}

func TestBatchCommand(t *testing.T) {
	manifestPath, documentPath := writeFixtures(t)
	docDir := filepath.Dir(documentPath)
	outDir := filepath.Join(t.TempDir(), "reports")

	root := rootCmd()
	root.SetArgs([]string{
		"batch", filepath.Join(docDir, "*.ttl"),
		"--manifest", manifestPath,
		"--format", "json",
		"--output-dir", outDir,
	})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(outDir, "onto.json"))
	require.NoError(t, err)

	var result evaluate.RunResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "http://example.org/onto", result.DocumentID)
}

func TestBatchCommandNoMatches(t *testing.T) {
	manifestPath, _ := writeFixtures(t)

	root := rootCmd()
	root.SetArgs([]string{
		"batch", filepath.Join(t.TempDir(), "*.ttl"),
		"--manifest", manifestPath,
	})
	assert.Error(t, root.Execute())
}

func TestLoadConfigExplicitFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "ocm.yaml")
	content := `evaluation:
  parallelism: 3
export:
  format: csv
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	cfg, err := loadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Evaluation.Parallelism)
	assert.Equal(t, "csv", cfg.Export.Format)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "ocm.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("export:\n  format: xml\n"), 0644))

	_, err := loadConfig(configFile)
	assert.Error(t, err)
}
