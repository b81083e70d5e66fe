package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"

	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// termKind distinguishes the three RDF term kinds during pattern matching.
type termKind int

const (
	kindIRI termKind = iota
	kindLiteral
	kindBlank
)

// triple is the graph's internal representation: raw string values plus the
// object's term kind, which matters when matching constant pattern terms.
type triple struct {
	subj    string
	pred    string
	obj     string
	objKind termKind
}

// Graph is an immutable in-memory triple store implementing Backend.
type Graph struct {
	triples []triple

	// bySubject speeds up subject-bound pattern matching.
	bySubject map[string][]int
}

// Load parses document text into a Graph. The serialization format is guessed
// from the filename hint; unknown extensions fall back to Turtle. A parse
// failure is a setup failure for the run.
func Load(text, filename string) (*Graph, error) {
	format := formatFromFilename(filename)

	dec := rdf.NewTripleDecoder(strings.NewReader(text), format)
	decoded, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", filename, err)
	}

	g := &Graph{
		triples:   make([]triple, 0, len(decoded)),
		bySubject: make(map[string][]int),
	}
	for _, t := range decoded {
		g.add(t)
	}
	return g, nil
}

func (g *Graph) add(t rdf.Triple) {
	tr := triple{
		subj:    t.Subj.String(),
		pred:    t.Pred.String(),
		obj:     t.Obj.String(),
		objKind: kindOf(t.Obj),
	}
	g.bySubject[tr.subj] = append(g.bySubject[tr.subj], len(g.triples))
	g.triples = append(g.triples, tr)
}

func kindOf(term rdf.Term) termKind {
	switch term.Type() {
	case rdf.TermLiteral:
		return kindLiteral
	case rdf.TermBlank:
		return kindBlank
	default:
		return kindIRI
	}
}

// formatFromFilename maps a filename hint to an RDF serialization format.
func formatFromFilename(filename string) rdf.Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".nt":
		return rdf.NTriples
	case ".rdf", ".owl", ".xml":
		return rdf.RDFXML
	default:
		// .ttl and everything unrecognized.
		return rdf.Turtle
	}
}

// Len returns the number of triples in the graph.
func (g *Graph) Len() int {
	return len(g.triples)
}

// DocumentSubject implements Backend. It returns the first subject typed as
// the given root class, in document order.
func (g *Graph) DocumentSubject(classIRI string) string {
	for _, t := range g.triples {
		if t.pred == curation.RDFType && t.obj == classIRI && t.objKind == kindIRI {
			return t.subj
		}
	}
	return ""
}

// Subjects returns the distinct subjects of all triples, in first-seen order.
// Callers use it to seed per-entity reports for entities with no findings.
func (g *Graph) Subjects() []string {
	seen := make(map[string]bool, len(g.bySubject))
	var out []string
	for _, t := range g.triples {
		if !seen[t.subj] {
			seen[t.subj] = true
			out = append(out, t.subj)
		}
	}
	return out
}
