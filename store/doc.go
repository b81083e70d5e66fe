// Package store defines the narrow query-backend interface the evaluation
// pipeline consumes, and bundles an in-memory implementation backed by
// knakk/rdf.
//
// The pipeline only ever sees Backend: a way to run an enumerative query for
// variable-binding rows, an existential query for a boolean, and to discover
// the document's own subject. How a backend parses documents or executes
// queries is its own business; the bundled Graph backend supports N-Triples,
// Turtle and RDF/XML input (guessed from the filename hint) and a basic
// graph-pattern subset of SPARQL, which is enough for structural checks.
package store
