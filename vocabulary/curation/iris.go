package curation

// Namespace is the base IRI prefix for curation vocabulary terms.
const Namespace = "https://w3id.org/ontology-curation/vocab/"

// Standard ontology IRI constants used during evaluation.
const (
	// RDFType is the rdf:type predicate.
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	// OWLOntology is the root class a document's own subject is typed as.
	OWLOntology = "http://www.w3.org/2002/07/owl#Ontology"

	// RDFSLabel is the display-label predicate.
	RDFSLabel = "http://www.w3.org/2000/01/rdf-schema#label"
)

// UnknownDocumentID is the sentinel used when no subject typed as the root
// entity can be found in the document.
const UnknownDocumentID = "unknown"
