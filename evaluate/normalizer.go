package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathanvajda/ontology-curation-manager/manifest"
	"github.com/jonathanvajda/ontology-curation-manager/store"
	"github.com/jonathanvajda/ontology-curation-manager/vocabulary/curation"
)

// Normalizer runs one declared query against the loaded document and converts
// its native outcome into zero or more uniform result records.
type Normalizer struct {
	backend store.Backend
	logger  *slog.Logger
}

// NewNormalizer creates a normalizer over the given backend.
func NewNormalizer(backend store.Backend, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{backend: backend, logger: logger}
}

// Normalize evaluates one declaration. A returned error means the underlying
// query execution failed; callers treat that as zero records and keep going.
// An unknown declaration kind is not an error: it is logged and produces no
// records.
func (n *Normalizer) Normalize(ctx context.Context, decl manifest.QueryDecl) ([]Record, error) {
	switch decl.Kind {
	case manifest.QueryKindEnumerative:
		return n.normalizeEnumerative(ctx, decl)
	case manifest.QueryKindExistentialCheck:
		return n.normalizeExistential(ctx, decl)
	default:
		n.logger.Warn("Unknown query kind, skipping declaration",
			"query_id", decl.ID,
			"kind", decl.Kind)
		return nil, nil
	}
}

// normalizeEnumerative emits one fail record per matched row. Every row is
// recorded as a failure regardless of the declared polarity: enumerative
// queries enumerate violations, and non-matches leave no positive evidence.
// Polarity is carried in the declaration for future kinds but not branched on
// here.
func (n *Normalizer) normalizeEnumerative(ctx context.Context, decl manifest.QueryDecl) ([]Record, error) {
	rows, err := n.backend.Select(ctx, decl.Text)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", decl.ID, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Entity:         n.resolveEntity(decl, row),
			QueryID:        decl.ID,
			RequirementID:  decl.ChecksConformityTo,
			Status:         StatusFail,
			Severity:       decl.Severity,
			Scope:          decl.Scope,
			Classification: classification(decl),
			Details:        row.Values(),
		})
	}
	return records, nil
}

// normalizeExistential emits exactly one record, mapped through the
// declaration's polarity rule. The record is scoped to the document's own
// subject.
func (n *Normalizer) normalizeExistential(ctx context.Context, decl manifest.QueryDecl) ([]Record, error) {
	outcome, err := n.backend.Ask(ctx, decl.Text)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", decl.ID, err)
	}

	status := StatusPass
	switch decl.Polarity {
	case manifest.PolarityTrueMeansFail:
		if outcome {
			status = StatusFail
		}
	default:
		// trueMeansPass, and anything unspecified, maps true to pass.
		if !outcome {
			status = StatusFail
		}
	}

	entity := n.backend.DocumentSubject(curation.OWLOntology)
	if entity == "" {
		entity = curation.UnknownDocumentID
	}

	return []Record{{
		Entity:         entity,
		QueryID:        decl.ID,
		RequirementID:  decl.ChecksConformityTo,
		Status:         status,
		Severity:       decl.Severity,
		Scope:          decl.Scope,
		Classification: classification(decl),
		Details:        outcome,
	}}, nil
}

// resolveEntity determines the entity identifier for a row: the declaration's
// designated variable first, then a variable literally named "resource", then
// the first bound variable, else empty.
func (n *Normalizer) resolveEntity(decl manifest.QueryDecl, row store.Row) string {
	if decl.ResourceVar != "" {
		if v, ok := row.Value(decl.ResourceVar); ok {
			return v
		}
	}
	if v, ok := row.Value("resource"); ok {
		return v
	}
	if v, ok := row.First(); ok {
		return v
	}
	return ""
}

// classification resolves the entity flag a declaration attaches to its
// records. The legacy reserved classifier query id maps onto the uncurated
// flag so aggregators never have to match query identifiers.
func classification(decl manifest.QueryDecl) curation.Classification {
	if decl.Classification != curation.ClassificationNone {
		return decl.Classification
	}
	if decl.ID == curation.ClassifierQueryID {
		return curation.ClassificationUncurated
	}
	return curation.ClassificationNone
}
