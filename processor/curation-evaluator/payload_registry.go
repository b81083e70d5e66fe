package curationevaluator

import (
	"github.com/c360studio/semstreams/payloadregistry"
)

// RegisterPayloads registers the evaluation payload types with the supplied
// registry. Called at process bootstrap before component lifecycle begins;
// the same registry must be passed to the component via
// component.Dependencies.PayloadRegistry so incoming messages decode into
// typed payloads.
func RegisterPayloads(reg *payloadregistry.Registry) error {
	if err := reg.Register(&payloadregistry.Registration{
		Domain:      EvaluationRequestType.Domain,
		Category:    EvaluationRequestType.Category,
		Version:     EvaluationRequestType.Version,
		Description: "Ontology document evaluation request",
		Factory:     func() any { return &EvaluationRequest{} },
	}); err != nil {
		return err
	}

	return reg.Register(&payloadregistry.Registration{
		Domain:      EvaluationResultType.Domain,
		Category:    EvaluationResultType.Category,
		Version:     EvaluationResultType.Version,
		Description: "Ontology document evaluation result with records and curation reports",
		Factory:     func() any { return &EvaluationResult{} },
	})
}
