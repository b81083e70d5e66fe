package curationevaluator

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the curation-evaluator component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "curation-evaluator",
		Factory:     NewComponent,
		Schema:      curationEvaluatorSchema,
		Type:        "processor",
		Protocol:    "jetstream",
		Domain:      "curation",
		Description: "Grades ontology documents against a curation query manifest",
		Version:     "0.1.0",
	})
}
