package curationevaluator

import (
	"fmt"
	"reflect"
	"time"

	"github.com/c360studio/semstreams/component"
)

// curationEvaluatorSchema defines the configuration schema.
var curationEvaluatorSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the curation-evaluator component.
type Config struct {
	// StreamName is the JetStream stream for consuming requests and publishing results.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream for evaluation traffic,category:basic,default:CURATION"`

	// ConsumerName is the durable consumer name for request consumption.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name for request consumption,category:basic,default:curation-evaluator"`

	// ManifestSource is a local path or http(s) URL of the query manifest.
	ManifestSource string `json:"manifest_source" schema:"type:string,description:Query manifest path or URL,category:basic,default:"`

	// Parallelism is the number of queries evaluated concurrently per run.
	Parallelism int `json:"parallelism" schema:"type:int,description:Concurrent query evaluations per run,category:advanced,default:1"`

	// QueryTimeout bounds a single query evaluation (duration string).
	QueryTimeout string `json:"query_timeout" schema:"type:string,description:Per-query evaluation timeout (duration string),category:advanced,default:60s"`

	// SeedEntities reports every subject in the document, findings or not.
	SeedEntities bool `json:"seed_entities" schema:"type:bool,description:Report every document subject even without findings,category:advanced,default:false"`

	// Ports contains input/output port definitions.
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Input/output port definitions,category:basic"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:   "CURATION",
		ConsumerName: "curation-evaluator",
		Parallelism:  1,
		QueryTimeout: "60s",
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "evaluation-requests",
					Type:        "jetstream",
					Subject:     "curation.evaluate.request",
					StreamName:  "CURATION",
					Description: "Receive ontology evaluation requests",
					Required:    true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "evaluation-results",
					Type:        "nats",
					Subject:     "curation.evaluate.result.>",
					Description: "Publish evaluation results",
					Required:    false,
				},
			},
		},
	}
}

// GetQueryTimeout parses the per-query timeout duration.
// Returns 60 seconds if the field is empty or unparseable.
func (c *Config) GetQueryTimeout() time.Duration {
	if c.QueryTimeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.ManifestSource == "" {
		return fmt.Errorf("manifest_source is required")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	return nil
}
