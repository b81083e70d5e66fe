package curationevaluator

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/semstreams/message"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
)

// EvaluationRequest is published to curation.evaluate.request. It carries a
// serialized ontology document to grade against the configured manifest.
type EvaluationRequest struct {
	// RequestID correlates the request with its result subject.
	RequestID string `json:"request_id"`

	// DocumentName is a display name and serialization-format hint
	// (file extension conventions apply).
	DocumentName string `json:"document_name"`

	// Document is the raw ontology document text.
	Document string `json:"document"`
}

// Schema implements message.Payload.
func (p *EvaluationRequest) Schema() message.Type {
	return EvaluationRequestType
}

// Validate implements message.Payload.
func (p *EvaluationRequest) Validate() error {
	if p.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if p.Document == "" {
		return fmt.Errorf("document is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *EvaluationRequest) MarshalJSON() ([]byte, error) {
	type Alias EvaluationRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *EvaluationRequest) UnmarshalJSON(data []byte) error {
	type Alias EvaluationRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// EvaluationResult is published to curation.evaluate.result.<request_id>.
// It carries the full run outcome: normalized records plus the per-entity
// and whole-document reports.
type EvaluationResult struct {
	RequestID  string                  `json:"request_id"`
	RunID      string                  `json:"run_id"`
	DocumentID string                  `json:"document_id"`
	Records    []evaluate.Record       `json:"records"`
	Entities   []evaluate.EntityReport `json:"entities"`
	Document   evaluate.DocumentReport `json:"document"`

	// Error is set instead of the report fields when evaluation could not
	// start (unparseable document, missing manifest).
	Error string `json:"error,omitempty"`
}

// Schema implements message.Payload.
func (p *EvaluationResult) Schema() message.Type {
	return EvaluationResultType
}

// Validate implements message.Payload.
func (p *EvaluationResult) Validate() error {
	if p.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *EvaluationResult) MarshalJSON() ([]byte, error) {
	type Alias EvaluationResult
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *EvaluationResult) UnmarshalJSON(data []byte) error {
	type Alias EvaluationResult
	return json.Unmarshal(data, (*Alias)(p))
}

// EvaluationRequestType is the message type for evaluation requests.
var EvaluationRequestType = message.Type{
	Domain:   "curation",
	Category: "evaluation-request",
	Version:  "v1",
}

// EvaluationResultType is the message type for evaluation results.
var EvaluationResultType = message.Type{
	Domain:   "curation",
	Category: "evaluation-result",
	Version:  "v1",
}
