// Package curationevaluator provides a JetStream processor that grades
// ontology documents on request. It consumes EvaluationRequest messages,
// runs the configured query manifest against each document, and publishes
// an EvaluationResult carrying the normalized records and curation reports.
package curationevaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jonathanvajda/ontology-curation-manager/evaluate"
	"github.com/jonathanvajda/ontology-curation-manager/manifest"
)

// Component implements the curation-evaluator processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	decoder    *message.Decoder
	runner     *evaluate.Runner
	metrics    *evaluate.Metrics

	// Resolved subjects from port config
	inputSubject  string
	inputStream   string
	outputSubject string

	// Lifecycle
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	requestsProcessed atomic.Int64
	evaluationErrors  atomic.Int64
	publishErrors     atomic.Int64
	lastActivityMu    sync.RWMutex
	lastActivity      time.Time
}

// NewComponent constructs a curation-evaluator Component from raw JSON config
// and semstreams dependencies.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults for any unset fields.
	defaults := DefaultConfig()
	if config.StreamName == "" {
		config.StreamName = defaults.StreamName
	}
	if config.ConsumerName == "" {
		config.ConsumerName = defaults.ConsumerName
	}
	if config.Parallelism == 0 {
		config.Parallelism = defaults.Parallelism
	}
	if config.QueryTimeout == "" {
		config.QueryTimeout = defaults.QueryTimeout
	}
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Resolve subjects from port definitions
	inputSubject := "curation.evaluate.request"
	inputStream := config.StreamName
	outputSubject := "curation.evaluate.result"

	if config.Ports != nil {
		if len(config.Ports.Inputs) > 0 {
			inputSubject = config.Ports.Inputs[0].Subject
			if config.Ports.Inputs[0].StreamName != "" {
				inputStream = config.Ports.Inputs[0].StreamName
			}
		}
		if len(config.Ports.Outputs) > 0 {
			outputSubject = trimWildcard(config.Ports.Outputs[0].Subject)
		}
	}

	// A decoder without a registry fails on every message, so leave it nil
	// and let Start reject the misconfiguration up front.
	var decoder *message.Decoder
	if deps.PayloadRegistry != nil {
		decoder = message.NewDecoder(deps.PayloadRegistry)
	}

	return &Component{
		name:          "curation-evaluator",
		config:        config,
		natsClient:    deps.NATSClient,
		logger:        deps.GetLogger(),
		decoder:       decoder,
		inputSubject:  inputSubject,
		inputStream:   inputStream,
		outputSubject: outputSubject,
	}, nil
}

// trimWildcard strips a trailing ".>" token so the result subject can be
// suffixed with the request id.
func trimWildcard(subject string) string {
	if len(subject) > 2 && subject[len(subject)-2:] == ".>" {
		return subject[:len(subject)-2]
	}
	return subject
}

// SetMetrics attaches pipeline metrics. Must be called before Initialize to
// take effect; a nil metrics set records nothing.
func (c *Component) SetMetrics(m *evaluate.Metrics) {
	c.metrics = m
}

// Initialize loads the query manifest and builds the evaluation runner.
func (c *Component) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := manifest.NewLoader(c.logger).Load(ctx, c.config.ManifestSource)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", c.config.ManifestSource, err)
	}

	c.runner = evaluate.NewRunner(m,
		evaluate.WithLogger(c.logger),
		evaluate.WithMetrics(c.metrics),
		evaluate.WithParallelism(c.config.Parallelism),
		evaluate.WithQueryTimeout(c.config.GetQueryTimeout()),
		evaluate.WithEntitySeeding(c.config.SeedEntities),
	)

	c.logger.Debug("Initialized curation-evaluator",
		"manifest", c.config.ManifestSource,
		"queries", len(m.Queries),
		"requirements", len(m.Requirements))
	return nil
}

// Start begins consuming EvaluationRequest messages from JetStream.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.decoder == nil {
		c.mu.Unlock()
		return fmt.Errorf("payload registry required")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	if c.runner == nil {
		c.mu.Unlock()
		return fmt.Errorf("component not initialized")
	}

	// Set running state while holding lock to prevent race condition
	c.running = true
	c.startTime = time.Now()

	consumeCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	consumerCfg := natsclient.StreamConsumerConfig{
		StreamName:    c.inputStream,
		ConsumerName:  c.config.ConsumerName,
		FilterSubject: c.inputSubject,
		DeliverPolicy: "new",
		AckPolicy:     "explicit",
		MaxDeliver:    3,
		AckWait:       c.config.GetQueryTimeout() + 30*time.Second,
	}

	err := c.natsClient.ConsumeStreamWithConfig(consumeCtx, consumerCfg, c.handleMessage)
	if err != nil {
		// Rollback running state on failure
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("start consumer: %w", err)
	}

	c.logger.Info("curation-evaluator started",
		"stream", c.inputStream,
		"consumer", c.config.ConsumerName,
		"input", c.inputSubject,
		"output", c.outputSubject)

	return nil
}

// handleMessage processes a single EvaluationRequest message.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.requestsProcessed.Add(1)
	c.updateLastActivity()

	baseMsg, err := c.decoder.Decode(msg.Data())
	if err != nil {
		c.logger.Warn("Failed to unmarshal base message",
			"error", err,
			"subject", msg.Subject())
		_ = msg.Nak()
		return
	}

	request, ok := baseMsg.Payload().(*EvaluationRequest)
	if !ok {
		c.logger.Warn("Payload is not an EvaluationRequest",
			"type", baseMsg.Type(),
			"subject", msg.Subject())
		_ = msg.Nak()
		return
	}

	if err := request.Validate(); err != nil {
		c.logger.Error("Invalid evaluation request", "error", err)
		// ACK invalid messages — they will not succeed on retry.
		_ = msg.Ack()
		return
	}

	c.logger.Info("Processing evaluation request",
		"request_id", request.RequestID,
		"document", request.DocumentName,
		"document_bytes", len(request.Document))

	result := c.evaluateRequest(ctx, request)

	if err := c.publishResult(ctx, result); err != nil {
		c.logger.Warn("Failed to publish evaluation result",
			"request_id", request.RequestID,
			"error", err)
		c.publishErrors.Add(1)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	c.logger.Info("Evaluation request completed",
		"request_id", request.RequestID,
		"run_id", result.RunID,
		"records", len(result.Records),
		"status", result.Document.Status)
}

// evaluateRequest runs the evaluation and maps the outcome to a result
// payload. Setup failures are reported in the result's Error field rather
// than dropped.
func (c *Component) evaluateRequest(ctx context.Context, request *EvaluationRequest) *EvaluationResult {
	run, err := c.runner.Run(ctx, request.Document, request.DocumentName)
	if err != nil {
		c.evaluationErrors.Add(1)
		c.logger.Error("Evaluation failed",
			"request_id", request.RequestID,
			"document", request.DocumentName,
			"error", err)
		return &EvaluationResult{
			RequestID: request.RequestID,
			Error:     err.Error(),
		}
	}

	return &EvaluationResult{
		RequestID:  request.RequestID,
		RunID:      run.RunID,
		DocumentID: run.DocumentID,
		Records:    run.Records,
		Entities:   run.Entities,
		Document:   run.Document,
	}
}

// publishResult publishes an EvaluationResult to JetStream.
// Subject: curation.evaluate.result.<request_id>
func (c *Component) publishResult(ctx context.Context, result *EvaluationResult) error {
	baseMsg := message.NewBaseMessage(result.Schema(), result, c.name)

	data, err := json.Marshal(baseMsg)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	js, err := c.natsClient.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", c.outputSubject, result.RequestID)
	if _, err := js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.running = false
	c.logger.Info("curation-evaluator stopped",
		"requests_processed", c.requestsProcessed.Load(),
		"evaluation_errors", c.evaluationErrors.Load(),
		"publish_errors", c.publishErrors.Load())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "curation-evaluator",
		Type:        "processor",
		Description: "Grades ontology documents against a curation query manifest",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = buildPort(portDef, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition, using JetStreamPort
// for jetstream-type ports and NATSPort for core NATS ports.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return curationEvaluatorSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	errorCount := int(c.evaluationErrors.Load() + c.publishErrors.Load())

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: errorCount,
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}

func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}
