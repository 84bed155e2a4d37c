package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dago-node-intent-router/internal/eval/cel"
	"go.uber.org/zap"
)

// DefaultModelConfig returns the invocation options used when none are configured
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 1024,
		Timeout:   30 * time.Second,
	}
}

// Resolver turns routing requests into decisions
type Resolver struct {
	invoker      Invoker
	prompts      *PromptBuilder
	celEvaluator *cel.Evaluator
	fastRules    []FastRule
	defaults     ModelConfig
	logger       *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithDefaults sets the model options applied when a request leaves them unset
func WithDefaults(cfg ModelConfig) Option {
	return func(r *Resolver) {
		r.defaults = cfg.withDefaults(DefaultModelConfig())
	}
}

// WithFastRules sets the CEL rules evaluated before calling the model.
// Rules without a condition or with a label outside the closed set are dropped.
func WithFastRules(rules []FastRule) Option {
	return func(r *Resolver) {
		r.fastRules = make([]FastRule, 0, len(rules))
		for i, rule := range rules {
			if rule.Condition == "" || !rule.Label.Valid() {
				r.logger.Warn("ignoring invalid fast rule",
					zap.Int("rule_index", i),
					zap.String("condition", rule.Condition),
					zap.String("decision", string(rule.Label)),
				)
				continue
			}
			r.fastRules = append(r.fastRules, rule)
		}
	}
}

// NewResolver creates a resolver. A nil invoker makes every model-backed
// resolution fall back.
func NewResolver(invoker Invoker, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolver{
		invoker:      invoker,
		prompts:      NewPromptBuilder(),
		celEvaluator: cel.NewEvaluator(),
		defaults:     DefaultModelConfig(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the routing decision for req. It never fails: model call
// errors, unparseable responses and panics all yield the fallback decision.
// A single model call is made and never retried.
func (r *Resolver) Resolve(ctx context.Context, req RoutingRequest) (decision Decision) {
	defer func() {
		if p := recover(); p != nil {
			err := &ModelInvocationError{Err: fmt.Errorf("panic: %v", p)}
			r.logger.Error("routing decision failed",
				zap.String("intent", req.Intent),
				zap.Error(err),
				zap.Stack("stack"),
			)
			decision = FallbackDecision(err)
		}
	}()

	if d, ok := r.matchFastRule(ctx, req); ok {
		r.logger.Info("routing decision",
			zap.String("decision", string(d.Label)),
			zap.String("intent", req.Intent),
			zap.String("path", "fast"),
		)
		return d
	}

	d, err := r.resolve(ctx, req)
	if err != nil {
		fields := []zap.Field{
			zap.String("intent", req.Intent),
			zap.Error(err),
		}
		var parseErr *DecisionParseError
		if errors.As(err, &parseErr) {
			fields = append(fields, zap.String("response", parseErr.Response))
		}
		r.logger.Error("routing decision failed", fields...)

		return FallbackDecision(err)
	}

	r.logger.Info("routing decision",
		zap.String("decision", string(d.Label)),
		zap.String("intent", req.Intent),
		zap.String("path", "model"),
	)

	return d
}

// resolve builds the prompt, calls the model once and parses the response
func (r *Resolver) resolve(ctx context.Context, req RoutingRequest) (Decision, error) {
	messages, err := r.prompts.Build(req)
	if err != nil {
		return Decision{}, &ModelInvocationError{Err: err}
	}

	cfg := r.defaults
	if req.ModelConfig != nil {
		cfg = req.ModelConfig.withDefaults(r.defaults)
	}

	response, err := r.callModel(ctx, messages, cfg)
	if err != nil {
		return Decision{}, err
	}

	return ParseDecision(response)
}

// callModel invokes the model collaborator, wrapping any failure
func (r *Resolver) callModel(ctx context.Context, messages []Message, cfg ModelConfig) (string, error) {
	if r.invoker == nil {
		return "", &ModelInvocationError{Err: errors.New("llm client not configured")}
	}

	if err := ctx.Err(); err != nil {
		return "", &ModelInvocationError{Err: err}
	}

	r.logger.Debug("calling llm for routing",
		zap.String("model", cfg.Model),
		zap.Int("max_tokens", cfg.MaxTokens),
		zap.Float64("temperature", cfg.Temperature),
	)

	response, usage, err := r.invoker.Invoke(ctx, messages, cfg)
	if err != nil {
		var invErr *ModelInvocationError
		if errors.As(err, &invErr) {
			return "", invErr
		}
		return "", &ModelInvocationError{Err: err}
	}

	r.logger.Debug("llm response received",
		zap.String("model", usage.Model),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
		zap.Duration("latency", usage.Latency),
		zap.String("response", response),
	)

	return response, nil
}
