package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-intent-router/internal/router"
	"go.uber.org/zap"
)

// Invoker adapts a dago LLM client to the router's model collaborator
type Invoker struct {
	client ports.LLMClient
	logger *zap.Logger
}

// NewInvoker creates an invoker backed by client
func NewInvoker(client ports.LLMClient, logger *zap.Logger) *Invoker {
	return &Invoker{
		client: client,
		logger: logger,
	}
}

// Invoke sends the messages as a single completion request. System messages
// travel in LLMRequest.System. cfg.Timeout, when positive, bounds the call.
func (i *Invoker) Invoke(ctx context.Context, messages []router.Message, cfg router.ModelConfig) (string, router.Usage, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	system, conversation := splitMessages(messages)
	req := &domain.LLMRequest{
		Model:       cfg.Model,
		System:      system,
		Messages:    conversation,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	start := time.Now()
	respInterface, err := i.client.GenerateCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		i.logger.Debug("llm completion failed",
			zap.String("model", cfg.Model),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return "", router.Usage{}, fmt.Errorf("llm completion failed: %w", err)
	}

	resp, ok := respInterface.(*domain.LLMResponse)
	if !ok {
		return "", router.Usage{}, fmt.Errorf("unexpected response type from LLM: %T", respInterface)
	}

	model := resp.Model
	if model == "" {
		model = cfg.Model
	}

	return resp.Content, router.Usage{
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      latency,
	}, nil
}

// splitMessages moves system messages into the request's System field.
// Providers only accept user and assistant turns in Messages.
func splitMessages(messages []router.Message) (string, []domain.Message) {
	var system []string
	conversation := make([]domain.Message, 0, len(messages))

	for _, m := range messages {
		if m.Role == router.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		conversation = append(conversation, domain.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	return strings.Join(system, "\n\n"), conversation
}
