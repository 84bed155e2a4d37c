package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/dago-node-intent-router/internal/router"
)

// WorkRequest is a routing request read from the request stream
type WorkRequest struct {
	RequestID   string                 `json:"request_id"`
	UserInput   string                 `json:"user_input"`
	Intent      string                 `json:"intent"`
	Context     map[string]interface{} `json:"context,omitempty"`
	ModelConfig *ModelConfigPayload    `json:"model_config,omitempty"`

	routing router.RoutingRequest
}

// ModelConfigPayload carries per-request model overrides.
// Timeout uses Go duration syntax, e.g. "15s".
type ModelConfigPayload struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Timeout     string  `json:"timeout,omitempty"`
}

// DecisionEvent is published to the result stream for every handled request
type DecisionEvent struct {
	RequestID string    `json:"request_id"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason"`
	Tools     []string  `json:"tools"`
	NeedsData bool      `json:"needs_data"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is published to the error stream for requests that could not be read
type ErrorEvent struct {
	MessageID string    `json:"message_id"`
	RequestID string    `json:"request_id,omitempty"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// parseWorkRequest parses a work request from a Redis stream message
func parseWorkRequest(values map[string]interface{}) (*WorkRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request WorkRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work request: %w", err)
	}

	if request.RequestID == "" {
		return &request, fmt.Errorf("request_id is required")
	}

	request.routing = router.RoutingRequest{
		UserInput: request.UserInput,
		Intent:    request.Intent,
		Context:   request.Context,
	}

	if p := request.ModelConfig; p != nil {
		if p.Temperature < 0 || p.Temperature > 2 {
			return &request, fmt.Errorf("invalid model_config.temperature: must be between 0 and 2")
		}
		cfg := &router.ModelConfig{
			Model:       p.Model,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
		}
		if p.Timeout != "" {
			timeout, err := time.ParseDuration(p.Timeout)
			if err != nil {
				return &request, fmt.Errorf("invalid model_config.timeout: %w", err)
			}
			cfg.Timeout = timeout
		}
		request.routing.ModelConfig = cfg
	}

	return &request, nil
}

// newDecisionEvent builds the result stream payload for a decision
func newDecisionEvent(requestID string, decision router.Decision, now time.Time) DecisionEvent {
	tools := decision.Tools
	if tools == nil {
		tools = []string{}
	}

	return DecisionEvent{
		RequestID: requestID,
		Decision:  string(decision.Label),
		Reason:    decision.Reason,
		Tools:     tools,
		NeedsData: decision.NeedsData,
		Timestamp: now.UTC(),
	}
}
