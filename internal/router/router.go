package router

import (
	"context"
	"time"
)

// Label identifies the downstream handling strategy chosen for a request
type Label string

const (
	// LabelDirectAnswer answers the user without fetching data
	LabelDirectAnswer Label = "直接回答"

	// LabelDatabaseQuery requires querying the database
	LabelDatabaseQuery Label = "数据库查询"

	// LabelDataAnalysis requires analysis over fetched data
	LabelDataAnalysis Label = "数据分析"

	// LabelToolInvocation requires invoking one or more tools
	LabelToolInvocation Label = "工具调用"
)

// Labels lists every valid label in prompt order
var Labels = []Label{
	LabelDirectAnswer,
	LabelDatabaseQuery,
	LabelDataAnalysis,
	LabelToolInvocation,
}

// Valid reports whether l belongs to the closed label set
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// Decision is the routing outcome returned for every request
type Decision struct {
	Label     Label    `json:"decision"`
	Reason    string   `json:"reason"`
	Tools     []string `json:"tools"`
	NeedsData bool     `json:"needs_data"`
}

// ModelConfig holds per-call model invocation options.
// Zero values inherit the resolver defaults; a zero Temperature after
// defaulting leaves the provider's own default in place.
type ModelConfig struct {
	Model       string        `json:"model,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// withDefaults fills unset fields from defaults
func (c ModelConfig) withDefaults(defaults ModelConfig) ModelConfig {
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaults.Temperature
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// RoutingRequest is the input of a single routing call
type RoutingRequest struct {
	UserInput   string                 `json:"user_input"`
	Intent      string                 `json:"intent"`
	Context     map[string]interface{} `json:"context,omitempty"`
	ModelConfig *ModelConfig           `json:"model_config,omitempty"`
}

// Role tags a prompt message
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a role-tagged prompt segment
type Message struct {
	Role    Role
	Content string
}

// Usage carries invocation statistics reported by the model collaborator
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
}

// Invoker sends messages to a language model and returns its raw text.
// Implementations own transport, authentication and timeouts.
type Invoker interface {
	Invoke(ctx context.Context, messages []Message, cfg ModelConfig) (string, Usage, error)
}

// InvokerFunc adapts a plain function to the Invoker interface
type InvokerFunc func(ctx context.Context, messages []Message, cfg ModelConfig) (string, Usage, error)

// Invoke calls f
func (f InvokerFunc) Invoke(ctx context.Context, messages []Message, cfg ModelConfig) (string, Usage, error) {
	return f(ctx, messages, cfg)
}
