package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// stubInvoker records the last call and returns a canned response
type stubInvoker struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	messages []Message
	cfg      ModelConfig
}

func (s *stubInvoker) Invoke(_ context.Context, messages []Message, cfg ModelConfig) (string, Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.messages = messages
	s.cfg = cfg
	if s.err != nil {
		return "", Usage{}, s.err
	}
	return s.response, Usage{Model: cfg.Model, Latency: time.Millisecond}, nil
}

func request() RoutingRequest {
	return RoutingRequest{
		UserInput: "上个月的订单数量是多少？",
		Intent:    "数据查询",
	}
}

func TestResolver_ValidResponsePassesThrough(t *testing.T) {
	invoker := &stubInvoker{
		response: `{"decision": "数据库查询", "reason": "needs data", "tools": ["db_query"], "needs_data": true}`,
	}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	got := resolver.Resolve(context.Background(), request())

	assert.Equal(t, Decision{
		Label:     LabelDatabaseQuery,
		Reason:    "needs data",
		Tools:     []string{"db_query"},
		NeedsData: true,
	}, got)
	assert.Equal(t, 1, invoker.calls)
}

func TestResolver_CallFailureFallsBack(t *testing.T) {
	invoker := &stubInvoker{err: errors.New("connection refused")}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	got := resolver.Resolve(context.Background(), request())

	assert.Equal(t, Decision{
		Label:     LabelDirectAnswer,
		Reason:    "routing decision failed: connection refused",
		Tools:     []string{},
		NeedsData: false,
	}, got)
	assert.Equal(t, 1, invoker.calls, "failed calls are not retried")
}

func TestResolver_ParseFailureFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "not json", response: "not json"},
		{name: "unknown label", response: `{"decision": "闲聊", "reason": "x", "tools": [], "needs_data": false}`},
		{name: "missing field", response: `{"decision": "数据分析", "reason": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(&stubInvoker{response: tt.response}, zaptest.NewLogger(t))

			got := resolver.Resolve(context.Background(), request())

			assert.Equal(t, Decision{
				Label:     LabelDirectAnswer,
				Reason:    "unable to parse routing decision",
				Tools:     []string{},
				NeedsData: false,
			}, got)
		})
	}
}

func TestResolver_PanicDoesNotPropagate(t *testing.T) {
	invoker := InvokerFunc(func(context.Context, []Message, ModelConfig) (string, Usage, error) {
		panic("provider exploded")
	})
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	var got Decision
	require.NotPanics(t, func() {
		got = resolver.Resolve(context.Background(), request())
	})

	assert.Equal(t, LabelDirectAnswer, got.Label)
	assert.Equal(t, "routing decision failed: panic: provider exploded", got.Reason)
	assert.Equal(t, []string{}, got.Tools)
	assert.False(t, got.NeedsData)
}

func TestResolver_NilInvoker(t *testing.T) {
	resolver := NewResolver(nil, nil)

	got := resolver.Resolve(context.Background(), request())

	assert.Equal(t, "routing decision failed: llm client not configured", got.Reason)
}

func TestResolver_WrappedInvocationErrorIsNotDoubleWrapped(t *testing.T) {
	invoker := &stubInvoker{err: &ModelInvocationError{Err: errors.New("rate limited")}}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	got := resolver.Resolve(context.Background(), request())

	assert.Equal(t, "routing decision failed: rate limited", got.Reason)
}

func TestResolver_CancelledContext(t *testing.T) {
	invoker := &stubInvoker{response: `{"decision": "直接回答", "reason": "x", "tools": [], "needs_data": false}`}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := resolver.Resolve(ctx, request())

	assert.Equal(t, LabelDirectAnswer, got.Label)
	assert.Equal(t, "routing decision failed: context canceled", got.Reason)
	assert.Equal(t, 0, invoker.calls)
}

func TestResolver_ModelConfigDefaults(t *testing.T) {
	response := `{"decision": "直接回答", "reason": "x", "tools": [], "needs_data": false}`

	t.Run("resolver defaults apply when request has none", func(t *testing.T) {
		invoker := &stubInvoker{response: response}
		resolver := NewResolver(invoker, zaptest.NewLogger(t), WithDefaults(ModelConfig{Model: "gpt-4o"}))

		resolver.Resolve(context.Background(), request())

		assert.Equal(t, ModelConfig{Model: "gpt-4o", MaxTokens: 1024, Timeout: 30 * time.Second}, invoker.cfg)
	})

	t.Run("request overrides are merged", func(t *testing.T) {
		invoker := &stubInvoker{response: response}
		resolver := NewResolver(invoker, zaptest.NewLogger(t))

		req := request()
		req.ModelConfig = &ModelConfig{MaxTokens: 256}
		resolver.Resolve(context.Background(), req)

		assert.Equal(t, "claude-sonnet-4-20250514", invoker.cfg.Model)
		assert.Equal(t, 256, invoker.cfg.MaxTokens)
		assert.Equal(t, 30*time.Second, invoker.cfg.Timeout)
	})

	t.Run("temperature falls back to resolver default", func(t *testing.T) {
		invoker := &stubInvoker{response: response}
		resolver := NewResolver(invoker, zaptest.NewLogger(t), WithDefaults(ModelConfig{Temperature: 0.7}))

		resolver.Resolve(context.Background(), request())
		assert.Equal(t, 0.7, invoker.cfg.Temperature)

		req := request()
		req.ModelConfig = &ModelConfig{Temperature: 0.2}
		resolver.Resolve(context.Background(), req)
		assert.Equal(t, 0.2, invoker.cfg.Temperature)
	})
}

func TestResolver_SendsBuiltPrompt(t *testing.T) {
	invoker := &stubInvoker{response: "not json"}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	req := request()
	req.Context = map[string]interface{}{"shop": "north"}
	resolver.Resolve(context.Background(), req)

	require.Len(t, invoker.messages, 2)
	assert.Equal(t, RoleSystem, invoker.messages[0].Role)
	assert.Contains(t, invoker.messages[1].Content, req.UserInput)
	assert.Contains(t, invoker.messages[1].Content, `上下文信息：{"shop":"north"}`)
}

func TestResolver_Logging(t *testing.T) {
	t.Run("success logs decision label", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		invoker := &stubInvoker{response: `{"decision": "数据分析", "reason": "x", "tools": [], "needs_data": true}`}
		resolver := NewResolver(invoker, zap.New(core))

		resolver.Resolve(context.Background(), request())

		entries := logs.FilterMessage("routing decision").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "数据分析", entries[0].ContextMap()["decision"])
	})

	t.Run("call failure logs error with detail", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		resolver := NewResolver(&stubInvoker{err: errors.New("401 unauthorized: key sk-123")}, zap.New(core))

		resolver.Resolve(context.Background(), request())

		entries := logs.FilterMessage("routing decision failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Contains(t, entries[0].ContextMap()["error"], "401 unauthorized")
	})

	t.Run("parse failure logs raw response", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		resolver := NewResolver(&stubInvoker{response: "not json"}, zap.New(core))

		resolver.Resolve(context.Background(), request())

		entries := logs.FilterMessage("routing decision failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "not json", entries[0].ContextMap()["response"])
	})
}

func TestResolver_FastRules(t *testing.T) {
	rules := []FastRule{
		{Condition: "intent.unknownFn()", Label: LabelDataAnalysis},
		{Condition: "intent == '问候'", Label: LabelDirectAnswer, Reason: "greeting"},
		{Condition: "has(context.device)", Label: LabelToolInvocation, Reason: "device", Tools: []string{"device_control"}},
	}

	t.Run("matching rule skips model", func(t *testing.T) {
		invoker := &stubInvoker{err: errors.New("should not be called")}
		resolver := NewResolver(invoker, zaptest.NewLogger(t), WithFastRules(rules))

		got := resolver.Resolve(context.Background(), RoutingRequest{UserInput: "开灯", Intent: "控制", Context: map[string]interface{}{"device": "lamp"}})

		assert.Equal(t, Decision{Label: LabelToolInvocation, Reason: "device", Tools: []string{"device_control"}}, got)
		assert.Equal(t, 0, invoker.calls)
	})

	t.Run("no match calls model", func(t *testing.T) {
		invoker := &stubInvoker{response: `{"decision": "数据库查询", "reason": "x", "tools": [], "needs_data": true}`}
		resolver := NewResolver(invoker, zaptest.NewLogger(t), WithFastRules(rules))

		got := resolver.Resolve(context.Background(), request())

		assert.Equal(t, LabelDatabaseQuery, got.Label)
		assert.Equal(t, 1, invoker.calls)
	})

	t.Run("decision tools are copied", func(t *testing.T) {
		resolver := NewResolver(nil, zaptest.NewLogger(t), WithFastRules(rules))

		got := resolver.Resolve(context.Background(), RoutingRequest{Intent: "x", Context: map[string]interface{}{"device": 1}})
		got.Tools[0] = "mutated"

		assert.Equal(t, "device_control", rules[2].Tools[0])
	})

	t.Run("rules with unknown labels are dropped", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		invalid := []FastRule{
			{Condition: "true", Label: Label("bogus")},
			{Condition: "", Label: LabelDirectAnswer},
		}
		resolver := NewResolver(nil, zap.New(core), WithFastRules(invalid))

		got := resolver.Resolve(context.Background(), request())

		assert.Equal(t, LabelDirectAnswer, got.Label)
		assert.Equal(t, "routing decision failed: llm client not configured", got.Reason)
		assert.Equal(t, 2, logs.FilterMessage("ignoring invalid fast rule").Len())
	})
}

func TestResolver_Concurrent(t *testing.T) {
	invoker := &stubInvoker{response: `{"decision": "直接回答", "reason": "x", "tools": [], "needs_data": false}`}
	resolver := NewResolver(invoker, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	results := make([]Decision, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = resolver.Resolve(context.Background(), request())
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		assert.Equal(t, LabelDirectAnswer, d.Label)
	}
	assert.Equal(t, len(results), invoker.calls)
}

func TestFallbackDecision(t *testing.T) {
	assert.Equal(t, "unable to parse routing decision",
		FallbackDecision(&DecisionParseError{Detail: "x"}).Reason)
	assert.Equal(t, "routing decision failed: timeout",
		FallbackDecision(&ModelInvocationError{Err: errors.New("timeout")}).Reason)
}

func TestLabel_Valid(t *testing.T) {
	for _, label := range Labels {
		assert.True(t, label.Valid())
	}
	assert.False(t, Label("").Valid())
	assert.False(t, Label("DirectAnswer").Valid())
}
