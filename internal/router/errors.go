package router

import (
	"errors"
	"fmt"
)

const (
	parseFailedReason = "unable to parse routing decision"
	callFailedPrefix  = "routing decision failed: "
)

// ModelInvocationError reports a failed language model call
type ModelInvocationError struct {
	Err error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed: %v", e.Err)
}

func (e *ModelInvocationError) Unwrap() error {
	return e.Err
}

// DecisionParseError reports a model response that is not a valid decision
type DecisionParseError struct {
	Detail   string
	Response string
}

func (e *DecisionParseError) Error() string {
	return fmt.Sprintf("decision parse failed: %s", e.Detail)
}

// FallbackDecision converts a resolution error into the safe default decision.
// Parse errors get a fixed reason; invocation errors embed the cause.
func FallbackDecision(err error) Decision {
	reason := parseFailedReason

	var invErr *ModelInvocationError
	if errors.As(err, &invErr) {
		reason = callFailedPrefix + fmt.Sprint(invErr.Err)
	}

	return Decision{
		Label:     LabelDirectAnswer,
		Reason:    reason,
		Tools:     []string{},
		NeedsData: false,
	}
}
