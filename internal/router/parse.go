package router

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseDecision parses a model response into a Decision.
// The response must be a JSON object, optionally inside a markdown code fence,
// with a known decision label, a string reason, a boolean needs_data and an
// optional array of tool names. Anything else yields a *DecisionParseError.
func ParseDecision(response string) (Decision, error) {
	body := stripCodeFence(response)

	if !gjson.Valid(body) {
		return Decision{}, &DecisionParseError{Detail: "response is not valid JSON", Response: response}
	}

	root := gjson.Parse(body)
	if !root.IsObject() {
		return Decision{}, &DecisionParseError{Detail: "response is not a JSON object", Response: response}
	}

	fail := func(detail string) (Decision, error) {
		return Decision{}, &DecisionParseError{Detail: detail, Response: response}
	}

	label := root.Get("decision")
	if label.Type != gjson.String {
		return fail("decision must be a string")
	}
	if !Label(label.Str).Valid() {
		return fail("unknown decision label " + label.Str)
	}

	reason := root.Get("reason")
	if reason.Type != gjson.String {
		return fail("reason must be a string")
	}

	needsData := root.Get("needs_data")
	if needsData.Type != gjson.True && needsData.Type != gjson.False {
		return fail("needs_data must be a boolean")
	}

	tools := []string{}
	toolsField := root.Get("tools")
	switch {
	case !toolsField.Exists(), toolsField.Type == gjson.Null:
	case toolsField.IsArray():
		for _, tool := range toolsField.Array() {
			if tool.Type != gjson.String {
				return fail("tools must contain only strings")
			}
			tools = append(tools, tool.Str)
		}
	default:
		return fail("tools must be an array")
	}

	return Decision{
		Label:     Label(label.Str),
		Reason:    reason.Str,
		Tools:     tools,
		NeedsData: needsData.Bool(),
	}, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop the info string (e.g. "json") on the opening line
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:i]), "{") {
		s = s[i+1:]
	}

	return strings.TrimSpace(s)
}
