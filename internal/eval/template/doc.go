// Package template provides a Handlebars template engine for rendering LLM prompts.
//
// Compiled templates are cached, so a fixed prompt is parsed only once per engine.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "intent":  "查询订单",
//	    "context": map[string]interface{}{"user_id": 42},
//	}
//
//	result, err := engine.Render("Intent: {{{intent}}}{{#if context}} {{json context}}{{/if}}", data)
//	// Output: Intent: 查询订单 {"user_id":42}
//
// Built-in helpers:
//   - json - Render a value as compact JSON (not HTML-escaped)
package template
