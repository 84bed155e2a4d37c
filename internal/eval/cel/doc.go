// Package cel provides a CEL (Common Expression Language) evaluator for fast routing rules.
//
// Expressions see three variables: intent (string), input (string) and
// context (map of string to dyn).
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//	vars := cel.Vars("问候", "你好", nil)
//
//	matched, err := evaluator.EvaluateBool(ctx, "intent == '问候'", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Map access: context.field, context["field"], has(context.field)
package cel
