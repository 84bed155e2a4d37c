// Package router decides how a classified user request should be handled.
//
// A Resolver asks a language model to choose one of four strategies
// (direct answer, database query, data analysis, tool invocation) and returns
// the choice as a Decision. Resolution is total: a failed model call or an
// unparseable response produces a fallback DirectAnswer decision instead of
// an error.
//
// Example usage:
//
//	resolver := router.NewResolver(invoker, logger,
//	    router.WithDefaults(router.ModelConfig{Model: "claude-sonnet-4-20250514"}),
//	)
//
//	decision := resolver.Resolve(ctx, router.RoutingRequest{
//	    UserInput: "上个月的销售额是多少？",
//	    Intent:    "数据查询",
//	})
//	if decision.NeedsData {
//	    // hand off to the data layer
//	}
//
// Optional fast rules are CEL expressions over intent, input and context that
// select a decision without calling the model:
//
//	resolver := router.NewResolver(invoker, logger, router.WithFastRules([]router.FastRule{
//	    {Condition: "intent == '问候'", Label: router.LabelDirectAnswer, Reason: "greeting"},
//	}))
package router
