package router

import (
	"context"

	"github.com/aescanero/dago-node-intent-router/internal/eval/cel"
	"go.uber.org/zap"
)

// FastRule short-circuits the model call when its CEL condition holds
type FastRule struct {
	Condition string   `yaml:"condition" json:"condition"`
	Label     Label    `yaml:"decision" json:"decision"`
	Reason    string   `yaml:"reason" json:"reason"`
	Tools     []string `yaml:"tools" json:"tools"`
	NeedsData bool     `yaml:"needs_data" json:"needs_data"`
}

// Decision returns the decision produced when the rule matches
func (fr FastRule) Decision() Decision {
	tools := make([]string, len(fr.Tools))
	copy(tools, fr.Tools)

	return Decision{
		Label:     fr.Label,
		Reason:    fr.Reason,
		Tools:     tools,
		NeedsData: fr.NeedsData,
	}
}

// matchFastRule evaluates fast rules in order and returns the first match.
// Rules that fail to evaluate or return a non-boolean are skipped.
func (r *Resolver) matchFastRule(ctx context.Context, req RoutingRequest) (Decision, bool) {
	if len(r.fastRules) == 0 {
		return Decision{}, false
	}

	vars := cel.Vars(req.Intent, req.UserInput, req.Context)

	for i, rule := range r.fastRules {
		matched, err := r.celEvaluator.EvaluateBool(ctx, rule.Condition, vars)
		if err != nil {
			r.logger.Warn("fast rule evaluation error",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
				zap.Error(err),
			)
			continue
		}

		if matched {
			r.logger.Debug("fast rule matched",
				zap.Int("rule_index", i),
				zap.String("condition", rule.Condition),
			)
			return rule.Decision(), true
		}
	}

	return Decision{}, false
}
