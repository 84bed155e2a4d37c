package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_EvaluateBool(t *testing.T) {
	evaluator := NewEvaluator()
	vars := Vars("问候", "你好，在吗", map[string]interface{}{"device": "lamp"})

	tests := []struct {
		name       string
		expression string
		want       bool
		wantErr    bool
	}{
		{name: "intent equality", expression: "intent == '问候'", want: true},
		{name: "input contains", expression: "input.contains('在吗')", want: true},
		{name: "context field", expression: "context.device == 'lamp'", want: true},
		{name: "has on missing key", expression: "has(context.table)", want: false},
		{name: "non boolean result", expression: "intent + input", wantErr: true},
		{name: "syntax error", expression: "intent ==", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.EvaluateBool(context.Background(), tt.expression, vars)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVars_NilContext(t *testing.T) {
	vars := Vars("a", "b", nil)

	assert.Equal(t, map[string]interface{}{}, vars[VarContext])
}

func TestEvaluator_ValidateExpression(t *testing.T) {
	evaluator := NewEvaluator()

	assert.NoError(t, evaluator.ValidateExpression("intent == 'x'"))
	assert.Error(t, evaluator.ValidateExpression("unknown_var == 1"))
}
