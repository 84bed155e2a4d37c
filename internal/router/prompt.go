package router

import (
	"fmt"

	"github.com/aescanero/dago-node-intent-router/internal/eval/template"
)

// SystemPrompt enumerates the decision options and the required JSON shape
const SystemPrompt = `你是一个路由决策专家。根据用户意图和输入，决定处理路径。

决策选项：
1. 直接回答：简单查询，可以直接回答
2. 数据库查询：需要查询数据库获取数据
3. 数据分析：需要对数据进行复杂分析
4. 工具调用：需要使用特定工具（如设备控制）

请返回JSON格式：
{
    "decision": "直接回答|数据库查询|数据分析|工具调用",
    "reason": "决策理由",
    "tools": ["工具名称列表，如果需要"],
    "needs_data": true/false
}
`

// userPromptTemplate interpolates request fields verbatim (triple stash).
// The context line is emitted only when context is non-empty.
const userPromptTemplate = `用户意图：{{{intent}}}
用户输入：{{{input}}}{{#if context}}
上下文信息：{{json context}}{{/if}}

请做出路由决策。`

// PromptBuilder assembles the message pair sent to the model
type PromptBuilder struct {
	engine *template.Engine
}

// NewPromptBuilder creates a prompt builder
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{engine: template.NewEngine()}
}

// Build returns the system and user messages for a request
func (b *PromptBuilder) Build(req RoutingRequest) ([]Message, error) {
	data := map[string]interface{}{
		"intent": req.Intent,
		"input":  req.UserInput,
	}
	if len(req.Context) > 0 {
		data["context"] = req.Context
	}

	userPrompt, err := b.engine.Render(userPromptTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render user prompt: %w", err)
	}

	return []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: userPrompt},
	}, nil
}
