// Package promptenhancer implements the Prompt Enhancer (C5): a secondary
// conversation pinned to the "fast" model variant that rewrites a raw user
// prompt through a single forced parsing tool call, reusing the
// Conversation State Machine (C3) rather than talking to a provider
// directly.
//
// Grounded on internal/agent/context/summarize.go's Summarizer (an
// injectable, config-driven rewrite step sitting in front of the main
// conversation) and internal/conversation's parsing-tool machinery, which
// already implements the "exactly one parsingOnly tool forces tool_choice"
// rule this package depends on.
package promptenhancer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corehive/agentcore/internal/agent"
	"github.com/corehive/agentcore/internal/capability"
	"github.com/corehive/agentcore/internal/config"
	"github.com/corehive/agentcore/internal/conversation"
	"github.com/corehive/agentcore/internal/roles"
)

// ToolName is the forced parsing tool whose single argument carries the
// rewritten prompt.
const ToolName = "rewritten_prompt"

type rewriteArgs struct {
	Prompt string `json:"prompt"`
}

// Enhancer rewrites a raw user prompt before it reaches the main
// conversation.
type Enhancer struct {
	engine   *conversation.Engine
	roleSpec string
	budget   int
}

// New builds an Enhancer with its own dedicated Engine, isolated from the
// caller's main conversation engine so a rewrite call never competes for
// tool_choice with the caller's own tools: its ToolRegistry holds nothing,
// since the rewrite tool is parsing-only and never dispatched through
// Tools.Execute.
func New(reg *roles.Registry, providers map[string]agent.LLMProvider, models map[config.ModelLevel]config.ModelVariant, roleSpec string, budget int) *Enhancer {
	engine := &conversation.Engine{
		Roles:        reg,
		Capability:   capability.Filter{},
		Tools:        agent.NewToolRegistry(),
		Providers:    providers,
		Models:       models,
		MaxTokens:    512,
		ParseHandler: parseRewrite,
	}
	return &Enhancer{engine: engine, roleSpec: roleSpec, budget: budget}
}

func parseRewrite(ctx context.Context, roleSpec, toolName string, args []byte) (conversation.ParseResult, error) {
	if toolName != ToolName {
		return conversation.ParseResult{}, fmt.Errorf("promptenhancer: unexpected parsing tool %q", toolName)
	}
	var parsed rewriteArgs
	if err := json.Unmarshal(args, &parsed); err != nil || parsed.Prompt == "" {
		return conversation.ParseResult{Success: false}, nil
	}
	return conversation.ParseResult{Success: true, Content: parsed.Prompt}, nil
}

// Enhance rewrites rawPrompt through a fresh, single-turn conversation. A
// malformed or empty rewrite falls back to the original prompt rather than
// failing the caller's turn.
func (e *Enhancer) Enhance(ctx context.Context, conversationID, rawPrompt string) (string, error) {
	conv := conversation.New(conversationID, e.roleSpec, conversation.LevelFast, e.budget)
	out, err := e.engine.Send(ctx, conv, rawPrompt)
	if err != nil {
		return "", err
	}
	if out == "" {
		return rawPrompt, nil
	}
	return out, nil
}
