package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/corehive/agentcore/internal/agent"
	"github.com/corehive/agentcore/internal/capability"
	"github.com/corehive/agentcore/internal/config"
	"github.com/corehive/agentcore/internal/observability"
	"github.com/corehive/agentcore/internal/roles"
	"github.com/corehive/agentcore/pkg/models"
	"go.opentelemetry.io/otel/trace"
)

// Hooks are the observer callbacks named throughout spec §4.3.
type Hooks struct {
	// OnReasoning forwards an assistant turn's reasoning/thinking content
	// before it is stripped from storage (spec §4.3 step 4).
	OnReasoning func(conversationID, text string)

	// OnBudgetExceeded is consulted when the per-cycle tool-call counter
	// would exceed the limit. Returning true raises the limit by the
	// original value and continues; false (or a nil hook) stops the cycle
	// (spec §4.3.2, §4.3.3).
	OnBudgetExceeded func(conversationID string, limit int) bool

	// OnReminder optionally transforms the role's configured reminder
	// string before it is pushed as a synthetic user message.
	OnReminder func(conversationID, reminder string) string

	// OnError is invoked whenever a cycle resets to Idle because of an API
	// failure (spec §4.3.3).
	OnError func(conversationID string, err error)

	// OnMessagePush is invoked once per message, in final push order, as it
	// is appended to the conversation (spec §5 "external observers... see
	// each message exactly once, in final order").
	OnMessagePush func(conversationID string, msg *models.Message)
}

// ExecutionHook brackets a single tool call for callers that need to
// observe or intercept it (the Tool-Execution Hook, C9, wires change
// detection and snapshot creation through this interface). Before returns
// proceed=false to block the call entirely before C9 captures any state or
// C10 creates a snapshot; dispatch never calls After for a blocked call.
type ExecutionHook interface {
	Before(ctx context.Context, conversationID string, call models.ToolCall) (proceed bool, reason string)
	After(ctx context.Context, conversationID string, call models.ToolCall, result models.ToolResult)
}

// ParseHandler turns a parsing-only tool call's raw arguments into a final
// answer for the role that declared it.
type ParseHandler func(ctx context.Context, roleSpec, toolName string, args []byte) (ParseResult, error)

// Engine drives the send cycle for any number of Conversation instances. It
// holds no per-conversation state itself; all mutable state lives on the
// Conversation passed to Send.
type Engine struct {
	Roles      *roles.Registry
	Capability capability.Filter
	Tools      *agent.ToolRegistry

	// ToolExecutor, if set, replaces a direct Tools.Execute call in
	// executeOne with agent.Executor's bounded-concurrency, timeout, and
	// retry-with-backoff handling (internal/agent/executor.go). A nil value
	// falls back to a plain, unretried Tools.Execute call.
	ToolExecutor *agent.Executor

	// Providers maps a model variant's Provider name to an LLMProvider.
	Providers map[string]agent.LLMProvider
	Models    map[config.ModelLevel]config.ModelVariant

	Environment         roles.EnvironmentContext
	EnvironmentTemplate string

	MaxTokens     int
	ParseHandler  ParseHandler
	ExecutionHook ExecutionHook

	// Tracer and Logger are optional; a nil value disables the
	// corresponding instrumentation (mirrors internal/observability's own
	// "Endpoint empty disables tracing" convention).
	Tracer *observability.Tracer
	Logger *observability.Logger

	// Events, if set, receives a sequenced AgentEvent stream for the whole
	// cycle (run/tool lifecycle) alongside Hooks.OnMessagePush's per-message
	// view. A nil value disables event emission entirely.
	Events *agent.EventEmitter

	// Approval, if set, gates every non-parsing tool call before execution
	// (spec §4.3 step 5's dispatch, enriched with per-tool allow/deny/pending
	// policy beyond the role-level capability filter). A nil value allows
	// every call C2 already let through.
	Approval *agent.ApprovalChecker

	// ResultGuard redacts/truncates tool results before they are pushed as
	// tool-role messages (C9's companion to snapshot creation).
	ResultGuard agent.ToolResultGuard

	// Compaction, if set, is checked on every completion round and may
	// trigger its configured flush callback once history nears the context
	// packer's char budget. A nil value disables compaction monitoring.
	Compaction *agent.CompactionManager

	// ToolParallelism bounds how many of an assistant turn's tool calls run
	// concurrently. 0 or 1 means sequential (the original behavior); results
	// are always pushed in the assistant's original call order regardless of
	// completion order.
	ToolParallelism int

	Hooks Hooks
}

const multicallToolName = "multicall"

// Send implements the 7-step cycle of spec §4.3. userInput is appended as a
// user message before the cycle starts; pass "" to resume a conversation
// that already has a pending user turn (e.g. after being seeded with a task
// description).
func (e *Engine) Send(ctx context.Context, conv *Conversation, userInput string) (result string, err error) {
	if e.Tracer != nil {
		var span trace.Span
		ctx, span = e.Tracer.Start(ctx, "conversation.send")
		defer span.End()
	}
	if e.Logger != nil {
		e.Logger.Info(ctx, "conversation send started", "conversation_id", conv.ID, "role", conv.RoleSpec)
	}
	if e.Events != nil {
		e.Events.RunStarted(ctx)
		defer func() {
			if err != nil {
				e.Events.RunError(ctx, err, false)
			} else {
				e.Events.RunFinished(ctx, nil)
			}
		}()
	}

	conv.mu.Lock()
	if conv.state != StateIdle {
		conv.mu.Unlock()
		return "", ErrNotIdle
	}
	conv.state = StatePreparing
	conv.toolCounter = 0
	conv.mu.Unlock()

	if userInput != "" {
		e.pushMessage(conv, &models.Message{Role: models.RoleUser, Content: userInput, CreatedAt: time.Now()})
	}

	role, _, err := e.Roles.Get(conv.RoleSpec)
	if err != nil {
		e.toIdle(conv)
		return "", err
	}

	conv.mu.Lock()
	needsSystem := !conv.hasSystemMessage()
	conv.mu.Unlock()
	if needsSystem {
		sysContent, sErr := e.Roles.GetSystemMessage(conv.RoleSpec, e.Environment, e.EnvironmentTemplate)
		if sErr != nil {
			e.toIdle(conv)
			return "", sErr
		}
		conv.mu.Lock()
		conv.history = append([]*models.Message{{Role: models.RoleSystem, Content: sysContent, CreatedAt: time.Now()}}, conv.history...)
		conv.mu.Unlock()
	}

	variant, _ := resolveModel(e.Models, conv.Level)
	provider := e.Providers[variant.Provider]
	if provider == nil {
		e.toIdle(conv)
		return "", fmt.Errorf("conversation: no provider configured for %q", variant.Provider)
	}

	toolChoice, parseErr := e.toolChoiceFor(role)
	if parseErr != nil {
		e.toIdle(conv)
		return "", parseErr
	}

	conv.mu.Lock()
	conv.state = StateApiCalling
	conv.mu.Unlock()

	assistant, err := e.callOnce(ctx, conv, provider, variant, role, toolChoice)
	if err != nil {
		e.toIdle(conv)
		if e.Hooks.OnError != nil {
			e.Hooks.OnError(conv.ID, err)
		}
		return "", err
	}

	parsing, nonParsing, mixErr := partitionToolCalls(role, assistant.ToolCalls)
	if mixErr != nil {
		e.toIdle(conv)
		return "", mixErr
	}

	switch {
	case len(nonParsing) > 0:
		assistant.ToolCalls = nonParsing
		return e.dispatchLoop(ctx, conv, provider, variant, role, assistant)

	case len(parsing) > 0:
		if e.ParseHandler == nil {
			e.toIdle(conv)
			return "", ErrParseHandlerMissing
		}
		call := parsing[0]
		if tool, ok := findParsingTool(role, call.Name); ok {
			if argErr := roles.ValidateArguments(tool, call.Input); argErr != nil {
				e.toIdle(conv)
				return "", argErr
			}
		}
		result, pErr := e.ParseHandler(ctx, conv.RoleSpec, call.Name, call.Input)
		if pErr != nil {
			e.toIdle(conv)
			return "", pErr
		}
		content := assistant.Content
		if result.Success {
			content = result.Content
		}
		e.pushMessage(conv, &models.Message{Role: models.RoleAssistant, Content: content, CreatedAt: time.Now()})
		e.toIdle(conv)
		return content, nil

	default:
		e.pushMessage(conv, assistant)
		e.toIdle(conv)
		return assistant.Content, nil
	}
}

func (e *Engine) toIdle(conv *Conversation) {
	conv.mu.Lock()
	conv.state = StateIdle
	conv.mu.Unlock()
}

func (e *Engine) pushMessage(conv *Conversation, msg *models.Message) {
	conv.mu.Lock()
	conv.history = append(conv.history, msg)
	conv.mu.Unlock()
	if e.Hooks.OnMessagePush != nil {
		e.Hooks.OnMessagePush(conv.ID, msg)
	}
}

// toolChoiceFor implements the "exactly one parsingOnly tool forces
// tool_choice" rule of spec §4.3 step 2.
func (e *Engine) toolChoiceFor(role *roles.Role) (string, error) {
	var parsingOnly []roles.ParsingTool
	for _, pt := range role.ParsingTools {
		if pt.ParsingOnly {
			parsingOnly = append(parsingOnly, pt)
		}
	}
	if len(parsingOnly) == 1 {
		return parsingOnly[0].Name, nil
	}
	return "", nil
}

// findParsingTool looks up the parsingTool declaration a dispatched call
// named, so its arguments can be schema-validated before ParseHandler runs.
func findParsingTool(role *roles.Role, name string) (roles.ParsingTool, bool) {
	for _, pt := range role.ParsingTools {
		if pt.Name == name {
			return pt, true
		}
	}
	return roles.ParsingTool{}, false
}

// partitionToolCalls implements spec §4.3 step 5: calls whose name is one
// of the role's parsingTools are parsing calls; a response mixing both
// kinds is rejected.
func partitionToolCalls(role *roles.Role, calls []models.ToolCall) (parsing, nonParsing []models.ToolCall, err error) {
	if len(calls) == 0 {
		return nil, nil, nil
	}
	parsingNames := make(map[string]struct{}, len(role.ParsingTools))
	for _, pt := range role.ParsingTools {
		parsingNames[pt.Name] = struct{}{}
	}
	for _, c := range calls {
		if _, ok := parsingNames[c.Name]; ok {
			parsing = append(parsing, c)
		} else {
			nonParsing = append(nonParsing, c)
		}
	}
	if len(parsing) > 0 && len(nonParsing) > 0 {
		return nil, nil, ErrParsingToolMixed
	}
	return parsing, nonParsing, nil
}

// callOnce normalizes message ordering, assembles a request, and extracts a
// completed assistant message from the provider's streaming response (spec
// §4.3 steps 2-4).
func (e *Engine) callOnce(ctx context.Context, conv *Conversation, provider agent.LLMProvider, variant config.ModelVariant, role *roles.Role, toolChoice string) (*models.Message, error) {
	conv.mu.Lock()
	conv.history = normalizeOrdering(conv.history)
	history := make([]*models.Message, len(conv.history))
	copy(history, conv.history)
	conv.mu.Unlock()

	if e.Compaction != nil {
		history = e.Compaction.PruneMessages(history)
		if _, cerr := e.Compaction.Check(ctx, conv.ID, history, nil, nil); cerr != nil && e.Logger != nil {
			e.Logger.Warn(ctx, "compaction check failed", "conversation_id", conv.ID, "error", cerr)
		}
	}

	system, rest := splitSystem(history)
	req := &agent.CompletionRequest{
		Model:      variant.Model,
		System:     system,
		Messages:   toCompletionMessages(rest),
		Tools:      e.toolsFor(role),
		ToolChoice: toolChoice,
		MaxTokens:  e.MaxTokens,
	}

	if e.Tracer != nil {
		var span trace.Span
		ctx, span = e.Tracer.TraceLLMRequest(ctx, provider.Name(), variant.Model)
		defer span.End()
	}

	chunks, err := provider.Complete(ctx, req)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Error(ctx, "llm completion failed", "provider", provider.Name(), "error", err)
		}
		return nil, err
	}

	var content, reasoning string
	var toolCalls []models.ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.Thinking != "" {
			reasoning += chunk.Thinking
		}
		if chunk.Text != "" {
			content += chunk.Text
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}

	if reasoning != "" && e.Hooks.OnReasoning != nil {
		e.Hooks.OnReasoning(conv.ID, reasoning)
	}

	return &models.Message{
		Role:      models.RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		CreatedAt: time.Now(),
	}, nil
}

func (e *Engine) toolsFor(role *roles.Role) []agent.Tool {
	all := e.Tools.AsLLMTools()
	out := make([]agent.Tool, 0, len(all))
	for _, t := range all {
		if e.Capability.IsToolIncluded(role, t.Name()) {
			out = append(out, t)
		}
	}
	return out
}

func splitSystem(history []*models.Message) (string, []*models.Message) {
	if len(history) > 0 && history[0].Role == models.RoleSystem {
		return history[0].Content, history[1:]
	}
	return "", history
}

func toCompletionMessages(history []*models.Message) []agent.CompletionMessage {
	out := make([]agent.CompletionMessage, 0, len(history))
	for _, m := range history {
		out = append(out, agent.CompletionMessage{
			Role:        string(m.Role),
			Content:     m.Content,
			ToolCalls:   m.ToolCalls,
			ToolResults: m.ToolResults,
			Attachments: m.Attachments,
		})
	}
	return out
}
