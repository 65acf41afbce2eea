package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/corehive/agentcore/internal/agent"
	"github.com/corehive/agentcore/internal/config"
	"github.com/corehive/agentcore/internal/roles"
	"github.com/corehive/agentcore/pkg/models"
	"go.opentelemetry.io/otel/trace"
)

const stoppedContent = "stopped"

// dispatchLoop implements spec §4.3.2: expand any multicall meta-tool, push
// the assistant message, execute every outstanding tool call, inject the
// role's reminder, and keep calling the model until a response carries no
// further tool calls.
func (e *Engine) dispatchLoop(ctx context.Context, conv *Conversation, provider agent.LLMProvider, variant config.ModelVariant, role *roles.Role, assistant *models.Message) (string, error) {
	for {
		e.expandMulticall(ctx, conv, assistant)
		e.pushMessage(conv, assistant)

		conv.mu.Lock()
		conv.state = StateProcessingTools
		conv.mu.Unlock()

		pending := len(assistant.ToolCalls)

		conv.mu.Lock()
		limit := conv.budgetLimit
		counter := conv.toolCounter
		conv.mu.Unlock()

		if counter+pending > limit {
			if e.Hooks.OnBudgetExceeded == nil {
				e.toIdle(conv)
				return "", ErrBudgetExceededFatal
			}
			if e.Hooks.OnBudgetExceeded(conv.ID, limit) {
				conv.mu.Lock()
				conv.budgetLimit += limit
				conv.mu.Unlock()
			} else {
				content := assistant.Content
				if content == "" {
					content = stoppedContent
				}
				e.toIdle(conv)
				return content, nil
			}
		}

		conv.mu.Lock()
		conv.toolCounter += pending
		conv.mu.Unlock()

		for _, result := range e.executeCalls(ctx, conv, assistant.ToolCalls) {
			e.pushMessage(conv, &models.Message{
				Role:        models.RoleTool,
				ToolResults: []models.ToolResult{result},
				CreatedAt:   time.Now(),
			})
		}

		if role.Reminder != "" {
			reminder := role.Reminder
			if e.Hooks.OnReminder != nil {
				reminder = e.Hooks.OnReminder(conv.ID, reminder)
			}
			e.pushMessage(conv, &models.Message{Role: models.RoleUser, Content: reminder, CreatedAt: time.Now()})
		}

		conv.mu.Lock()
		conv.state = StateApiCalling
		conv.mu.Unlock()

		next, err := e.callOnce(ctx, conv, provider, variant, role, "")
		if err != nil {
			e.toIdle(conv)
			if e.Hooks.OnError != nil {
				e.Hooks.OnError(conv.ID, err)
			}
			return "", err
		}

		if len(next.ToolCalls) == 0 {
			e.pushMessage(conv, next)
			e.toIdle(conv)
			return next.Content, nil
		}

		assistant = next
	}
}

// executeCalls runs calls through executeOne, in parallel bounded by
// ToolParallelism (grounded on internal/agent/executor.go's semaphore
// pattern), or sequentially when ToolParallelism is 0 or 1. Results are
// returned in calls' original order regardless of completion order, so the
// pushed transcript stays deterministic.
func (e *Engine) executeCalls(ctx context.Context, conv *Conversation, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, len(calls))
	if e.ToolParallelism <= 1 || len(calls) <= 1 {
		for i, call := range calls {
			results[i] = e.executeOne(ctx, conv, call)
		}
		return results
	}

	sem := make(chan struct{}, e.ToolParallelism)
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, c models.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.executeOne(ctx, conv, c)
		}(i, call)
	}
	wg.Wait()
	return results
}

// executeOne runs a single tool call via the shared tool registry,
// bracketed by the optional execution hook (C9). A handler panic/error
// never fails the cycle (spec §4.3.3): it becomes an error tool-role
// message.
func (e *Engine) executeOne(ctx context.Context, conv *Conversation, call models.ToolCall) (result models.ToolResult) {
	if e.Tracer != nil {
		var span trace.Span
		ctx, span = e.Tracer.TraceToolExecution(ctx, call.Name)
		defer span.End()
	}
	if e.ExecutionHook != nil {
		if proceed, reason := e.ExecutionHook.Before(ctx, conv.ID, call); !proceed {
			if e.Logger != nil {
				e.Logger.Warn(ctx, "tool call blocked before execution", "tool", call.Name, "reason", reason)
			}
			return models.ToolResult{ToolCallID: call.ID, Content: "tool call denied: " + reason, IsError: true}
		}
	}
	started := time.Now()
	if e.Events != nil {
		e.Events.ToolStarted(ctx, call.ID, call.Name, call.Input)
	}
	defer func() {
		if r := recover(); r != nil {
			result = models.ToolResult{ToolCallID: call.ID, Content: fmt.Sprintf("Error: %v", r), IsError: true}
			if e.Logger != nil {
				e.Logger.Error(ctx, "tool call panicked", "tool", call.Name, "recovered", r)
			}
		}
		if result.IsError && e.Logger != nil {
			e.Logger.Warn(ctx, "tool call returned an error result", "tool", call.Name, "content", result.Content)
		}
		result = e.ResultGuard.Apply(call.Name, result, nil)
		if e.Events != nil {
			e.Events.ToolFinished(ctx, call.ID, call.Name, !result.IsError, nil, time.Since(started))
		}
		if e.ExecutionHook != nil {
			e.ExecutionHook.After(ctx, conv.ID, call, result)
		}
	}()

	if e.Approval != nil {
		switch decision, reason := e.Approval.Check(ctx, conv.ID, call); decision {
		case agent.ApprovalDenied:
			return models.ToolResult{ToolCallID: call.ID, Content: "tool call denied: " + reason, IsError: true}
		case agent.ApprovalPending:
			if _, reqErr := e.Approval.CreateApprovalRequest(ctx, conv.ID, conv.ID, call, reason); reqErr != nil && e.Logger != nil {
				e.Logger.Warn(ctx, "failed to record pending approval request", "tool", call.Name, "error", reqErr)
			}
			return models.ToolResult{ToolCallID: call.ID, Content: "tool call requires approval: " + reason, IsError: true}
		}
	}

	if e.ToolExecutor != nil {
		execRes := e.ToolExecutor.Execute(ctx, call)
		if execRes.Error != nil {
			return models.ToolResult{ToolCallID: call.ID, Content: "Error: " + execRes.Error.Error(), IsError: true}
		}
		return models.ToolResult{ToolCallID: call.ID, Content: execRes.Result.Content, IsError: execRes.Result.IsError}
	}

	out, err := e.Tools.Execute(ctx, call.Name, call.Input)
	if err != nil {
		return models.ToolResult{ToolCallID: call.ID, Content: "Error: " + err.Error(), IsError: true}
	}
	return models.ToolResult{ToolCallID: call.ID, Content: out.Content, IsError: out.IsError}
}

// multicallExpansion is the shape a multicall tool result's content must
// parse as for its expansion to be accepted (spec §4.3.2).
type multicallExpansion struct {
	ExpandedToolCalls []expandedCall `json:"expanded_tool_calls"`
}

type expandedCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// expandMulticall replaces a single "multicall" tool call in assistant's
// tool-call list with the validated calls from its expansion. A malformed
// expansion leaves the original multicall call untouched.
func (e *Engine) expandMulticall(ctx context.Context, conv *Conversation, assistant *models.Message) {
	idx := -1
	for i, c := range assistant.ToolCalls {
		if c.Name == multicallToolName {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	call := assistant.ToolCalls[idx]
	result := e.executeOne(ctx, conv, call)
	if result.IsError {
		return
	}

	var parsed multicallExpansion
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		return
	}
	if len(parsed.ExpandedToolCalls) == 0 {
		return
	}
	for _, ec := range parsed.ExpandedToolCalls {
		if ec.ID == "" || ec.Function.Name == "" {
			return
		}
	}

	expanded := make([]models.ToolCall, len(parsed.ExpandedToolCalls))
	for i, ec := range parsed.ExpandedToolCalls {
		expanded[i] = models.ToolCall{ID: ec.ID, Name: ec.Function.Name, Input: ec.Function.Arguments}
	}

	calls := make([]models.ToolCall, 0, len(assistant.ToolCalls)-1+len(expanded))
	calls = append(calls, assistant.ToolCalls[:idx]...)
	calls = append(calls, expanded...)
	calls = append(calls, assistant.ToolCalls[idx+1:]...)
	assistant.ToolCalls = calls
}
