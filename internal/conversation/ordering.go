package conversation

import "github.com/corehive/agentcore/pkg/models"

// normalizeOrdering enforces the message ordering invariant (spec §4.3.1):
// every tool-role message is moved to sit immediately after the assistant
// message that issued its call, in the same order as that assistant's
// toolCalls. Non-tool messages keep their relative order. Tool results with
// no matching assistant call are dropped, same as a stale-reference repair
// would. The operation is idempotent: running it again on its own output is
// a no-op because every tool message is already adjacent to its assistant
// in call order.
//
// Adapted from transcript_repair.go's pending-id bookkeeping, generalized
// from "drop anything out of order" to "move it to the right place".
func normalizeOrdering(history []*models.Message) []*models.Message {
	if len(history) == 0 {
		return history
	}

	toolByID := make(map[string]*models.Message)
	nonTool := make([]*models.Message, 0, len(history))

	for _, msg := range history {
		if msg == nil {
			continue
		}
		if msg.Role != models.RoleTool {
			nonTool = append(nonTool, msg)
			continue
		}
		for _, res := range msg.ToolResults {
			if res.ToolCallID == "" {
				continue
			}
			clone := *msg
			clone.ToolResults = []models.ToolResult{res}
			toolByID[res.ToolCallID] = &clone
		}
	}

	out := make([]*models.Message, 0, len(history))
	for _, msg := range nonTool {
		out = append(out, msg)
		if msg.Role != models.RoleAssistant || len(msg.ToolCalls) == 0 {
			continue
		}
		for _, call := range msg.ToolCalls {
			if call.ID == "" {
				continue
			}
			if tm, ok := toolByID[call.ID]; ok {
				out = append(out, tm)
				delete(toolByID, call.ID)
			}
		}
	}

	return out
}
