package conversation

import "errors"

// Error kinds from spec §7 that originate within the send cycle.
var (
	ErrNotIdle              = errors.New("conversation: send rejected, state is not idle")
	ErrParsingToolMixed     = errors.New("conversation: response mixes parsing and non-parsing tool calls")
	ErrParseHandlerMissing  = errors.New("conversation: role declares a parsing tool but no parse handler is configured")
	ErrBudgetExceededFatal  = errors.New("conversation: tool-call budget exceeded and no onBudgetExceeded callback is configured")
)

// ToolExecutionError wraps a tool handler's panic or returned error. It is
// never fatal to the cycle (spec §7): the caller converts it into an error
// tool-role message and continues.
type ToolExecutionError struct {
	ToolName string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	return "tool execution error (" + e.ToolName + "): " + e.Err.Error()
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }
