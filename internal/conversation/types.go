// Package conversation implements the Conversation State Machine (C3): a
// single conversation's message history, processing state, tool budget, and
// send cycle against an abstract LLM provider.
//
// Grounded on internal/agent (Runtime, Executor, ToolRegistry, provider
// types) and internal/agent/transcript_repair.go for message-ordering
// repair, generalized from a single fixed runtime to a per-role, per-level
// conversation engine as required by the role registry and tool capability
// filter.
package conversation

import (
	"sync"
	"time"

	"github.com/corehive/agentcore/pkg/models"
)

// State is the processing state of a single conversation (spec §3).
type State string

const (
	StateIdle           State = "idle"
	StatePreparing       State = "preparing"
	StateApiCalling      State = "api_calling"
	StateProcessingTools State = "processing_tools"
	StateFinalizing      State = "finalizing"
)

// Level selects among a role's configured model variants.
type Level string

const (
	LevelBase  Level = "base"
	LevelSmart Level = "smart"
	LevelFast  Level = "fast"
)

// ParseResult is what a parse-response handler returns for a parsing-only
// tool call.
type ParseResult struct {
	Success bool
	Content string
}

// Conversation owns an ordered message history and the processing state
// that gates new sends (spec §3 "Processing State").
type Conversation struct {
	mu sync.Mutex

	ID       string
	RoleSpec string
	Level    Level

	history []*models.Message
	state   State

	// toolCounter is the per-cycle tool-call counter, reset at the start of
	// every Send (spec §4.3 step 1).
	toolCounter int

	// budgetLimit is raised (never lowered) when onBudgetExceeded approves
	// continuing past it (spec §4.3.2).
	budgetLimit int

	createdAt time.Time
}

// New creates an Idle conversation for the given role at the given model
// level with the given starting tool-call budget.
func New(id, roleSpec string, level Level, budgetLimit int) *Conversation {
	return &Conversation{
		ID:          id,
		RoleSpec:    roleSpec,
		Level:       level,
		state:       StateIdle,
		budgetLimit: budgetLimit,
		createdAt:   time.Now(),
	}
}

// State returns the current processing state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns a shallow copy of the message slice. Individual messages
// are not cloned; callers must not mutate them in place.
func (c *Conversation) History() []*models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Message, len(c.history))
	copy(out, c.history)
	return out
}

// AppendUser pushes a user message onto the history. Used both for the
// caller's input and for synthetic reminder/task-description messages.
func (c *Conversation) AppendUser(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, &models.Message{Role: models.RoleUser, Content: content, CreatedAt: time.Now()})
}

func (c *Conversation) hasSystemMessage() bool {
	return len(c.history) > 0 && c.history[0].Role == models.RoleSystem
}
