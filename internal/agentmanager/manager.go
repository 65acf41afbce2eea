package agentmanager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corehive/agentcore/internal/conversation"
	"github.com/corehive/agentcore/internal/roles"
)

// SendMessageResult is what sendMessage returns immediately, before the
// send cycle it kicked off has finished (spec §4.4 sendMessage).
type SendMessageResult struct {
	MessageSent bool   `json:"message_sent"`
	AgentID     string `json:"agent_id"`
	Status      Status `json:"status"`
}

// Manager is the process-wide Agent Manager (C4): a singleton holding every
// spawned worker agent and the parent->children hierarchy between them,
// under one lock (spec §4.4, §5 "mutated under a single lock").
type Manager struct {
	mu        sync.Mutex
	agents    map[string]*Agent
	hierarchy map[string]map[string]struct{}

	roles  *roles.Registry
	engine *conversation.Engine

	level  conversation.Level
	budget int
}

// New creates an empty Manager. engine drives every spawned worker's send
// cycle; roles resolves canSpawnAgent for every spawn (spec §4.4 invariant:
// "re-checked on every spawn").
func New(reg *roles.Registry, engine *conversation.Engine, level conversation.Level, budget int) *Manager {
	return &Manager{
		agents:    make(map[string]*Agent),
		hierarchy: make(map[string]map[string]struct{}),
		roles:     reg,
		engine:    engine,
		level:     level,
		budget:    budget,
	}
}

// Spawn creates a new worker agent under parentAgentID, owned by the role
// parentRoleSpec, running workerRoleSpec. It fails with
// ErrUnauthorizedSpawn unless the Role Registry's canSpawnAgent rule
// permits it (spec §4.4).
func (m *Manager) Spawn(parentAgentID, parentRoleSpec, workerRoleSpec, taskDescription string) (*Agent, error) {
	ok, err := m.roles.CanSpawnAgent(parentRoleSpec, workerRoleSpec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorizedSpawn
	}

	id := uuid.NewString()
	conv := conversation.New(id, workerRoleSpec, m.level, m.budget)
	conv.AppendUser(taskDescription)

	agent := &Agent{
		ID:              id,
		RoleSpec:        workerRoleSpec,
		ParentAgentID:   parentAgentID,
		TaskDescription: taskDescription,
		Status:          StatusActive,
		CreatedAt:       time.Now(),
		Conv:            conv,
	}

	m.mu.Lock()
	m.agents[id] = agent
	if m.hierarchy[parentAgentID] == nil {
		m.hierarchy[parentAgentID] = make(map[string]struct{})
	}
	m.hierarchy[parentAgentID][id] = struct{}{}
	m.mu.Unlock()

	return agent.snapshot(), nil
}

// SendMessage appends content as a user message (when non-empty) and drives
// the agent's send cycle asynchronously, returning immediately (spec §4.4
// sendMessage). The cycle runs detached from ctx, mirroring
// internal/tools/subagent/spawn.go's runSubAgent, which always finishes a
// started sub-agent run regardless of the caller's request lifetime.
func (m *Manager) SendMessage(ctx context.Context, agentID, content string) (SendMessageResult, error) {
	m.mu.Lock()
	agent, ok := m.agents[agentID]
	if !ok {
		m.mu.Unlock()
		return SendMessageResult{}, ErrAgentNotFound
	}
	if agent.Status == StatusRunning {
		m.mu.Unlock()
		return SendMessageResult{}, ErrAgentBusy
	}
	agent.Status = StatusRunning
	conv := agent.Conv
	m.mu.Unlock()

	go m.run(agentID, conv, content)

	return SendMessageResult{MessageSent: true, AgentID: agentID, Status: StatusRunning}, nil
}

func (m *Manager) run(agentID string, conv *conversation.Conversation, content string) {
	_, err := m.engine.Send(context.Background(), conv, content)

	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[agentID]
	if !ok {
		return
	}
	if err != nil {
		agent.Status = StatusFailed
		return
	}
	agent.Status = StatusInactive
}

// GetStatus returns a snapshot of the agent's current record, or nil if no
// such agent exists (spec §4.4 getStatus).
func (m *Manager) GetStatus(agentID string) *Agent {
	m.mu.Lock()
	defer m.mu.Unlock()
	agent, ok := m.agents[agentID]
	if !ok {
		return nil
	}
	return agent.snapshot()
}

// List returns the agents spawned directly by parentID, optionally
// excluding completed ones (spec §4.4 list).
func (m *Manager) List(parentID string, includeCompleted bool) []*Agent {
	m.mu.Lock()
	defer m.mu.Unlock()

	children := m.hierarchy[parentID]
	out := make([]*Agent, 0, len(children))
	for id := range children {
		agent := m.agents[id]
		if agent == nil {
			continue
		}
		if !includeCompleted && agent.Status == StatusCompleted {
			continue
		}
		out = append(out, agent.snapshot())
	}
	return out
}

// ReportResult marks workerID completed with the given result payload (spec
// §4.4 reportResult).
func (m *Manager) ReportResult(workerID string, result Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[workerID]
	if !ok {
		return ErrAgentNotFound
	}
	agent.Status = StatusCompleted
	r := result
	agent.Result = &r
	return nil
}

// Reset clears all agent and hierarchy state (spec §4.4 reset).
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = make(map[string]*Agent)
	m.hierarchy = make(map[string]map[string]struct{})
}
