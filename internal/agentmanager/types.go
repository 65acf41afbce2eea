// Package agentmanager implements the Agent Manager (C4): a process-wide
// registry of worker agents spawned by agentic roles, their parent/child
// hierarchy, and the spawn/message/report lifecycle between them.
//
// Grounded on internal/tools/subagent/spawn.go (the Manager{mu, agents map,
// maxActive} shape and its Spawn/Get/List/Cancel lifecycle) and
// internal/multiagent/subagent_registry.go (the register/start/complete
// record lifecycle), generalized from a single flat id->SubAgent map
// running a fixed runtime to a parent/child hierarchy map driving a
// conversation.Engine per worker, per spec §4.4.
package agentmanager

import (
	"sync"
	"time"

	"github.com/corehive/agentcore/internal/conversation"
)

// Status is an agent's lifecycle status (spec §3 "Agent").
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is the payload a worker reports back to its parent (spec §4.4
// reportResult).
type Result struct {
	Status      string   `json:"status"`
	Summary     string   `json:"summary"`
	Artifacts   []string `json:"artifacts,omitempty"`
	KnownIssues []string `json:"known_issues,omitempty"`
}

// Agent is a spawned worker: its identity, owned conversation, and outcome.
// Owned exclusively by the Manager; a parent holds only the child's ID.
type Agent struct {
	ID              string
	RoleSpec        string
	ParentAgentID   string
	TaskDescription string
	Status          Status
	Result          *Result
	CreatedAt       time.Time

	// Conv is the worker's own Conversation State Machine instance. A
	// Manager method holding the lock must never call into Conv directly;
	// SendMessage copies what it needs and releases the lock first.
	Conv *conversation.Conversation
}

// snapshot returns a shallow copy safe to hand to callers outside the lock.
func (a *Agent) snapshot() *Agent {
	cp := *a
	if a.Result != nil {
		r := *a.Result
		cp.Result = &r
	}
	return &cp
}
