package agentmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corehive/agentcore/internal/agent"
	"github.com/corehive/agentcore/internal/capability"
	"github.com/corehive/agentcore/internal/config"
	"github.com/corehive/agentcore/internal/conversation"
	"github.com/corehive/agentcore/internal/roles"
)

const fixtureRoles = `{
  "supervisor": {
    "systemMessage": "You coordinate workers.",
    "level": "base",
    "enabledAgents": ["worker"]
  },
  "worker": {
    "systemMessage": "You do the work.",
    "level": "base"
  }
}`

func loadFixtureRegistry(t *testing.T) *roles.Registry {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "roles.json"), []byte(fixtureRoles), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := roles.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

type instantProvider struct{ text string }

func (p *instantProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	ch := make(chan *agent.CompletionChunk, 2)
	ch <- &agent.CompletionChunk{Text: p.text}
	ch <- &agent.CompletionChunk{Done: true}
	close(ch)
	return ch, nil
}

func (p *instantProvider) Name() string          { return "scripted" }
func (p *instantProvider) Models() []agent.Model { return nil }
func (p *instantProvider) SupportsTools() bool   { return true }

func newTestManager(t *testing.T, text string) *Manager {
	t.Helper()
	reg := loadFixtureRegistry(t)
	eng := &conversation.Engine{
		Roles:      reg,
		Capability: capability.Filter{},
		Tools:      agent.NewToolRegistry(),
		Providers:  map[string]agent.LLMProvider{"anthropic": &instantProvider{text: text}},
		Models: map[config.ModelLevel]config.ModelVariant{
			config.LevelBase: {Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
		},
		MaxTokens: 512,
	}
	return New(reg, eng, conversation.LevelBase, 10)
}

func TestSpawnRejectsUnauthorizedRole(t *testing.T) {
	m := newTestManager(t, "done")
	_, err := m.Spawn("parent-1", "worker", "supervisor", "try to escalate")
	if err != ErrUnauthorizedSpawn {
		t.Fatalf("expected ErrUnauthorizedSpawn, got %v", err)
	}
}

func TestSpawnRegistersAgentAndHierarchy(t *testing.T) {
	m := newTestManager(t, "done")
	ag, err := m.Spawn("parent-1", "supervisor", "worker", "build the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ag.Status != StatusActive {
		t.Fatalf("expected active status, got %s", ag.Status)
	}
	if ag.ParentAgentID != "parent-1" {
		t.Fatalf("unexpected parent id: %s", ag.ParentAgentID)
	}

	listed := m.List("parent-1", true)
	if len(listed) != 1 || listed[0].ID != ag.ID {
		t.Fatalf("expected spawned agent in parent's list, got %+v", listed)
	}
}

func TestSendMessageDrivesCycleToInactive(t *testing.T) {
	m := newTestManager(t, "task complete")
	ag, err := m.Spawn("parent-1", "supervisor", "worker", "build the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := m.SendMessage(context.Background(), ag.ID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.MessageSent || result.Status != StatusRunning {
		t.Fatalf("unexpected immediate result: %+v", result)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := m.GetStatus(ag.ID); st != nil && st.Status != StatusRunning {
			if st.Status != StatusInactive {
				t.Fatalf("expected inactive after completion, got %s", st.Status)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for agent to finish its send cycle")
}

func TestSendMessageRejectsWhileRunning(t *testing.T) {
	m := newTestManager(t, "done")
	ag, err := m.Spawn("parent-1", "supervisor", "worker", "build the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.mu.Lock()
	m.agents[ag.ID].Status = StatusRunning
	m.mu.Unlock()

	if _, err := m.SendMessage(context.Background(), ag.ID, "go"); err != ErrAgentBusy {
		t.Fatalf("expected ErrAgentBusy, got %v", err)
	}
}

func TestGetStatusUnknownAgentReturnsNil(t *testing.T) {
	m := newTestManager(t, "done")
	if st := m.GetStatus("does-not-exist"); st != nil {
		t.Fatalf("expected nil for unknown agent, got %+v", st)
	}
}

func TestReportResultMarksCompleted(t *testing.T) {
	m := newTestManager(t, "done")
	ag, err := m.Spawn("parent-1", "supervisor", "worker", "build the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := Result{Status: "success", Summary: "finished early"}
	if err := m.ReportResult(ag.ID, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := m.GetStatus(ag.ID)
	if st.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", st.Status)
	}
	if st.Result == nil || st.Result.Summary != "finished early" {
		t.Fatalf("unexpected result: %+v", st.Result)
	}

	listed := m.List("parent-1", false)
	if len(listed) != 0 {
		t.Fatalf("expected completed agent excluded when includeCompleted=false, got %+v", listed)
	}
}

func TestReportResultUnknownAgentErrors(t *testing.T) {
	m := newTestManager(t, "done")
	if err := m.ReportResult("missing", Result{Status: "success"}); err != ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestResetClearsState(t *testing.T) {
	m := newTestManager(t, "done")
	if _, err := m.Spawn("parent-1", "supervisor", "worker", "build the thing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Reset()

	if listed := m.List("parent-1", true); len(listed) != 0 {
		t.Fatalf("expected empty list after reset, got %+v", listed)
	}
}
