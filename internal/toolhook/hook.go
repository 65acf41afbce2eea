// Package toolhook implements the Tool-Execution Hook (C9): it brackets
// every tool call the Conversation State Machine (C3) dispatches, capturing
// file state before and after file-modifying tools and triggering snapshot
// creation through the Snapshot Manager (C10), per spec §4.8.
//
// Grounded on internal/agent/tool_exec.go's per-call instrumentation
// pattern (wrap dispatch, never let the wrapper's own bookkeeping fail the
// call) and internal/changedetect for the before/after capture-and-compare
// primitives themselves.
package toolhook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/corehive/agentcore/internal/agent"
	"github.com/corehive/agentcore/internal/changedetect"
	"github.com/corehive/agentcore/internal/observability"
	"github.com/corehive/agentcore/internal/snapshot"
	"github.com/corehive/agentcore/pkg/models"
	"golang.org/x/sync/singleflight"
)

// ApprovalGate is the per-tool approval policy consulted by Before for
// file-modifying tools, ahead of any capture or snapshot work (spec §C's
// approval-policy-hook supplement). *agent.ApprovalChecker satisfies this
// directly, so Before and the Conversation Engine's own dispatch-time check
// (conversation.Engine.Approval) consult the same policy rather than two
// competing ones.
type ApprovalGate interface {
	Check(ctx context.Context, conversationID string, call models.ToolCall) (agent.ApprovalDecision, string)
}

// SnapshotCreator is the subset of the Snapshot Manager (C10) the hook
// depends on, kept narrow so tests can fake it without a real Store/Factory.
// *snapshotmgr.Manager satisfies this interface directly.
type SnapshotCreator interface {
	CreateSnapshot(ctx context.Context, instruction string, files any, readFile func(string) ([]byte, error)) (*snapshot.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

type pendingCall struct {
	before     *changedetect.Capture
	snapshotID string
}

// Hook implements conversation.ExecutionHook. One Hook instance is shared
// across every tool call in a process; pendingCall state is keyed by
// call.ID so concurrent tool calls (spec §4.3.2's multicall expansion) never
// collide (spec §5 "mutated under a single lock" applied to this hook's own
// bookkeeping, independent of C3's or C4's locks).
type Hook struct {
	mu      sync.Mutex
	pending map[string]pendingCall

	// captures coalesces concurrent CaptureDir calls against the same cwd
	// (a multicall batch can run several file-modifying tools at once,
	// spec §4.3.2) into a single filesystem walk, grounded on
	// internal/infra/singleflight.go's duplicate-suppression pattern but
	// using the real golang.org/x/sync/singleflight package directly.
	captures singleflight.Group

	cwd                    string
	opts                   changedetect.Options
	manager                SnapshotCreator
	logger                 *observability.Logger
	elideEmptyDiffSnapshot bool
	approval               ApprovalGate
}

// SetApprovalGate installs the per-tool approval policy Before consults for
// file-modifying tools. A nil gate (the default) disables the check, so
// Before only captures state and creates snapshots, matching the previous
// behavior.
func (h *Hook) SetApprovalGate(gate ApprovalGate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.approval = gate
}

// New builds a Hook rooted at cwd. elideEmptyDiffSnapshot implements spec
// §4.8 step 3's optional behavior: when a tool declared it would modify
// files but produced an empty Change Set, delete the snapshot C10 already
// created in Before rather than keeping a no-op snapshot around.
func New(cwd string, opts changedetect.Options, manager SnapshotCreator, logger *observability.Logger, elideEmptyDiffSnapshot bool) *Hook {
	return &Hook{
		pending:                make(map[string]pendingCall),
		cwd:                    cwd,
		opts:                   opts,
		manager:                manager,
		logger:                 logger,
		elideEmptyDiffSnapshot: elideEmptyDiffSnapshot,
	}
}

// Before implements conversation.ExecutionHook (spec §4.8 step 1). A
// capture or snapshot-creation failure is logged, never returned: hook
// errors are never fatal to the tool call itself. The approval gate, when
// set, runs first: a denied file-modifying call never reaches capture or
// snapshot creation at all.
func (h *Hook) Before(ctx context.Context, conversationID string, call models.ToolCall) (bool, string) {
	if !ModifiesFiles(call.Name) {
		return true, ""
	}

	h.mu.Lock()
	gate := h.approval
	h.mu.Unlock()
	if gate != nil {
		if decision, reason := gate.Check(ctx, conversationID, call); decision == agent.ApprovalDenied {
			h.warn(ctx, "approval denied file-modifying tool before dispatch", "tool", call.Name, "reason", reason)
			return false, reason
		}
	}

	before, err := h.captureDir()
	if err != nil {
		h.warn(ctx, "pre-execution capture failed", "tool", call.Name, "error", err)
		return true, ""
	}

	entry := pendingCall{before: before}
	if h.manager != nil {
		snap, err := h.manager.CreateSnapshot(ctx, fmt.Sprintf("before %s", call.Name), nil, h.readFile)
		if err != nil {
			h.warn(ctx, "pre-execution snapshot creation failed", "tool", call.Name, "error", err)
		} else {
			entry.snapshotID = snap.ID
		}
	}

	h.mu.Lock()
	h.pending[call.ID] = entry
	h.mu.Unlock()
	return true, ""
}

// After implements conversation.ExecutionHook (spec §4.8 steps 3-4). It
// never mutates result: the inner dispatcher's error or content is already
// final by the time After runs (dispatch.go calls Before/After around, not
// in place of, the real Tools.Execute call).
func (h *Hook) After(ctx context.Context, conversationID string, call models.ToolCall, result models.ToolResult) {
	h.mu.Lock()
	entry, ok := h.pending[call.ID]
	delete(h.pending, call.ID)
	h.mu.Unlock()
	if !ok {
		return
	}

	after, err := h.captureDir()
	if err != nil {
		h.warn(ctx, "post-execution capture failed", "tool", call.Name, "error", err)
		return
	}

	changes := changedetect.Compare(entry.before, after, h.opts)
	changed := changedetect.ShouldCreateSnapshot(changes, h.opts.MinimumChangeSize)
	expectedModify := ModifiesFiles(call.Name)

	if expectedModify != changed {
		h.warn(ctx, "tool modify expectation mismatch", "tool", call.Name,
			"expected_modify", expectedModify, "observed_change", changed)
	}

	if expectedModify && !changed && h.elideEmptyDiffSnapshot && entry.snapshotID != "" && h.manager != nil {
		if err := h.manager.DeleteSnapshot(ctx, entry.snapshotID); err != nil {
			h.warn(ctx, "eliding empty-diff snapshot failed", "tool", call.Name, "error", err)
		}
	}
}

// captureDir coalesces concurrent captures of the same cwd into one walk;
// two tool calls in the same multicall batch that both trigger Before (or
// one's Before racing another's After) share the result instead of walking
// the tree twice.
func (h *Hook) captureDir() (*changedetect.Capture, error) {
	v, err, _ := h.captures.Do(h.cwd, func() (any, error) {
		return changedetect.CaptureDir(h.cwd, h.opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*changedetect.Capture), nil
}

func (h *Hook) readFile(path string) ([]byte, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(h.cwd, path)
	}
	return os.ReadFile(full)
}

func (h *Hook) warn(ctx context.Context, msg string, kv ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Warn(ctx, msg, kv...)
}
