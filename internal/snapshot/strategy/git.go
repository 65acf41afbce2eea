package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/corehive/agentcore/internal/retry"
	"github.com/corehive/agentcore/internal/snapshot"
)

// GitStrategy records snapshots as commits on a dedicated branch namespace
// (spec §4.6 "git"). VCS subprocess invocation itself is an external
// collaborator (spec §1); this strategy only ever calls it through the
// VCSClient interface, wrapped in a bounded-attempt linear-backoff retry
// (grounded on internal/retry.Linear).
type GitStrategy struct {
	client       VCSClient
	store        *snapshot.Store // indexing/dedup bookkeeping, mirrors the file strategy's model
	branchPrefix string
	retryConfig  retry.Config
}

// NewGitStrategy constructs a GitStrategy. store should be a Store
// dedicated to this strategy — per spec §4.6 "Snapshots do not migrate
// across strategies," git-mode and file-mode snapshots are never the same
// collection.
func NewGitStrategy(client VCSClient, store *snapshot.Store, branchPrefix string, attempts int) *GitStrategy {
	if branchPrefix == "" {
		branchPrefix = "agentcore-snapshot"
	}
	return &GitStrategy{
		client:       client,
		store:        store,
		branchPrefix: branchPrefix,
		retryConfig:  retry.Linear(maxInt(attempts, 1), 200*time.Millisecond),
	}
}

// Probe reports whether git mode is viable: the vcs binary is callable and
// the working directory is a repository. Any probe failure is treated as
// unavailable, never as an error (spec §4.6 "auto").
func (g *GitStrategy) Probe(ctx context.Context) bool {
	if g == nil || g.client == nil {
		return false
	}
	return g.client.Available(ctx) && g.client.IsRepository(ctx)
}

func (g *GitStrategy) Mode() snapshot.Mode { return snapshot.ModeGit }

func (g *GitStrategy) Create(ctx context.Context, instruction string, files []snapshot.InputFile) (*snapshot.Snapshot, error) {
	snap, err := g.store.Create(instruction, snapshot.ModeGit, files)
	if err != nil {
		return nil, err
	}

	branch, err := SanitizeBranchName(fmt.Sprintf("%s/%s-%s", g.branchPrefix, snap.ID, Slugify(instruction)))
	if err != nil {
		return nil, err
	}
	message := SanitizeCommitMessage(instruction)

	content := make(map[string][]byte, len(files))
	for _, f := range files {
		content[f.Path] = f.Content
	}

	result := retry.Do(ctx, g.retryConfig, func() error {
		if err := g.client.CreateBranch(ctx, branch); err != nil {
			return err
		}
		_, err := g.client.Commit(ctx, branch, message, content)
		return err
	})
	if result.Err != nil {
		// The commit failed, but the in-memory index already reflects the
		// snapshot; roll it back so Get/List don't surface a snapshot with
		// no backing commit.
		_ = g.store.Delete(snap.ID)
		return nil, fmt.Errorf("git snapshot commit failed after %d attempts: %w", result.Attempts, result.Err)
	}

	return snap, nil
}

func (g *GitStrategy) Get(id string, resolve bool) (*snapshot.Snapshot, error) {
	return g.store.Get(id, resolve)
}

func (g *GitStrategy) List(limit int) []*snapshot.Snapshot { return g.store.List(limit) }

func (g *GitStrategy) Delete(id string) error { return g.store.Delete(id) }

func (g *GitStrategy) Clear() { g.store.Clear() }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
