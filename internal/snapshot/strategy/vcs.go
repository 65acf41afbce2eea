package strategy

import "context"

// VCSClient is the external collaborator boundary for version-control
// subprocess invocation (spec §1 explicitly places "version-control
// subprocess invocation" out of the core's scope; this interface is the
// specified interface boundary).
type VCSClient interface {
	// Available reports whether the vcs binary can be invoked at all.
	Available(ctx context.Context) bool
	// IsRepository reports whether the working directory is inside a
	// version-controlled repository.
	IsRepository(ctx context.Context) bool
	// CreateBranch creates branch, which must already be a sanitized name.
	CreateBranch(ctx context.Context, branch string) error
	// Commit writes files to branch and returns the resulting commit hash.
	// message has already been sanitized per spec §6.
	Commit(ctx context.Context, branch, message string, files map[string][]byte) (commitHash string, err error)
	// ReadFile returns the content of path as of commitHash.
	ReadFile(ctx context.Context, commitHash, path string) ([]byte, error)
}
