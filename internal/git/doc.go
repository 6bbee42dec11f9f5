// Package git provides the repository side of smartpick.
//
// It wraps command execution and go-git for:
//   - Commit metadata: resolving revisions, ranges, ranks and file history (Provider)
//   - Applying commits: cherry-pick, conflict stages, resolution and abort (Gateway)
//   - Remote operations: fetch with retries
//
// This package should be the only place where git commands are executed.
package git
