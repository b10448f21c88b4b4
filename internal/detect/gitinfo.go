package detect

import (
	git "github.com/go-git/go-git/v5"

	"github.com/mosaichq/rulegen/pkg/logger"
)

// GitInfo is the repository context included in the profile when the target
// directory is inside a git work tree.
type GitInfo struct {
	Branch string `json:"branch,omitempty"`
	SHA    string `json:"sha,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// collectGitInfo returns nil when dir is not a repository or the repository
// cannot be read; git context is an enrichment, never a requirement.
func collectGitInfo(dir string) *GitInfo {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}

	head, err := repo.Head()
	if err != nil {
		return nil
	}

	info := &GitInfo{SHA: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			info.Dirty = !status.IsClean()
		}
	}

	logger.Debug("collected git context",
		logger.String("branch", info.Branch),
		logger.Bool("dirty", info.Dirty))
	return info
}
