package docsite

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
)

// lastCommitTime returns the newest commit time touching any of paths.
// ok is false when none of the paths is tracked in a git repository.
func lastCommitTime(paths ...string) (latest time.Time, ok bool) {
	for _, p := range paths {
		when, err := fileCommitTime(p)
		if err != nil {
			continue
		}
		if !ok || when.After(latest) {
			latest, ok = when, true
		}
	}
	return latest, ok
}

func fileCommitTime(path string) (time.Time, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, err
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return time.Time{}, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return time.Time{}, fmt.Errorf("open worktree: %w", err)
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return time.Time{}, err
	}
	rel = filepath.ToSlash(rel)

	iter, err := repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()
	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, fmt.Errorf("no commit touches %s: %w", rel, err)
	}
	return commit.Committer.When, nil
}
