package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination keeps the export as a tracked file in a local clone and
// pushes a commit whenever its content changes.
type GitDestination struct {
	repo   string
	file   string // relative to repo
	branch string
}

// NewGitDestination returns a destination for an existing clone at repo.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Name() string { return "git" }

// Write replaces the export file and pushes a commit. An unchanged export
// produces no commit.
func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if err := d.git(ctx, "checkout", d.branch); err != nil {
		return fmt.Errorf("git checkout %s: %w", d.branch, err)
	}
	// Fails harmlessly when origin has no such branch yet.
	_ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := d.writeFile(data); err != nil {
		return err
	}
	if err := d.git(ctx, "add", "--", d.file); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if d.git(ctx, "diff", "--cached", "--quiet", "--", d.file) == nil {
		return nil
	}

	msg := fmt.Sprintf("sync: update catalogue export (%d records)", bytes.Count(data, []byte("\n")))
	for _, step := range [][]string{
		{"commit", "-m", msg},
		{"push", "origin", d.branch},
	} {
		if err := d.git(ctx, step...); err != nil {
			return fmt.Errorf("git %s: %w", step[0], err)
		}
	}
	return nil
}

func (d *GitDestination) writeFile(data []byte) error {
	path := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// git runs one git command in the clone. Its stderr is folded into the error.
func (d *GitDestination) git(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}
