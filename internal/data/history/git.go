package history

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// CommitInfo identifies the checked-out revision a run was recorded against.
type CommitInfo struct {
	Hash      string
	Timestamp time.Time
}

// ResolveCommit reads HEAD of the repository containing projectRoot. Outside a git
// checkout, or without a git binary, it returns the zero CommitInfo.
func ResolveCommit(ctx context.Context, projectRoot string) CommitInfo {
	hash := gitOutput(ctx, projectRoot, "rev-parse", "--short=12", "HEAD")
	if hash == "" {
		return CommitInfo{}
	}
	info := CommitInfo{Hash: hash}
	if raw := gitOutput(ctx, projectRoot, "show", "-s", "--format=%cI", "HEAD"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			info.Timestamp = ts.UTC()
		}
	}
	return info
}

func gitOutput(ctx context.Context, projectRoot string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", projectRoot}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
