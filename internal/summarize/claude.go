package summarize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ClaudeCLI summarizes via the Claude Code CLI in print mode. The prompt is
// piped on stdin to avoid argument length limits.
type ClaudeCLI struct {
	// Path is the claude binary, default "claude".
	Path string
	// Model overrides the CLI's default model when set.
	Model string
	// Timeout bounds one summarization call, default 30s. A hung CLI must
	// never keep an enrichment goroutine alive indefinitely.
	Timeout time.Duration
}

func (c *ClaudeCLI) Summarize(ctx context.Context, message string) (string, error) {
	path := c.Path
	if path == "" {
		path = "claude"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-p"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(prompt + message)
	// Don't wait on orphaned grandchildren holding the output pipes open
	// after the CLI itself is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude timed out after %s: %w", timeout, ctx.Err())
		}
		slog.Debug("claude stderr", "stderr", truncate(stderr.String(), 500))
		return "", fmt.Errorf("running claude: %w", err)
	}

	summary := strings.TrimSpace(stdout.String())
	if summary == "" {
		return "", fmt.Errorf("claude produced empty output")
	}

	slog.Debug("summary produced", "duration", time.Since(start), "length", len(summary))
	return summary, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
