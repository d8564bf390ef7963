// Package cron surfaces the openclaw scheduler's cron jobs. It shells out to
// the openclaw CLI rather than talking to the gateway directly, so the
// dashboard stays decoupled from the scheduler's wire protocol.
package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrJobNotFound indicates no job matches the requested ID.
var ErrJobNotFound = errors.New("cron job not found")

// Note accompanies CLI failures so callers know where to look.
const Note = "ensure openclaw CLI is available and gateway is running"

// Job is one scheduled job as reported by the CLI.
type Job struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
	Enabled  bool   `json:"enabled"`
	LastRun  string `json:"last_run,omitempty"`
	NextRun  string `json:"next_run,omitempty"`
}

// Run is one execution record of a job.
type Run struct {
	ID         string `json:"id"`
	JobID      string `json:"job_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Output     string `json:"output,omitempty"`
}

// Client invokes the scheduler CLI. The binary name is configurable so tests
// can substitute a stub.
type Client struct {
	bin     string
	timeout time.Duration
}

// NewClient creates a Client for the given CLI binary name.
func NewClient(bin string) *Client {
	if bin == "" {
		bin = "openclaw"
	}
	return &Client{bin: bin, timeout: 30 * time.Second}
}

// Jobs lists all cron jobs.
func (c *Client) Jobs(ctx context.Context) ([]Job, error) {
	out, err := c.run(ctx, "cron", "list", "--json")
	if err != nil {
		return nil, err
	}
	var jobs []Job
	if err := json.Unmarshal(out, &jobs); err != nil {
		return nil, fmt.Errorf("parse cron list output: %w", err)
	}
	return jobs, nil
}

// Job returns a single job by ID.
func (c *Client) Job(ctx context.Context, id string) (*Job, error) {
	jobs, err := c.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], nil
		}
	}
	return nil, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
}

// Runs returns recent execution records for a job.
func (c *Client) Runs(ctx context.Context, id string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := c.run(ctx, "cron", "runs", id, "--limit", strconv.Itoa(limit), "--json")
	if err != nil {
		return nil, err
	}
	var runs []Run
	if err := json.Unmarshal(out, &runs); err != nil {
		return nil, fmt.Errorf("parse cron runs output: %w", err)
	}
	return runs, nil
}

// Trigger starts a job immediately and returns the CLI's output.
func (c *Client) Trigger(ctx context.Context, id string) (string, error) {
	out, err := c.run(ctx, "cron", "run", id)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Status returns the scheduler's status document.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	out, err := c.run(ctx, "cron", "status", "--json")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// run executes the CLI with a timeout. Warnings on stderr are tolerated;
// anything else fails the call.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s %s: %s", c.bin, strings.Join(args, " "), msg)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" && !strings.Contains(msg, "warning") {
		return nil, fmt.Errorf("%s %s: %s", c.bin, strings.Join(args, " "), msg)
	}
	return out, nil
}
