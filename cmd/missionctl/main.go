// Command missionctl is the mission-control CLI client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/openclaw/missionctl/internal/version"
)

const defaultServer = "http://localhost:3001"

func main() {
	serverURL := flag.String("server", defaultServer, "mission-control server URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cli := &Client{
		BaseURL:    strings.TrimRight(*serverURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "version":
		err = cmdVersion(rest)
	case "status":
		err = cli.cmdStatus(rest)
	case "tasks":
		err = cli.cmdTasks(rest)
	case "task":
		err = cli.cmdTask(rest)
	case "agents":
		err = cli.cmdAgents(rest)
	case "agent":
		err = cli.cmdAgent(rest)
	case "queue":
		err = cli.cmdQueue(rest)
	case "reconcile":
		err = cli.cmdReconcile(rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `missionctl — Mission Control CLI

Usage:
  missionctl [flags] <command> [args]

Flags:
  --server  <url>    server URL (default: http://localhost:3001)

Commands:
  version                     print version
  status                      show server health
  tasks [status]              list tasks, optionally filtered by status
  task get <id>               show one task
  task create <id> <title>    create a task
  task archive <id>           archive a task
  agents                      list agents
  agent <name>                show one agent card
  queue                       show the task queue mirror
  reconcile                   diff store vs queue mirror
`)
}

// --- version ---

func cmdVersion(_ []string) error {
	fmt.Printf("missionctl %s (commit %s, built %s)\n",
		version.Version, version.Commit, version.BuildDate)
	return nil
}

// Client holds HTTP client state for CLI commands.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// get performs a GET and decodes JSON into v.
func (c *Client) get(path string, v any) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// do performs a request with a JSON body and decodes the response into v
// (may be nil).
func (c *Client) do(method, path string, body io.Reader, v any) error {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if v != nil && resp.ContentLength != 0 {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// --- status ---

func (c *Client) cmdStatus(_ []string) error {
	var result map[string]any
	if err := c.get("/health", &result); err != nil {
		return err
	}
	fmt.Printf("status:  %s\n", strVal(result["status"]))
	fmt.Printf("version: %s\n", strVal(result["version"]))
	fmt.Printf("uptime:  %ss\n", strVal(result["uptime"]))
	return nil
}

// --- tasks ---

func (c *Client) cmdTasks(args []string) error {
	path := "/api/v1/tasks"
	if len(args) > 0 {
		path += "?status=" + url.QueryEscape(args[0])
	}
	var result struct {
		Tasks []map[string]any `json:"tasks"`
	}
	if err := c.get(path, &result); err != nil {
		return err
	}
	if len(result.Tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}
	fmt.Printf("%-10s %-40s %-14s %-10s %-12s\n", "ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE")
	fmt.Println(strings.Repeat("-", 90))
	for _, t := range result.Tasks {
		fmt.Printf("%-10s %-40s %-14s %-10s %-12s\n",
			strVal(t["id"]),
			truncate(strVal(t["title"]), 39),
			strVal(t["status"]),
			strVal(t["priority"]),
			strVal(t["assignee"]),
		)
	}
	return nil
}

// --- task subcommands ---

func (c *Client) cmdTask(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: missionctl task <get|create|archive> ...")
		os.Exit(1)
	}
	sub := args[0]
	switch sub {
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: missionctl task get <id>")
		}
		var t map[string]any
		if err := c.get("/api/v1/tasks/"+url.PathEscape(args[1]), &t); err != nil {
			return err
		}
		out, _ := json.MarshalIndent(t, "", "  ")
		fmt.Println(string(out))
	case "create":
		if len(args) < 3 {
			return fmt.Errorf("usage: missionctl task create <id> <title>")
		}
		id := args[1]
		title := strings.Join(args[2:], " ")
		body := fmt.Sprintf(`{"id":%q,"title":%q}`, id, title)
		var result map[string]any
		if err := c.do(http.MethodPost, "/api/v1/tasks", strings.NewReader(body), &result); err != nil {
			return err
		}
		fmt.Printf("created task %s\n", strVal(result["id"]))
	case "archive":
		if len(args) < 2 {
			return fmt.Errorf("usage: missionctl task archive <id>")
		}
		if err := c.do(http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(args[1]), nil, nil); err != nil {
			return err
		}
		fmt.Printf("archived task %s\n", args[1])
	default:
		return fmt.Errorf("unknown task subcommand: %s", sub)
	}
	return nil
}

// --- agents ---

func (c *Client) cmdAgents(_ []string) error {
	var result struct {
		Agents []map[string]any `json:"agents"`
	}
	if err := c.get("/api/v1/agents", &result); err != nil {
		return err
	}
	if len(result.Agents) == 0 {
		fmt.Println("no agents")
		return nil
	}
	fmt.Printf("%-16s %-12s %-40s\n", "NAME", "STATE", "CURRENT TASK")
	fmt.Println(strings.Repeat("-", 70))
	for _, a := range result.Agents {
		fmt.Printf("%-16s %-12s %-40s\n",
			strVal(a["name"]),
			strVal(a["state"]),
			truncate(strVal(a["current_task"]), 39),
		)
	}
	return nil
}

func (c *Client) cmdAgent(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: missionctl agent <name>")
		os.Exit(1)
	}
	var doc struct {
		Card string `json:"card"`
	}
	if err := c.get("/api/v1/agents/"+url.PathEscape(args[0]), &doc); err != nil {
		return err
	}
	fmt.Print(doc.Card)
	return nil
}

// --- queue ---

func (c *Client) cmdQueue(_ []string) error {
	var result struct {
		Tasks []map[string]any `json:"tasks"`
		File  string           `json:"file"`
	}
	if err := c.get("/api/v1/sync/tasks", &result); err != nil {
		return err
	}
	fmt.Printf("queue file: %s\n\n", result.File)
	if len(result.Tasks) == 0 {
		fmt.Println("no queue entries")
		return nil
	}
	fmt.Printf("%-10s %-34s %-12s %-14s %s\n", "ID", "TITLE", "ASSIGNEE", "STATUS", "NOTES")
	fmt.Println(strings.Repeat("-", 92))
	for _, t := range result.Tasks {
		fmt.Printf("%-10s %-34s %-12s %-14s %s\n",
			strVal(t["id"]),
			truncate(strVal(t["title"]), 33),
			strVal(t["assignee"]),
			strVal(t["status"]),
			strVal(t["notes"]),
		)
	}
	return nil
}

// --- reconcile ---

func (c *Client) cmdReconcile(_ []string) error {
	var report map[string]any
	if err := c.do(http.MethodPost, "/api/v1/sync/reconcile", nil, &report); err != nil {
		return err
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	return nil
}

// --- helpers ---

func strVal(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
