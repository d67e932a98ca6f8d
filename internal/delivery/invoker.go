package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Error kinds reported in Result.ErrorKind
const (
	KindTimeout        = "timeout"
	KindExecFailed     = "bot_execution_failed"
	KindScriptNotFound = "bot_script_not_found"
)

const (
	DefaultTimeout      = 90 * time.Second
	DefaultProbeTimeout = 30 * time.Second
)

// Result is the outcome of one currency transfer
type Result struct {
	Success   bool
	Message   string
	ErrorKind string
}

// ProbeResult is the outcome of a connectivity check
type ProbeResult struct {
	Connected bool
	Message   string
}

// Credentials identify the in-game account that pays out currency
type Credentials struct {
	BotUsername string
	Password    string
	Server      string
	Port        int
	Anarchy     string
}

// Config describes how to launch the delivery script
type Config struct {
	NodeBinary   string
	ScriptPath   string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// Invoker shells out to the delivery script. Calls block until the script exits.
type Invoker struct {
	cfg    Config
	creds  func() Credentials
	runner Runner
	log    *slog.Logger
}

// New creates an Invoker. creds is consulted on every call so settings edits apply immediately.
func New(cfg Config, creds func() Credentials, runner Runner, log *slog.Logger) *Invoker {
	if cfg.NodeBinary == "" {
		cfg.NodeBinary = "node"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Invoker{cfg: cfg, creds: creds, runner: runner, log: log}
}

// Deliver transfers amount coins to username
func (i *Invoker) Deliver(ctx context.Context, username string, amount int64) Result {
	log := i.log.With("username", username, "amount", amount)
	log.Info("starting delivery")

	if _, err := os.Stat(i.cfg.ScriptPath); err != nil {
		log.Error("delivery script not found", "path", i.cfg.ScriptPath)
		return Result{
			Message:   "delivery script not found: " + i.cfg.ScriptPath,
			ErrorKind: KindScriptNotFound,
		}
	}

	c := i.creds()
	amountArg := strconv.FormatInt(amount, 10)
	full := []string{
		i.cfg.ScriptPath, username, amountArg,
		c.BotUsername, c.Password, c.Server, strconv.Itoa(c.Port), c.Anarchy,
	}

	out, err := i.run(ctx, i.cfg.Timeout, full...)
	if err != nil || out.ExitCode != 0 {
		log.Warn("full invocation failed, retrying with short arguments",
			"error", err,
			"exit_code", out.ExitCode,
		)

		out, err = i.run(ctx, i.cfg.Timeout, i.cfg.ScriptPath, username, amountArg)
		if errors.Is(err, ErrTimeout) {
			log.Error("delivery timed out", "timeout", i.cfg.Timeout)
			return Result{Message: "delivery script timed out", ErrorKind: KindTimeout}
		}
		if err != nil {
			log.Error("launch delivery script", "error", err)
			return Result{Message: err.Error(), ErrorKind: KindExecFailed}
		}
	}

	log.Info("delivery script finished", "exit_code", out.ExitCode, "stdout", out.Stdout)
	if out.Stderr != "" {
		log.Debug("delivery script stderr", "stderr", out.Stderr)
	}

	return interpret(out)
}

// Probe checks that the script can log into the game server
func (i *Invoker) Probe(ctx context.Context) ProbeResult {
	if _, err := os.Stat(i.cfg.ScriptPath); err != nil {
		return ProbeResult{Message: "delivery script not found: " + i.cfg.ScriptPath}
	}

	out, err := i.run(ctx, i.cfg.ProbeTimeout, i.cfg.ScriptPath, "test")
	if errors.Is(err, ErrTimeout) {
		i.log.Warn("probe timed out")
		return ProbeResult{Message: "probe timed out"}
	}
	if err != nil {
		i.log.Error("launch probe", "error", err)
		return ProbeResult{Message: err.Error()}
	}
	if out.ExitCode != 0 {
		i.log.Error("probe failed", "exit_code", out.ExitCode, "stderr", out.Stderr)
		if r, ok := parseScriptResult(out.Stdout); ok && r.Message != "" {
			return ProbeResult{Message: r.Message}
		}
		return ProbeResult{Message: truncate(out.Stderr, 200)}
	}

	r, ok := parseScriptResult(out.Stdout)
	if !ok {
		return ProbeResult{
			Connected: strings.Contains(strings.ToLower(out.Stdout), "success"),
			Message:   "no status line in probe output",
		}
	}

	i.log.Info("probe finished", "success", r.Success, "connected", r.IsConnected)
	return ProbeResult{Connected: r.Success && r.IsConnected, Message: r.Message}
}

func (i *Invoker) run(ctx context.Context, timeout time.Duration, args ...string) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	i.log.Debug("running delivery script", "args", maskArgs(args))
	return i.runner.Run(ctx, i.cfg.NodeBinary, args...)
}

type scriptResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Error       string `json:"error"`
	IsConnected bool   `json:"isConnected"`
}

// parseScriptResult finds the last stdout line that is a JSON object with a "success" key
func parseScriptResult(stdout string) (scriptResult, bool) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for idx := len(lines) - 1; idx >= 0; idx-- {
		line := strings.TrimSpace(lines[idx])
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			continue
		}
		if _, ok := fields["success"]; !ok {
			continue
		}

		var r scriptResult
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			continue
		}
		return r, true
	}
	return scriptResult{}, false
}

func interpret(out Output) Result {
	r, ok := parseScriptResult(out.Stdout)

	if out.ExitCode == 0 {
		if !ok {
			return Result{Success: true, Message: "delivered (no status line)"}
		}
		if r.Success {
			return Result{Success: true, Message: orDefault(r.Message, "delivered")}
		}
		return Result{Message: orDefault(r.Message, "delivery failed"), ErrorKind: orDefault(r.Error, "unknown")}
	}

	if ok && !r.Success {
		return Result{Message: orDefault(r.Message, "delivery failed"), ErrorKind: orDefault(r.Error, KindExecFailed)}
	}

	msg := truncate(out.Stderr, 200)
	if msg == "" {
		msg = fmt.Sprintf("exit code %d", out.ExitCode)
	}
	return Result{Message: "delivery script failed: " + msg, ErrorKind: KindExecFailed}
}

// maskArgs hides the bot password in logged argument lists
func maskArgs(args []string) []string {
	out := append([]string(nil), args...)
	if len(out) >= 5 {
		out[4] = "***"
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
