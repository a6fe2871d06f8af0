package tools

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/observability"
)

// Command is one external program invocation.
type Command struct {
	Name string   // program name or path
	Args []string // arguments, not including Name
	Dir  string   // working directory; empty means inherit
}

// String renders the command for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec. Failed invocations are retried
// Retries extra times with exponential backoff starting at RetryDelay.
type ExecRunner struct {
	Logger     *log.Logger
	Retries    int
	RetryDelay time.Duration

	lookPath func(string) (string, error)
}

// NewExecRunner creates a runner. A nil logger discards output.
func NewExecRunner(logger *log.Logger, retries int) *ExecRunner {
	if logger == nil {
		logger = log.New(nil)
		logger.SetLevel(log.FatalLevel)
	}
	return &ExecRunner{
		Logger:     logger,
		Retries:    retries,
		RetryDelay: time.Second,
		lookPath:   exec.LookPath,
	}
}

// Run executes cmd and waits for it. The tool's stderr is carried in the
// returned error so the renderer's own diagnostic reaches the operator.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(cmd.Name); err != nil {
		return errors.Wrap(errors.ErrCodeToolNotFound, err, "%s not found on PATH", cmd.Name)
	}

	attempt := 0
	return Retry(ctx, r.Retries+1, r.RetryDelay, func() error {
		attempt++
		if attempt > 1 {
			r.Logger.Warn("retrying tool", "tool", cmd.Name, "attempt", attempt)
		}
		return r.runOnce(ctx, cmd)
	})
}

func (r *ExecRunner) runOnce(ctx context.Context, cmd Command) error {
	r.Logger.Debug("exec", "cmd", cmd.String(), "dir", cmd.Dir)
	observability.Tool().OnToolStart(ctx, cmd.Name, cmd.Args)
	start := time.Now()

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var out, errBuf bytes.Buffer
	c.Stdout = &out
	c.Stderr = &errBuf

	err := c.Run()
	observability.Tool().OnToolComplete(ctx, cmd.Name, time.Since(start), err)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	msg := strings.TrimSpace(errBuf.String())
	if msg == "" {
		msg = strings.TrimSpace(out.String())
	}
	return &RetryableError{Err: errors.Wrap(errors.ErrCodeToolFailed, err, "%s: %s", cmd.String(), msg)}
}

// Available reports whether name resolves to an executable.
func Available(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
