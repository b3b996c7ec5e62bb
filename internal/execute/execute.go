package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/jenkins-bootstrap/internal/logger"
)

// Runner abstracts external command execution so package-manager and service
// wrappers can be tested with fakes.
type Runner interface {
	Run(ctx context.Context, opts Options) (string, error)
}

// Options describe a single external command invocation.
type Options struct {
	// Command is the executable to run.
	Command string
	// Args are passed verbatim; no shell is involved.
	Args []string
	// Dir optionally sets the working directory.
	Dir string
	// Timeout bounds the command; zero means DefaultTimeout.
	Timeout time.Duration
	// Retries is the number of additional attempts after a failure.
	Retries int
	// Delay is the pause between retry attempts.
	Delay time.Duration
	// DryRun logs the command without executing it.
	DryRun bool
}

// DefaultTimeout bounds commands whose options carry no explicit timeout.
const DefaultTimeout = 5 * time.Minute

// errEmptyCommand is returned when Options carry no executable name.
var errEmptyCommand = errors.New("command must be provided")

// OSRunner executes commands on the local host.
type OSRunner struct{}

// NewOSRunner returns a Runner backed by os/exec.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run executes the command, retrying on failure when requested, and returns
// the combined output of the last attempt.
func (r *OSRunner) Run(ctx context.Context, opts Options) (string, error) {
	if opts.Command == "" {
		return "", errEmptyCommand
	}

	commandLine := commandString(opts)

	if opts.DryRun {
		logger.InfoKV(ctx, "Dry run, command not executed", "command", commandLine)
		return "", nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attempts := opts.Retries + 1

	var (
		output string
		err    error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		output, err = r.runOnce(ctx, opts, timeout)
		if err == nil {
			logger.DebugKV(ctx, "Command succeeded", "command", commandLine, "attempt", attempt)
			return output, nil
		}

		logger.WarnKV(ctx, "Command failed",
			"command", commandLine, "attempt", attempt, "error", err)

		if attempt < attempts && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return output, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	return output, fmt.Errorf("%s after %d attempts: %w", commandLine, attempts, err)
}

// runOnce executes a single attempt with its own timeout.
func (r *OSRunner) runOnce(ctx context.Context, opts Options, timeout time.Duration) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, opts.Command, opts.Args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var buf bytes.Buffer

	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := strings.TrimSpace(buf.String())

	if err != nil {
		return output, fmt.Errorf("run command: %w", err)
	}

	return output, nil
}

// commandString renders the invocation for logs.
func commandString(opts Options) string {
	if len(opts.Args) == 0 {
		return opts.Command
	}

	return opts.Command + " " + strings.Join(opts.Args, " ")
}
