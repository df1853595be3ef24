package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/msipack/msipack/pkg/contexts/ctxlog"
	"github.com/pkg/errors"
)

// Runner executes stages one at a time with a blocking wait. The
// exec and lookup hooks exist so tests can substitute stub
// executables.
type Runner struct {
	passthrough bool

	execCC   func(context.Context, string, ...string) *exec.Cmd
	lookPath func(string) (string, error)
}

type RunnerOpt func(*Runner)

// WithPassthrough mirrors tool output to our own stdout and stderr
// in addition to capturing it.
func WithPassthrough() RunnerOpt {
	return func(r *Runner) {
		r.passthrough = true
	}
}

// WithExec overrides process creation. Test use.
func WithExec(execCC func(context.Context, string, ...string) *exec.Cmd) RunnerOpt {
	return func(r *Runner) {
		r.execCC = execCC
	}
}

// WithLookPath overrides executable resolution. Test use.
func WithLookPath(lookPath func(string) (string, error)) RunnerOpt {
	return func(r *Runner) {
		r.lookPath = lookPath
	}
}

func NewRunner(opts ...RunnerOpt) *Runner {
	r := &Runner{
		execCC:   exec.CommandContext,
		lookPath: exec.LookPath,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run spawns the stage's executable and waits for it to finish. A
// non-zero exit is not an error here; it comes back in the Result for
// the caller to interpret. Errors are reserved for the process not
// running at all: unresolvable executable, timeout, spawn failure.
func (r *Runner) Run(ctx context.Context, stage *Stage) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	exe, err := r.lookPath(stage.Exe)
	if err != nil {
		return nil, &ToolchainNotFoundError{Stage: stage.Name, Exe: stage.Exe}
	}

	for _, input := range stage.Inputs {
		if _, err := os.Stat(input); err != nil {
			return nil, errors.Wrapf(err, "%s stage input", stage.Name)
		}
	}

	runCtx := ctx
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	cmd := r.execCC(runCtx, exe, stage.Args...)
	cmd.Dir = stage.Dir

	level.Debug(logger).Log(
		"msg", "execing",
		"stage", stage.Name,
		"cmd", strings.Join(cmd.Args, " "),
	)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd.Stdout, cmd.Stderr = stdout, stderr
	if r.passthrough {
		cmd.Stdout = io.MultiWriter(stdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(stderr, os.Stderr)
	}

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	// Only the stage's own deadline counts as a stage timeout; an
	// expired parent context is the caller's cancellation.
	if stage.Timeout > 0 && runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, &TimeoutError{Stage: stage.Name, After: stage.Timeout}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrapf(ctxErr, "%s stage interrupted", stage.Name)
	}

	result := &Result{
		Stage:   stage.Name,
		Stdout:  strings.TrimSpace(stdout.String()),
		Stderr:  strings.TrimSpace(stderr.String()),
		Elapsed: elapsed,
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, errors.Wrapf(err, "run command %s %v", stage.Exe, stage.Args)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}
