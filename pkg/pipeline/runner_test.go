package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// helperCommandContext re-executes the test binary so TestHelperProcess
// can stand in for the toolchain executables.
func helperCommandContext(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "no command")
		os.Exit(2)
	}

	switch args[0] {
	case "tool-ok":
		fmt.Println("all good")
		os.Exit(0)
	case "tool-fail":
		fmt.Fprintln(os.Stderr, "error CNDL0104 : Not a valid source file")
		os.Exit(1)
	case "tool-slow":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown helper command %q\n", args[0])
		os.Exit(2)
	}
}

func stubRunner(opts ...RunnerOpt) *Runner {
	opts = append(opts,
		WithExec(helperCommandContext),
		WithLookPath(func(exe string) (string, error) { return exe, nil }),
	)
	return NewRunner(opts...)
}

func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	result, err := stubRunner().Run(context.Background(), &Stage{
		Name: Compile,
		Exe:  "tool-ok",
		Args: []string{"-nologo"},
	})
	require.NoError(t, err)

	require.True(t, result.Ok())
	require.Equal(t, Compile, result.Stage)
	require.Equal(t, "all good", result.Stdout)
	require.Empty(t, result.Stderr)
}

func TestRunReportsRawExitStatus(t *testing.T) {
	t.Parallel()

	result, err := stubRunner().Run(context.Background(), &Stage{
		Name: Link,
		Exe:  "tool-fail",
	})
	require.NoError(t, err, "a non-zero exit is a result, not a runner error")

	require.False(t, result.Ok())
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.Stderr, "CNDL0104")
}

func TestRunTimeout(t *testing.T) {
	t.Parallel()

	_, err := stubRunner().Run(context.Background(), &Stage{
		Name:    Compile,
		Exe:     "tool-slow",
		Timeout: 250 * time.Millisecond,
	})
	require.Error(t, err)

	timeoutErr, ok := err.(*TimeoutError)
	require.True(t, ok, "expected TimeoutError, got %T: %v", err, err)
	require.Equal(t, Compile, timeoutErr.Stage)
}

func TestRunParentDeadlineIsNotAStageTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	_, err := stubRunner().Run(ctx, &Stage{
		Name: Compile,
		Exe:  "tool-slow",
	})
	require.Error(t, err)

	_, ok := err.(*TimeoutError)
	require.False(t, ok, "caller cancellation must not be reported as a stage timeout: %v", err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()

	_, err := stubRunner().Run(context.Background(), &Stage{
		Name:   Link,
		Exe:    "tool-ok",
		Inputs: []string{"/nonexistent/demo.wixobj"},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunToolchainNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewRunner().Run(context.Background(), &Stage{
		Name: Sign,
		Exe:  "an-executable-that-does-not-exist",
	})
	require.Error(t, err)

	notFound, ok := err.(*ToolchainNotFoundError)
	require.True(t, ok, "expected ToolchainNotFoundError, got %T", err)
	require.Equal(t, Sign, notFound.Stage)
}
