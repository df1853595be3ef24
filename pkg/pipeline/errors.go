package pipeline

import (
	"fmt"
	"time"
)

// StageError reports a stage that ran and failed. It carries the
// diagnostics the tool printed so the caller can surface them
// verbatim.
type StageError struct {
	Stage    StageName
	ExitCode int
	Stderr   string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed with exit code %d\n%s", e.Stage, e.ExitCode, e.Stderr)
}

// TimeoutError reports a stage that was killed for exceeding its
// allotted time.
type TimeoutError struct {
	Stage StageName
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s stage timed out after %s", e.Stage, e.After)
}

// ToolchainNotFoundError reports a toolchain executable that could
// not be resolved on the search path.
type ToolchainNotFoundError struct {
	Stage StageName
	Exe   string
}

func (e *ToolchainNotFoundError) Error() string {
	return fmt.Sprintf("%s not found on PATH (needed for the %s stage); is the WiX toolset installed?", e.Exe, e.Stage)
}

// MissingArtifactError reports a tool that exited zero without
// producing its declared output. That is a toolchain consistency
// violation, never ignored.
type MissingArtifactError struct {
	Stage StageName
	Path  string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s stage reported success but %s is missing or empty", e.Stage, e.Path)
}
