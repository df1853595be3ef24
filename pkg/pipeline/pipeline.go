// Package pipeline runs the external toolchain programs that turn an
// installer definition into a signed installer. Each invocation is a
// Stage; running one produces a Result with the raw exit status and
// captured output. Interpreting the exit status is the caller's job.
package pipeline

import "time"

// StageName identifies one of the toolchain invocations.
type StageName string

const (
	Compile StageName = "compile"
	Link    StageName = "link"
	Sign    StageName = "sign"
)

// Stage describes a single external tool invocation. Stages are built
// per run and never persisted.
type Stage struct {
	Name    StageName
	Exe     string
	Args    []string
	Dir     string
	Inputs  []string
	Output  string
	Timeout time.Duration
}

// Result is the raw outcome of running a stage.
type Result struct {
	Stage    StageName
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Ok reports whether the tool exited zero.
func (r *Result) Ok() bool {
	return r.ExitCode == 0
}
