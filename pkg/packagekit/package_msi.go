package packagekit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-kit/kit/log/level"
	"github.com/msipack/msipack/pkg/contexts/ctxlog"
	"github.com/msipack/msipack/pkg/packagekit/authenticode"
	"github.com/msipack/msipack/pkg/pipeline"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Toolchain executable logical names. Resolution to real paths
// happens in the pipeline runner.
const (
	compilerExe = "candle"
	linkerExe   = "light"
	signerExe   = "signtool"
)

// BuildState tracks where the pipeline is. Failed is terminal and
// reachable from any in-progress state.
type BuildState string

const (
	StateInit      BuildState = "Init"
	StateCompiling BuildState = "Compiling"
	StateLinking   BuildState = "Linking"
	StateSigning   BuildState = "Signing"
	StateDone      BuildState = "Done"
	StateFailed    BuildState = "Failed"
)

// Packager drives one msi build. It is single use; make a new one per
// run.
type Packager struct {
	opts    *PackageOptions
	runner  *pipeline.Runner
	state   BuildState
	failed  pipeline.StageName
	results []*pipeline.Result
}

type PackagerOpt func(*Packager)

// WithRunner substitutes the stage runner. Test use.
func WithRunner(r *pipeline.Runner) PackagerOpt {
	return func(p *Packager) {
		p.runner = r
	}
}

func New(opts *PackageOptions, pkgOpts ...PackagerOpt) *Packager {
	p := &Packager{
		opts:  opts,
		state: StateInit,
	}

	for _, opt := range pkgOpts {
		opt(p)
	}

	if p.runner == nil {
		var runnerOpts []pipeline.RunnerOpt
		if opts.NoCapture {
			runnerOpts = append(runnerOpts, pipeline.WithPassthrough())
		}
		p.runner = pipeline.NewRunner(runnerOpts...)
	}

	return p
}

// State returns the current pipeline state.
func (p *Packager) State() BuildState {
	return p.state
}

// FailedStage names the stage that moved the pipeline to Failed.
func (p *Packager) FailedStage() pipeline.StageName {
	return p.failed
}

// Results returns the per-stage results accumulated so far.
func (p *Packager) Results() []*pipeline.Result {
	return p.results
}

// Run executes compile, link, and (when signing is configured) sign,
// and returns the absolute path of the built installer. The first
// failing stage stops the pipeline; nothing is retried and partial
// outputs are left on disk.
func (p *Packager) Run(ctx context.Context) (string, error) {
	ctx, span := trace.StartSpan(ctx, "packagekit.PackageMSI")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	// The stages run with different working directories, so every
	// path handed to the toolchain must be absolute.
	root, err := filepath.Abs(p.opts.Root)
	if err != nil {
		return "", errors.Wrapf(err, "resolving root %s", p.opts.Root)
	}

	defPath, err := filepath.Abs(p.opts.DefinitionPath)
	if err != nil {
		return "", errors.Wrapf(err, "resolving definition %s", p.opts.DefinitionPath)
	}

	if _, err := os.Stat(defPath); err != nil {
		return "", errors.Wrapf(err, "installer definition %s", defPath)
	}

	outDir := p.opts.OutputDir
	if outDir == "" {
		outDir = filepath.Join(root, "target", "wix")
	}
	if outDir, err = filepath.Abs(outDir); err != nil {
		return "", errors.Wrapf(err, "resolving output dir %s", p.opts.OutputDir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", errors.Wrapf(err, "making %s", outDir)
	}

	arch := p.opts.Arch
	if arch == "" {
		arch = msArch()
	}

	wixobj := filepath.Join(outDir, p.opts.Name+".wixobj")
	msi := filepath.Join(outDir, fmt.Sprintf("%s-%s.msi", p.opts.Name, p.opts.Version))

	stages := []*pipeline.Stage{
		{
			Name: pipeline.Compile,
			Exe:  compilerExe,
			Args: []string{
				"-nologo",
				"-arch", arch,
				"-ext", "WixUtilExtension",
				"-out", wixobj,
				defPath,
			},
			Dir:     outDir,
			Inputs:  []string{defPath},
			Output:  wixobj,
			Timeout: p.opts.StageTimeout,
		},
		{
			Name:    pipeline.Link,
			Exe:     linkerExe,
			Args:    p.linkArgs(wixobj, msi),
			Dir:     root,
			Inputs:  []string{wixobj},
			Output:  msi,
			Timeout: p.opts.StageTimeout,
		},
	}

	if p.opts.Signing != nil {
		stages = append(stages, &pipeline.Stage{
			Name:    pipeline.Sign,
			Exe:     signerExe,
			Args:    authenticode.Args(p.opts.Signing, msi),
			Dir:     root,
			Inputs:  []string{msi},
			Timeout: p.opts.StageTimeout,
		})
	}

	if p.opts.DryRun {
		for _, stage := range stages {
			args := stage.Args
			if stage.Name == pipeline.Sign {
				args = authenticode.RedactedArgs(p.opts.Signing, msi)
			}
			level.Info(logger).Log(
				"msg", "would exec",
				"stage", stage.Name,
				"exe", stage.Exe,
				"args", fmt.Sprintf("%v", args),
			)
		}
		p.state = StateDone
		return msi, nil
	}

	for _, stage := range stages {
		p.state = stateFor(stage.Name)

		if err := p.runStage(ctx, stage); err != nil {
			p.state = StateFailed
			p.failed = stage.Name
			return "", err
		}
	}

	artifact, err := locateArtifact(pipeline.Link, msi)
	if err != nil {
		p.state = StateFailed
		p.failed = pipeline.Link
		return "", err
	}

	p.state = StateDone

	level.Debug(logger).Log(
		"msg", "built installer",
		"msi", artifact,
	)

	return artifact, nil
}

func (p *Packager) runStage(ctx context.Context, stage *pipeline.Stage) error {
	result, err := p.runner.Run(ctx, stage)
	if err != nil {
		return err
	}

	p.results = append(p.results, result)

	if !result.Ok() {
		return &pipeline.StageError{
			Stage:    stage.Name,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	if stage.Output != "" {
		if _, err := locateArtifact(stage.Name, stage.Output); err != nil {
			return err
		}
	}

	return nil
}

func (p *Packager) linkArgs(wixobj, msi string) []string {
	args := []string{
		"-nologo",
		"-ext", "WixUIExtension",
		"-cultures:en-us",
		wixobj,
		"-out", msi,
	}

	if p.opts.SkipValidation {
		args = append(args, "-sval")
	}

	return args
}

// locateArtifact verifies that a stage's declared output exists and
// is non-empty, and returns its absolute path. A tool exiting zero
// without producing its output is always reported.
func locateArtifact(stage pipeline.StageName, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", &pipeline.MissingArtifactError{Stage: stage, Path: path}
	}

	return filepath.Abs(path)
}

func stateFor(name pipeline.StageName) BuildState {
	switch name {
	case pipeline.Compile:
		return StateCompiling
	case pipeline.Link:
		return StateLinking
	case pipeline.Sign:
		return StateSigning
	}
	return StateFailed
}

func msArch() string {
	if runtime.GOARCH == "386" {
		return "x86"
	}
	return "x64"
}
