// Package packagekit sequences the WiX toolchain invocations that
// turn an installer definition into a Windows installer: candle
// compiles the wxs, light links the msi, and signtool optionally
// signs it. Stages run strictly in that order and the pipeline halts
// at the first failure, leaving any intermediate files in place for
// inspection.
package packagekit

import (
	"time"

	"github.com/msipack/msipack/pkg/packagekit/authenticode"
)

// PackageOptions is everything the build pipeline needs to turn an
// installer definition into an msi.
type PackageOptions struct {
	Name    string // product name (eg: demo)
	Version string // product version, already semver-normalized
	Root    string // project root directory

	DefinitionPath string // resolved path to the wxs file
	OutputDir      string // where the msi lands; defaults to <root>/target/wix
	Arch           string // microsoft architecture name; defaults to x64

	SkipValidation bool // pass -sval to light; needed under wine
	NoCapture      bool // mirror tool output instead of hiding it
	DryRun         bool // resolve and report stages without running them

	StageTimeout time.Duration // per-stage; zero means no timeout

	Signing *authenticode.Config // nil means don't sign
}
