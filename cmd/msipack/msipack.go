package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/logutil"
	"github.com/kolide/kit/version"
	"github.com/msipack/msipack/pkg/contexts/ctxlog"
	"github.com/msipack/msipack/pkg/manifest"
	"github.com/msipack/msipack/pkg/packagekit"
	"github.com/msipack/msipack/pkg/packagekit/authenticode"
	"github.com/msipack/msipack/pkg/pipeline"
	"github.com/msipack/msipack/pkg/wix"
	"github.com/peterbourgon/ff/v3"
)

// Exit codes. Each failure class gets its own so scripts can tell
// what went wrong.
const (
	exitUsage      = 1
	exitMetadata   = 2
	exitDefinition = 3
	exitCompile    = 4
	exitLink       = 5
	exitSign       = 6
	exitToolchain  = 7
)

func runBuild(args []string) error {
	// ContinueOnError so a bad flag surfaces as an error and exits
	// through our own usage code, not flag's hardcoded 2.
	flagset := flag.NewFlagSet("build", flag.ContinueOnError)
	var (
		flRoot = flagset.String(
			"root",
			".",
			"the project root directory",
		)
		flManifest = flagset.String(
			"manifest",
			"",
			"path to the project manifest (default: <root>/project.yaml)",
		)
		flInput = flagset.String(
			"input",
			"",
			"path to an existing WiX Source (wxs) file (default: <root>/wix/main.wxs, scaffolded if absent)",
		)
		flOutputDir = flagset.String(
			"output-dir",
			"",
			"directory for build outputs (default: <root>/target/wix)",
		)
		flProductName = flagset.String(
			"product-name",
			"",
			"overrides the manifest package name as the product name",
		)
		flBinaryName = flagset.String(
			"binary-name",
			"",
			"overrides the name of the first binary within the installer",
		)
		flDescription = flagset.String(
			"description",
			"",
			"overrides the manifest description",
		)
		flManufacturer = flagset.String(
			"manufacturer",
			"",
			"overrides the first manifest author as the manufacturer",
		)
		flSign = flagset.Bool(
			"sign",
			false,
			"sign the installer with signtool after linking",
		)
		flCert = flagset.String(
			"cert",
			"",
			"certificate for signing: a pfx file path or a thumbprint (default: pick from the certificate store)",
		)
		flCertPassword = flagset.String(
			"cert-password",
			"",
			"password for a pfx certificate file",
		)
		flTimestamp = flagset.String(
			"timestamp",
			"",
			"timestamp server url used while signing",
		)
		flStageTimeout = flagset.Duration(
			"stage-timeout",
			0,
			"kill a toolchain invocation that runs longer than this (0 disables)",
		)
		flSkipValidation = flagset.Bool(
			"skip-validation",
			false,
			"skip light's ICE validation; needed in wine environments",
		)
		flNoCapture = flagset.Bool(
			"nocapture",
			false,
			"show compiler, linker, and signer output instead of capturing it",
		)
		flDryRun = flagset.Bool(
			"dry-run",
			false,
			"report the toolchain invocations without running them",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
	)

	flagset.Usage = usageFor(flagset, "msipack build [flags]")
	if err := ff.Parse(flagset, args, ff.WithEnvVarPrefix("MSIPACK")); err != nil {
		return err
	}

	logger := logutil.NewCLILogger(*flDebug)
	ctx := ctxlog.NewContext(context.Background(), logger)

	meta, err := loadMetadata(*flRoot, *flManifest, metadataOverrides{
		productName:  *flProductName,
		binaryName:   *flBinaryName,
		description:  *flDescription,
		manufacturer: *flManufacturer,
	})
	if err != nil {
		return err
	}

	defPath := *flInput
	if defPath == "" {
		defPath, err = wix.WriteScaffold(*flRoot, meta, false)
		if err != nil {
			return err
		}
	}

	if err := wix.Validate(*flRoot, defPath); err != nil {
		return err
	}

	opts := &packagekit.PackageOptions{
		Name:           meta.Name,
		Version:        meta.Version,
		Root:           *flRoot,
		DefinitionPath: defPath,
		OutputDir:      *flOutputDir,
		SkipValidation: *flSkipValidation,
		NoCapture:      *flNoCapture,
		DryRun:         *flDryRun,
		StageTimeout:   *flStageTimeout,
	}

	if *flSign {
		opts.Signing = &authenticode.Config{
			Certificate:  *flCert,
			TimestampURL: *flTimestamp,
			Password:     *flCertPassword,
		}
	}

	artifact, err := packagekit.New(opts).Run(ctx)
	if err != nil {
		return err
	}

	level.Info(logger).Log(
		"msg", "installer built",
		"msi", artifact,
	)

	return nil
}

func runInit(args []string) error {
	flagset := flag.NewFlagSet("init", flag.ContinueOnError)
	var (
		flRoot = flagset.String(
			"root",
			".",
			"the project root directory",
		)
		flManifest = flagset.String(
			"manifest",
			"",
			"path to the project manifest (default: <root>/project.yaml)",
		)
		flForce = flagset.Bool(
			"force",
			false,
			"overwrite an existing wix/main.wxs. Use with caution",
		)
		flDebug = flagset.Bool(
			"debug",
			false,
			"enable debug logging",
		)
	)

	flagset.Usage = usageFor(flagset, "msipack init [flags]")
	if err := ff.Parse(flagset, args, ff.WithEnvVarPrefix("MSIPACK")); err != nil {
		return err
	}

	logger := logutil.NewCLILogger(*flDebug)

	meta, err := loadMetadata(*flRoot, *flManifest, metadataOverrides{})
	if err != nil {
		return err
	}

	path, err := wix.WriteScaffold(*flRoot, meta, *flForce)
	if err != nil {
		return err
	}

	level.Info(logger).Log(
		"msg", "installer definition ready",
		"path", path,
	)

	return nil
}

func runPrintTemplate(args []string) error {
	_, err := os.Stdout.Write(wix.Template())
	return err
}

func runVersion(args []string) error {
	version.PrintFull()
	return nil
}

type metadataOverrides struct {
	productName  string
	binaryName   string
	description  string
	manufacturer string
}

// loadMetadata reads the manifest, applies command line overrides,
// and extracts the canonical metadata.
func loadMetadata(root, manifestPath string, overrides metadataOverrides) (*manifest.Metadata, error) {
	m, err := manifest.Load(root, manifestPath)
	if err != nil {
		return nil, err
	}

	if overrides.productName != "" {
		m.Package.Name = overrides.productName
	}
	if overrides.description != "" {
		m.Package.Description = overrides.description
	}
	if overrides.manufacturer != "" {
		m.Package.Authors = append([]string{overrides.manufacturer}, m.Package.Authors...)
	}
	if overrides.binaryName != "" && len(m.Bins) > 0 {
		m.Bins[0].Name = overrides.binaryName
	}

	return manifest.Extract(m)
}

func exitCode(err error) int {
	var (
		metaErr    *manifest.MetadataError
		defErr     *wix.DefinitionError
		stageErr   *pipeline.StageError
		timeoutErr *pipeline.TimeoutError
		missingErr *pipeline.MissingArtifactError
		notFound   *pipeline.ToolchainNotFoundError
	)

	switch {
	case errors.As(err, &metaErr):
		return exitMetadata
	case errors.As(err, &defErr):
		return exitDefinition
	case errors.As(err, &stageErr):
		return stageExitCode(stageErr.Stage)
	case errors.As(err, &timeoutErr):
		return stageExitCode(timeoutErr.Stage)
	case errors.As(err, &missingErr):
		return stageExitCode(missingErr.Stage)
	case errors.As(err, &notFound):
		return exitToolchain
	}

	return exitUsage
}

func stageExitCode(stage pipeline.StageName) int {
	switch stage {
	case pipeline.Compile:
		return exitCompile
	case pipeline.Link:
		return exitLink
	case pipeline.Sign:
		return exitSign
	}
	return exitUsage
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "USAGE\n")
	fmt.Fprintf(os.Stderr, "  %s <mode> --help\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "MODES\n")
	fmt.Fprintf(os.Stderr, "  build           Build (and optionally sign) the Windows installer\n")
	fmt.Fprintf(os.Stderr, "  init            Scaffold wix/main.wxs from the project manifest\n")
	fmt.Fprintf(os.Stderr, "  print-template  Print an annotated wxs template to stdout\n")
	fmt.Fprintf(os.Stderr, "  version         Print full version information\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "VERSION\n")
	fmt.Fprintf(os.Stderr, "  %s\n", version.Version().Version)
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}

	var run func([]string) error
	switch strings.ToLower(os.Args[1]) {
	case "build":
		run = runBuild
	case "init":
		run = runInit
	case "print-template":
		run = runPrintTemplate
	case "version":
		run = runVersion
	default:
		usage()
		os.Exit(exitUsage)
	}

	if err := run(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCode(err))
	}
}
