package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/msipack/msipack/pkg/manifest"
	"github.com/msipack/msipack/pkg/pipeline"
	"github.com/msipack/msipack/pkg/wix"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		err  error
		code int
	}{
		{&manifest.MetadataError{Field: "package.name"}, exitMetadata},
		{&wix.DefinitionError{Kind: wix.DuplicateID}, exitDefinition},
		{&pipeline.StageError{Stage: pipeline.Compile}, exitCompile},
		{&pipeline.StageError{Stage: pipeline.Link}, exitLink},
		{&pipeline.StageError{Stage: pipeline.Sign}, exitSign},
		{&pipeline.TimeoutError{Stage: pipeline.Link}, exitLink},
		{&pipeline.MissingArtifactError{Stage: pipeline.Link}, exitLink},
		{&pipeline.ToolchainNotFoundError{Exe: "candle"}, exitToolchain},
		{os.ErrNotExist, exitUsage},
	}

	for _, tt := range tests {
		require.Equal(t, tt.code, exitCode(tt.err), "error: %v", tt.err)
	}
}

func TestUnknownFlagReturnsUsageError(t *testing.T) {
	t.Parallel()

	// A bad flag must come back as an error so main can exit with
	// exitUsage, not whatever the flag package would exit with.
	err := runBuild([]string{"-definitely-not-a-flag"})
	require.Error(t, err)
	require.Equal(t, exitUsage, exitCode(err))

	err = runInit([]string{"-definitely-not-a-flag"})
	require.Error(t, err)
	require.Equal(t, exitUsage, exitCode(err))
}

func TestLoadMetadataOverrides(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	manifestYaml := `
package:
  name: demo
  version: 1.0.0
  authors: [Jane Doe]
bin:
  - name: demo
    path: target/release/demo.exe
`
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.DefaultFilename), []byte(manifestYaml), 0644))

	meta, err := loadMetadata(root, "", metadataOverrides{
		productName:  "Demo Deluxe",
		binaryName:   "demo-deluxe",
		manufacturer: "Acme Corp",
	})
	require.NoError(t, err)

	require.Equal(t, "Demo Deluxe", meta.Name)
	require.Equal(t, "Acme Corp", meta.Manufacturer())
	require.Equal(t, "demo-deluxe", meta.Binaries[0].Name)
}
