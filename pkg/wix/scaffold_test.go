package wix

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/msipack/msipack/pkg/manifest"
	"github.com/stretchr/testify/require"
)

func demoMetadata() *manifest.Metadata {
	return &manifest.Metadata{
		Name:    "demo",
		Version: "1.0.0",
		Authors: []string{"Jane Doe"},
		Binaries: []manifest.Binary{
			{Name: "demo", Path: "target/release/demo.exe"},
		},
	}
}

func TestScaffold(t *testing.T) {
	t.Parallel()

	def := Scaffold(demoMetadata())

	require.Equal(t, ProductID("demo", "1.0.0"), def.Product.ID)
	require.Equal(t, UpgradeCode("demo"), def.Product.UpgradeCode)
	require.Equal(t, "Jane Doe", def.Product.Manufacturer)

	// One component per binary, gathered into a single feature.
	bindir := def.Product.Directory.Directories[0].Directories[0].Directories[0]
	require.Len(t, bindir.Components, 1)
	require.Equal(t, `target\release\demo.exe`, bindir.Components[0].Files[0].Source)

	require.Len(t, def.Product.Features, 1)
	require.Equal(t, "Complete", def.Product.Features[0].ID)
	require.Len(t, def.Product.Features[0].ComponentRefs, 1)
	require.Equal(t, bindir.Components[0].ID, def.Product.Features[0].ComponentRefs[0].ID)
}

func TestScaffoldDuplicateBinaryNames(t *testing.T) {
	t.Parallel()

	meta := demoMetadata()
	meta.Binaries = []manifest.Binary{
		{Name: "demo", Path: "target/release/demo.exe"},
		{Name: "demo", Path: "target/debug/demo.exe"},
	}

	def := Scaffold(meta)

	bindir := def.Product.Directory.Directories[0].Directories[0].Directories[0]
	require.Len(t, bindir.Components, 2)
	require.NotEqual(t, bindir.Components[0].ID, bindir.Components[1].ID)
	require.NotEqual(t, bindir.Components[0].Guid, bindir.Components[1].Guid,
		"components need distinct guids even when binaries share a name")
}

func TestScaffoldRoundTrip(t *testing.T) {
	t.Parallel()

	rendered, err := Scaffold(demoMetadata()).Render()
	require.NoError(t, err)

	var parsed Definition
	require.NoError(t, xml.Unmarshal(rendered, &parsed))

	require.Equal(t, ProductID("demo", "1.0.0"), parsed.Product.ID)
	require.Equal(t, "1.0.0", parsed.Product.Version)
}

func TestWriteScaffold(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	path, err := WriteScaffold(root, demoMetadata(), false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "wix", "main.wxs"), path)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(first), `target\release\demo.exe`)

	// Scaffolding again without force leaves the file untouched.
	require.NoError(t, os.WriteFile(path, []byte("hand edited"), 0644))

	path2, err := WriteScaffold(root, demoMetadata(), false)
	require.NoError(t, err)
	require.Equal(t, path, path2)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hand edited", string(second))

	// With force, the document is regenerated.
	_, err = WriteScaffold(root, demoMetadata(), true)
	require.NoError(t, err)

	third, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(first), string(third))
}

func TestScaffoldValidates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	path, err := WriteScaffold(root, demoMetadata(), false)
	require.NoError(t, err)

	require.NoError(t, Validate(root, path))
}
