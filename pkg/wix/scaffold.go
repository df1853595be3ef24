package wix

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/msipack/msipack/pkg/manifest"
	"github.com/pkg/errors"
)

// Scaffold synthesizes an installer definition from project
// metadata: one component per declared binary, all of them gathered
// into a single "Complete" feature. Guids are derived from the
// product name and version, so scaffolding the same project twice
// yields the same document.
func Scaffold(meta *manifest.Metadata) *Definition {
	binDir := Directory{
		ID:   "BinDir",
		Name: "bin",
	}

	feature := Feature{
		ID:    "Complete",
		Title: meta.Name,
		Level: 1,
	}

	for i, bin := range meta.Binaries {
		componentID := fmt.Sprintf("binary%d", i)

		// The index keeps guids distinct even when two binaries
		// share a name.
		binDir.Components = append(binDir.Components, Component{
			ID:   componentID,
			Guid: productCode(meta.Name, meta.Version, bin.Name, strconv.Itoa(i)),
			Files: []File{
				{
					ID:      fmt.Sprintf("exe%d", i),
					Name:    filepath.Base(windowsPathToNative(bin.Path)),
					Source:  windowsPath(bin.Path),
					KeyPath: "yes",
				},
			},
		})

		feature.ComponentRefs = append(feature.ComponentRefs, ComponentRef{ID: componentID})
	}

	return &Definition{
		Xmlns: Namespace,
		Product: Product{
			ID:           ProductID(meta.Name, meta.Version),
			Name:         meta.Name,
			Language:     "1033",
			Version:      meta.Version,
			Manufacturer: meta.Manufacturer(),
			UpgradeCode:  UpgradeCode(meta.Name),
			Package: PackageInfo{
				ID:               "*",
				Keywords:         "Installer",
				Description:      meta.Description,
				Manufacturer:     meta.Manufacturer(),
				InstallerVersion: "450",
				Languages:        "1033",
				Compressed:       "yes",
				InstallScope:     "perMachine",
			},
			MajorUpgrade: &MajorUpgrade{
				DowngradeErrorMessage: "A newer version of [ProductName] is already installed.",
			},
			Media: Media{
				ID:       "1",
				Cabinet:  "media1.cab",
				EmbedCab: "yes",
			},
			Directory: Directory{
				ID:   "TARGETDIR",
				Name: "SourceDir",
				Directories: []Directory{
					{
						ID: "ProgramFiles64Folder",
						Directories: []Directory{
							{
								ID:          "APPLICATIONFOLDER",
								Name:        meta.Name,
								Directories: []Directory{binDir},
							},
						},
					},
				},
			},
			Features: []Feature{feature},
		},
	}
}

// WriteScaffold renders a scaffolded definition to wix/main.wxs under
// the project root and returns its path. An existing file is left
// untouched unless force is set, so repeated scaffolds are no-ops.
func WriteScaffold(root string, meta *manifest.Metadata, force bool) (string, error) {
	path := filepath.Join(root, filepath.FromSlash(DefaultPath))

	if _, err := os.Stat(path); err == nil && !force {
		return path, nil
	} else if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "stat %s", path)
	}

	if err := Scaffold(meta).Write(path); err != nil {
		return "", err
	}

	return path, nil
}
