// Package manifest reads the project manifest and extracts the
// metadata needed to describe a Windows installer. The manifest is a
// small yaml file at the project root, patterned after the package
// sections most build tools carry.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// DefaultFilename is where we look for the manifest, relative to the
// project root.
const DefaultFilename = "project.yaml"

// Manifest is the raw, as-parsed form of the project manifest. Fields
// are unvalidated until Extract is called.
type Manifest struct {
	Package PackageSection `json:"package"`
	Bins    []BinSection   `json:"bin"`
}

type PackageSection struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Authors     []string `json:"authors"`
	Description string   `json:"description"`
	License     string   `json:"license"`
}

type BinSection struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Load reads and parses the manifest file. Pass an empty path to use
// DefaultFilename under root.
func Load(root, path string) (*Manifest, error) {
	if path == "" {
		path = filepath.Join(root, DefaultFilename)
	}

	rawdata, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(rawdata, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}

	return &m, nil
}
