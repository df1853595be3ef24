package manifest

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// MetadataError reports a missing or malformed manifest field.
type MetadataError struct {
	Field  string
	Reason string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("manifest field %s: %s", e.Field, e.Reason)
}

// Binary is one executable the installer will carry.
type Binary struct {
	Name string
	Path string
}

// Metadata is the validated, canonical form of the manifest data the
// installer generation consumes. Treat it as immutable once extracted.
type Metadata struct {
	Name        string
	Version     string
	Authors     []string
	Description string
	License     string
	Binaries    []Binary
}

// Manufacturer returns the first author, which is what the installer
// reports as the manufacturer when no override is given.
func (m *Metadata) Manufacturer() string {
	if len(m.Authors) == 0 {
		return ""
	}
	return m.Authors[0]
}

// Extract validates the raw manifest and returns the canonical
// metadata. It is a pure transformation, no I/O.
func Extract(m *Manifest) (*Metadata, error) {
	if m.Package.Name == "" {
		return nil, &MetadataError{Field: "package.name", Reason: "missing"}
	}

	if m.Package.Version == "" {
		return nil, &MetadataError{Field: "package.version", Reason: "missing"}
	}

	ver, err := semver.NewVersion(m.Package.Version)
	if err != nil {
		return nil, &MetadataError{
			Field:  "package.version",
			Reason: fmt.Sprintf("%q is not a semantic version", m.Package.Version),
		}
	}

	if len(m.Bins) == 0 {
		return nil, &MetadataError{Field: "bin", Reason: "at least one binary is required"}
	}

	binaries := make([]Binary, 0, len(m.Bins))
	for i, b := range m.Bins {
		if b.Name == "" {
			return nil, &MetadataError{Field: fmt.Sprintf("bin[%d].name", i), Reason: "missing"}
		}
		if b.Path == "" {
			return nil, &MetadataError{Field: fmt.Sprintf("bin[%d].path", i), Reason: "missing"}
		}
		binaries = append(binaries, Binary{Name: b.Name, Path: b.Path})
	}

	return &Metadata{
		Name:        m.Package.Name,
		Version:     ver.String(),
		Authors:     append([]string{}, m.Package.Authors...),
		Description: m.Package.Description,
		License:     m.Package.License,
		Binaries:    binaries,
	}, nil
}
