// Package wix generates and validates WiX Source (wxs) documents, the
// installer definitions consumed by the WiX toolchain (candle and
// light). The document is modeled as typed structs; the on-disk xml
// form is a serialization boundary only.
package wix

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Namespace is the WiX v3 schema namespace.
	Namespace = "http://schemas.microsoft.com/wix/2006/wi"

	// DefaultPath is where the installer definition lives, relative
	// to the project root.
	DefaultPath = "wix/main.wxs"
)

type Definition struct {
	XMLName xml.Name `xml:"Wix"`
	Xmlns   string   `xml:"xmlns,attr"`
	Product Product  `xml:"Product"`
}

type Product struct {
	ID           string `xml:"Id,attr"`
	Name         string `xml:"Name,attr"`
	Language     string `xml:"Language,attr"`
	Version      string `xml:"Version,attr"`
	Manufacturer string `xml:"Manufacturer,attr"`
	UpgradeCode  string `xml:"UpgradeCode,attr"`

	Package      PackageInfo   `xml:"Package"`
	MajorUpgrade *MajorUpgrade `xml:"MajorUpgrade,omitempty"`
	Media        Media         `xml:"Media"`
	Directory    Directory     `xml:"Directory"`
	Features     []Feature     `xml:"Feature"`
}

type PackageInfo struct {
	ID               string `xml:"Id,attr"`
	Keywords         string `xml:"Keywords,attr,omitempty"`
	Description      string `xml:"Description,attr,omitempty"`
	Manufacturer     string `xml:"Manufacturer,attr,omitempty"`
	InstallerVersion string `xml:"InstallerVersion,attr"`
	Languages        string `xml:"Languages,attr"`
	Compressed       string `xml:"Compressed,attr"`
	InstallScope     string `xml:"InstallScope,attr"`
}

type MajorUpgrade struct {
	DowngradeErrorMessage string `xml:"DowngradeErrorMessage,attr"`
}

type Media struct {
	ID       string `xml:"Id,attr"`
	Cabinet  string `xml:"Cabinet,attr"`
	EmbedCab string `xml:"EmbedCab,attr"`
}

type Directory struct {
	ID   string `xml:"Id,attr"`
	Name string `xml:"Name,attr,omitempty"`

	Directories []Directory `xml:"Directory,omitempty"`
	Components  []Component `xml:"Component,omitempty"`
}

type Component struct {
	ID   string `xml:"Id,attr"`
	Guid string `xml:"Guid,attr"`

	Files []File `xml:"File"`
}

type File struct {
	ID      string `xml:"Id,attr"`
	Name    string `xml:"Name,attr"`
	Source  string `xml:"Source,attr"`
	KeyPath string `xml:"KeyPath,attr,omitempty"`
}

type Feature struct {
	ID    string `xml:"Id,attr"`
	Title string `xml:"Title,attr,omitempty"`
	Level int    `xml:"Level,attr"`

	ComponentRefs []ComponentRef `xml:"ComponentRef"`
}

type ComponentRef struct {
	ID string `xml:"Id,attr"`
}

// Render marshals the definition to its on-disk xml form.
func (d *Definition) Render() ([]byte, error) {
	out, err := xml.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling wxs")
	}

	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Write renders the definition to path, creating parent directories
// as needed.
func (d *Definition) Write(path string) error {
	rendered, err := d.Render()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "making %s", filepath.Dir(path))
	}

	if err := os.WriteFile(path, rendered, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	return nil
}

// windowsPath rewrites a manifest-style relative path into the
// backslash form the WiX tools expect.
func windowsPath(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// windowsPathToNative does the reverse, producing a path usable with
// the local filesystem regardless of which separator the document
// used.
func windowsPathToNative(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}
