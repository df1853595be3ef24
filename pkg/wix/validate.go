package wix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clbanning/mxj"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefinitionErrorKind classifies validation failures.
type DefinitionErrorKind string

const (
	MissingField    DefinitionErrorKind = "missing-field"
	DuplicateID     DefinitionErrorKind = "duplicate-id"
	PathOutsideRoot DefinitionErrorKind = "path-outside-root"
	MalformedXML    DefinitionErrorKind = "malformed-xml"
)

// DefinitionError reports a violation in an author-supplied
// installer definition.
type DefinitionError struct {
	Kind   DefinitionErrorKind
	Path   string
	Detail string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("installer definition %s: %s: %s", e.Path, e.Kind, e.Detail)
}

// Validate checks an existing wxs file before it is handed to the
// toolchain: well-formed xml, guid-shaped product identity, unique
// component ids, and every component source resolving under the
// project root. Parsing goes through mxj rather than the typed model
// so documents using schema features we don't model still validate.
func Validate(root, path string) error {
	rawdata, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	mv, err := mxj.NewMapXml(rawdata)
	if err != nil {
		return &DefinitionError{Kind: MalformedXML, Path: path, Detail: err.Error()}
	}

	products, err := mv.ValuesForPath("Wix.Product")
	if err != nil || len(products) == 0 {
		return &DefinitionError{Kind: MissingField, Path: path, Detail: "no Product element"}
	}

	product, ok := products[0].(map[string]interface{})
	if !ok {
		return &DefinitionError{Kind: MissingField, Path: path, Detail: "empty Product element"}
	}

	if err := checkGuidAttr(product, "Id", path, true); err != nil {
		return err
	}
	if err := checkGuidAttr(product, "UpgradeCode", path, false); err != nil {
		return err
	}

	componentValues, _ := mv.ValuesForKey("Component")
	seen := map[string]bool{}
	for _, component := range flattenValues(componentValues) {
		id, _ := component["-Id"].(string)
		if id == "" {
			return &DefinitionError{Kind: MissingField, Path: path, Detail: "Component without an Id"}
		}
		if seen[id] {
			return &DefinitionError{
				Kind:   DuplicateID,
				Path:   path,
				Detail: fmt.Sprintf("component id %q appears more than once", id),
			}
		}
		seen[id] = true
	}

	fileValues, _ := mv.ValuesForKey("File")
	for _, file := range flattenValues(fileValues) {
		source, _ := file["-Source"].(string)
		if source == "" {
			continue
		}
		if err := checkUnderRoot(root, path, source); err != nil {
			return err
		}
	}

	return nil
}

// checkGuidAttr verifies an attribute parses as a guid. Product Id
// may be the wix autogenerate marker "*".
func checkGuidAttr(element map[string]interface{}, attr, path string, allowStar bool) error {
	raw, _ := element["-"+attr].(string)
	if raw == "" {
		return &DefinitionError{
			Kind:   MissingField,
			Path:   path,
			Detail: fmt.Sprintf("Product %s attribute is missing", attr),
		}
	}

	if allowStar && raw == "*" {
		return nil
	}

	if _, err := uuid.Parse(raw); err != nil {
		return &DefinitionError{
			Kind:   MissingField,
			Path:   path,
			Detail: fmt.Sprintf("Product %s %q is not a guid", attr, raw),
		}
	}

	return nil
}

// checkUnderRoot rejects component sources that escape the project
// root. Sources using preprocessor variables can't be resolved here
// and are left for the compiler.
func checkUnderRoot(root, path, source string) error {
	if strings.Contains(source, "$(") {
		return nil
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, "resolving root %s", root)
	}

	native := windowsPathToNative(source)
	if !filepath.IsAbs(native) {
		native = filepath.Join(rootAbs, native)
	}

	rel, err := filepath.Rel(rootAbs, filepath.Clean(native))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &DefinitionError{
			Kind:   PathOutsideRoot,
			Path:   path,
			Detail: fmt.Sprintf("source %q is outside the project root", source),
		}
	}

	return nil
}

// flattenValues normalizes mxj results. A repeated element can come
// back as a slice of maps rather than individual maps.
func flattenValues(values []interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	for _, v := range values {
		switch typed := v.(type) {
		case map[string]interface{}:
			out = append(out, typed)
		case []interface{}:
			out = append(out, flattenValues(typed)...)
		}
	}
	return out
}
