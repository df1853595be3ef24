package wix

import (
	"crypto/md5"
	"fmt"
	"io"
)

// productCode is a stable guid derived from a set of identifiers.
// Windows Installer uses these to identify the product, the upgrade
// family, and the individual components. We need to either store
// them, or generate them in a predictable fashion based on a set of
// inputs. See
// https://docs.microsoft.com/en-us/windows/desktop/Msi/productcode
func productCode(ident1 string, identN ...string) string {
	h := md5.New()
	io.WriteString(h, ident1)
	for _, s := range identN {
		io.WriteString(h, s)
	}

	hash := h.Sum(nil)

	return fmt.Sprintf("%X-%X-%X-%X-%X", hash[0:4], hash[4:6], hash[6:8], hash[8:10], hash[10:16])
}

// UpgradeCode is the product's upgrade family guid. It depends only
// on the product name, so every version of the same product shares
// it. The installer toolchain relies on that to detect upgrades.
func UpgradeCode(name string) string {
	return productCode(name)
}

// ProductID identifies one version of the product. Same name and
// version always yield the same id; a version bump changes it.
func ProductID(name, version string) string {
	return productCode(name, version)
}
