package wix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProductCode tests that our guid generation is stable across
// builds. Changing these values would change the identity of every
// shipped installer.
func TestProductCode(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		ident1 string
		identN []string
		out    string
	}{
		{
			ident1: "demo",
			out:    "FE01CE2A-7FBA-C8FA-FAED-7C982A04E229",
		},
		{
			ident1: "demo",
			identN: []string{},
			out:    "FE01CE2A-7FBA-C8FA-FAED-7C982A04E229",
		},
		{
			ident1: "demo",
			identN: []string{"1.0.0"},
			out:    "0751A540-4867-7652-AD18-D142EF30CEBB",
		},
		{
			ident1: "demo",
			identN: []string{"1.1.0"},
			out:    "8B4ED241-0768-1DE4-2F68-AD7506D5B44D",
		},
		{
			ident1: "demo",
			identN: []string{"1.0.0", "demo"},
			out:    "4EE02A0D-767A-9EE0-B68F-60F5B8566E81",
		},
	}

	for _, tt := range tests {
		guid := productCode(tt.ident1, tt.identN...)
		require.Equal(t, len("XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX"), len(guid))
		require.Equal(t, tt.out, guid)
	}
}

func TestProductIdentity(t *testing.T) {
	t.Parallel()

	// A version bump changes the product id but keeps the upgrade
	// code, which is what lets the installer detect upgrades.
	require.NotEqual(t, ProductID("demo", "1.0.0"), ProductID("demo", "1.1.0"))
	require.Equal(t, UpgradeCode("demo"), UpgradeCode("demo"))

	require.NotEqual(t, UpgradeCode("demo"), UpgradeCode("othertool"))
}
