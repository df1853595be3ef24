// Package authenticode builds the signtool.exe invocations used to
// sign installers. See
// https://docs.microsoft.com/en-us/dotnet/framework/tools/signtool-exe
package authenticode

import (
	"os"
)

// DefaultTimestampURL is used when no timestamp server is given.
const DefaultTimestampURL = "http://timestamp.comodoca.com"

// Config describes how to sign. With no certificate reference,
// signtool is invoked with /a to pick a suitable certificate from the
// Windows certificate store.
type Config struct {
	// Certificate is either the path to a pfx file or a
	// certificate thumbprint.
	Certificate string

	// TimestampURL is the timestamp server. Empty means
	// DefaultTimestampURL.
	TimestampURL string

	// Password unlocks a pfx certificate file. Never logged.
	Password string
}

// Args returns the signtool arguments for signing file in place.
func Args(cfg *Config, file string) []string {
	args := []string{"sign"}

	switch {
	case cfg.Certificate == "":
		args = append(args, "/a")
	case isFile(cfg.Certificate):
		args = append(args, "/f", cfg.Certificate)
		if cfg.Password != "" {
			args = append(args, "/p", cfg.Password)
		}
	default:
		args = append(args, "/sha1", cfg.Certificate)
	}

	ts := cfg.TimestampURL
	if ts == "" {
		ts = DefaultTimestampURL
	}
	args = append(args, "/t", ts)

	return append(args, file)
}

// RedactedArgs is Args with the certificate password elided, safe for
// logging.
func RedactedArgs(cfg *Config, file string) []string {
	args := Args(cfg, file)
	for i := range args {
		if args[i] == "/p" && i+1 < len(args) {
			args[i+1] = "<redacted>"
		}
	}
	return args
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
