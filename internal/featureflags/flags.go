package featureflags

import (
	"os"
	"strings"
)

// Known flags.
const (
	// StrictRefresh makes POST /api/auth/refresh reject tokens that were
	// not issued with kind=refresh. Off by default for compatibility with
	// clients that resend access tokens.
	StrictRefresh = "STRICT_REFRESH"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
