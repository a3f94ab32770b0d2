// Package version provides information about the build version of the kiosk.
package version

// BuildInfo holds version information about the kiosk build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The version, commit, and date variables
// are intended to be set at build time using -ldflags.
func Info() BuildInfo {
	// Set via -ldflags "-X 'facegate/internal/core/version.version=v0.1.0'
	// -X 'facegate/internal/core/version.commit=abcd' -X 'facegate/internal/core/version.date=2026-10-01'"
	return BuildInfo{
		Service: "facegate-kiosk",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// UserAgent is the default User-Agent sent to the recognition backend
func UserAgent() string { return "facegate/" + version }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
