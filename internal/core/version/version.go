// Package version reports the build stamped into the binaries
package version

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// set with -ldflags "-X findtime/internal/core/version.version=v0.1.0 -X findtime/internal/core/version.commit=abcd"
func Info() BuildInfo {
	return BuildInfo{
		Service: "findtime",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
