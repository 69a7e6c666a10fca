// Package version reports build information and compares server versions.
package version

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

// Set with -ldflags "-X github.com/rowbase/rowbase-go/internal/version.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version string
	Commit  string
	Date    string
	Go      string
	OS      string
	Arch    string
}

// Current reports the build of the running binary.
func Current() Build {
	return Build{
		Version: Version,
		Commit:  GitCommit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// Fields lists the build as ordered label/value pairs for display.
func (b Build) Fields() [][2]string {
	return [][2]string{
		{"client", b.Version},
		{"user agent", "rowbase-go/" + b.Version},
		{"commit", b.Commit},
		{"built", b.Date},
		{"go", b.Go},
		{"platform", b.OS + "/" + b.Arch},
	}
}

// UserAgent is sent with every HTTP request.
func UserAgent() string {
	return "rowbase-go/" + Version
}

// Validate reports whether v parses as a version.
func Validate(v string) error {
	if _, err := goversion.NewVersion(v); err != nil {
		return fmt.Errorf("invalid version %q: %w", v, err)
	}
	return nil
}

// AtLeast reports whether actual satisfies the minimum version min.
// An empty min accepts everything.
func AtLeast(actual, min string) (bool, error) {
	if min == "" {
		return true, nil
	}

	want, err := goversion.NewVersion(min)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", min, err)
	}
	got, err := goversion.NewVersion(actual)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", actual, err)
	}

	return got.GreaterThanOrEqual(want), nil
}
