// Package cmd holds autoback's build metadata. The values are injected at
// link time, e.g.
//
//	go build -ldflags "-X github.com/thoreinstein/autoback/cmd.Version=1.2.0" ./cmd/autoback
package cmd

var (
	// Version is the release version, or "dev" for local builds.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
