// Package version provides the pydiff tool version.
package version

// Version is the pydiff tool version.
// Can be overridden at build time with:
//   go build -ldflags "-X github.com/mwhitfield/pydiff/pkg/version.Version=2.0.1"
var Version = "dev"
