// Package version provides version information for the binary.
package version

import (
	"fmt"
	"runtime"
)

// Version and BuildTime are set at build time:
//
//	go build -ldflags "-X github.com/matiasleandrokruk/relengjira/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("relengjira version %s (built %s, %s)", Version, BuildTime, runtime.Version())
}
