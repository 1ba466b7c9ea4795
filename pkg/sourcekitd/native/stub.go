//go:build !cgo || !sourcekitd

// Package native binds sourcekitd.Daemon to libsourcekitdInProc through cgo.
// This build was compiled without the sourcekitd tag, so Open always fails.
package native

import (
	"fmt"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// Open reports that the native backend is not compiled in.
func Open() (sourcekitd.Daemon, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags sourcekitd", sourcekitd.ErrUnavailable)
}
