// Package sdjournal reads native journal files through libsystemd. It is
// only available on Linux builds with cgo enabled; elsewhere Open returns
// ErrUnsupported.
package sdjournal

import "errors"

// ErrUnsupported is returned by Open on builds without libsystemd.
var ErrUnsupported = errors.New("native journal access requires linux and cgo")
