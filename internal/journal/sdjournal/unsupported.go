//go:build !(linux && cgo)

package sdjournal

import "github.com/vburojevic/journalq/internal/journal"

// Available reports whether Open can work on this build.
const Available = false

// Open always fails with ErrUnsupported.
func Open(...string) (journal.Cursor, error) {
	return nil, ErrUnsupported
}
