package sdjournal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	if !Available {
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}
