package e2e

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	assert.NilError(t, os.WriteFile(path, []byte(text), 0o644))
}
