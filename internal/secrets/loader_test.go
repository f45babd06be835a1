package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromValue(t *testing.T) {
	got, err := Load(Source{Name: "api key", Value: "  secret-value\n"})
	require.NoError(t, err)
	assert.Equal(t, "secret-value", got)
}

func TestLoadFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	got, err := Load(Source{Name: "api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(Source{Name: "api key"})
	assert.ErrorContains(t, err, "api key is not configured")

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = Load(Source{Name: "api key", File: empty})
	assert.ErrorContains(t, err, "is empty")

	_, err = Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "reading api key")
}
