package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := Version
	Version = v
	t.Cleanup(func() { Version = old })
}

func TestGet_Semver(t *testing.T) {
	withVersion(t, "v1.4.2")

	info := Get()
	assert.Equal(t, "v1.4.2", info.Version)
	assert.Equal(t, int64(1), info.Major)
	assert.Equal(t, int64(4), info.Minor)
	assert.Equal(t, int64(2), info.Patch)
}

func TestGet_Dev(t *testing.T) {
	withVersion(t, "dev")

	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.Zero(t, info.Major)
	assert.Zero(t, info.Minor)
	assert.Zero(t, info.Patch)

	_, err := Semver()
	assert.Error(t, err)
}

func TestSemver(t *testing.T) {
	withVersion(t, "2.0.0-rc.1")

	v, err := Semver()
	require.NoError(t, err)
	assert.Equal(t, "rc.1", v.Prerelease())
}
