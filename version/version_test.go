package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShort(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v10.0.3+git.abc"
	require.Equal(t, "10.0.3", Short())
	require.False(t, IsPre())

	Version = "v10.1.0-rc.1"
	require.Equal(t, "10.1.0-rc.1", Short())
	require.True(t, IsPre())
}
