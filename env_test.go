package magmawheel

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvironmentWithCopies(t *testing.T) {
	base := NewEnvironment(map[string]string{"A": "1"})
	derived := base.With("B", "2")

	_, ok := base.Lookup("B")
	require.False(t, ok)
	require.Equal(t, "2", derived.Get("B"))
	require.Equal(t, "1", derived.Get("A"))
}

func TestNewEnvironmentCopiesMap(t *testing.T) {
	vars := map[string]string{"A": "1"}
	env := NewEnvironment(vars)
	vars["A"] = "changed"

	require.Equal(t, "1", env.Get("A"))
}

func TestEnvironmentAppendPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	env := NewEnvironment(map[string]string{EnvPath: "/usr/bin"})
	require.Equal(t, "/usr/bin"+sep+"/opt/rocm/bin", env.AppendPath(EnvPath, "/opt/rocm/bin").Get(EnvPath))
	require.Equal(t, "/usr/bin", env.Get(EnvPath))

	empty := NewEnvironment(nil)
	require.Equal(t, "/opt/rocm/bin", empty.AppendPath(EnvPath, "/opt/rocm/bin").Get(EnvPath))
}

func TestEnvironmentPairsSorted(t *testing.T) {
	env := NewEnvironment(map[string]string{"B": "2", "A": "1", "C": ""})
	require.Equal(t, []string{"A=1", "B=2", "C="}, env.Pairs())
}

func TestOSEnvironmentSnapshot(t *testing.T) {
	t.Setenv("MAGMA_WHEEL_TEST", "before")
	env := OSEnvironment()
	t.Setenv("MAGMA_WHEEL_TEST", "after")

	require.Equal(t, "before", env.Get("MAGMA_WHEEL_TEST"))
}
