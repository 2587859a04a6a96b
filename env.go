package magmawheel

import (
	"os"
	"sort"
	"strings"
)

// Environment variable names read or written by the build.
const (
	EnvROCmPath     = "ROCM_PATH"
	EnvCUDAHome     = "CUDA_HOME"
	EnvROCmArch     = "PYTORCH_ROCM_ARCH"
	EnvBuildVersion = "BUILD_VERSION"
	EnvMake         = "MAKE"
	EnvMKLRoot      = "MKLROOT"
	EnvLang         = "LANG"
	EnvPath         = "PATH"
)

// Environment is an immutable snapshot of environment variables.
//
// Builders never call os.Setenv. Instead they derive a new snapshot with
// With or AppendPath and hand it to the command they run, so a value set
// for one step is invisible to every other step.
type Environment struct {
	vars map[string]string
}

// OSEnvironment captures the current process environment.
func OSEnvironment() Environment {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return Environment{vars: vars}
}

// NewEnvironment builds a snapshot from a map. The map is copied.
func NewEnvironment(vars map[string]string) Environment {
	cp := make(map[string]string, len(vars))
	for k, v := range vars {
		cp[k] = v
	}
	return Environment{vars: cp}
}

// Lookup returns the value of key and whether it is set.
func (e Environment) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Get returns the value of key, or "" when unset.
func (e Environment) Get(key string) string {
	return e.vars[key]
}

// With returns a copy of the snapshot with key set to value.
func (e Environment) With(key, value string) Environment {
	cp := NewEnvironment(e.vars)
	cp.vars[key] = value
	return cp
}

// AppendPath returns a copy of the snapshot with dir appended to the
// list-valued variable key (PATH style, os.PathListSeparator).
func (e Environment) AppendPath(key, dir string) Environment {
	current := e.Get(key)
	if current == "" {
		return e.With(key, dir)
	}
	return e.With(key, current+string(os.PathListSeparator)+dir)
}

// Pairs renders the snapshot as sorted KEY=VALUE strings for exec.Cmd.Env.
func (e Environment) Pairs() []string {
	pairs := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}
