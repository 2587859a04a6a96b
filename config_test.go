package magmawheel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	root := t.TempDir()

	meta, config, err := LoadConfig(root, "", NewEnvironment(nil))
	require.NoError(t, err)
	require.Equal(t, DefaultMetadata(), meta)
	require.Equal(t, root, config.Root)
	require.Equal(t, defaultBuildLib, config.buildLib())
	require.Equal(t, defaultMakeIncTemplate, config.makeIncTemplate())
	require.Equal(t, defaultMKLRoot, config.mklRoot())
}

func TestLoadConfigFromRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFile), `
package "magma-rocm" {
  version      = "2.9.1"
  description  = "MAGMA for ROCm"
  readme       = "${root}/docs/README.md"
  package_data = ["lib/libmagma.so", "include/*.h", "include/*.hpp"]
}

build {
  make_inc_template = "make.inc-examples/make.inc.hip-gcc-openblas"
  mkl_root          = "/opt/intel/mkl"
  build_lib         = "out/lib"
  parallel          = 16
}
`)

	meta, config, err := LoadConfig(root, "", NewEnvironment(nil))
	require.NoError(t, err)

	require.Equal(t, "magma-rocm", meta.Name)
	require.Equal(t, "2.9.1", meta.Version)
	require.Equal(t, "MAGMA for ROCm", meta.Description)
	require.Equal(t, root+"/docs/README.md", meta.Readme)
	require.Equal(t, []string{"lib/libmagma.so", "include/*.h", "include/*.hpp"}, meta.PackageData)
	require.Equal(t, "BSD-3-Clause", meta.License, "unset fields keep defaults")

	require.Equal(t, "make.inc-examples/make.inc.hip-gcc-openblas", config.makeIncTemplate())
	require.Equal(t, "/opt/intel/mkl", config.mklRoot())
	require.Equal(t, "out/lib", config.buildLib())
	require.Equal(t, 16, config.parallel())
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	_, _, err := LoadConfig(t.TempDir(), "/nonexistent/magma.hcl", NewEnvironment(nil))
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownAttribute(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFile), `
build {
  jobs = 4
}
`)

	_, _, err := LoadConfig(root, "", NewEnvironment(nil))
	require.ErrorContains(t, err, "failed to decode")
}

func TestBuildConfigToolchainFromEnvironment(t *testing.T) {
	config := &BuildConfig{Env: NewEnvironment(map[string]string{
		EnvMake:    "gmake",
		EnvMKLRoot: "/opt/intel/oneapi/mkl/latest",
	})}

	require.Equal(t, "gmake", config.makeProgram())
	require.Equal(t, "/opt/intel/oneapi/mkl/latest", config.mklRoot())

	config.MakeProgram = "/usr/bin/make"
	config.MKLRoot = "/opt/mkl"
	require.Equal(t, "/usr/bin/make", config.makeProgram())
	require.Equal(t, "/opt/mkl", config.mklRoot())
}

func TestBuildConfigParallelDefaultsToCPUs(t *testing.T) {
	config := &BuildConfig{}
	require.Equal(t, AvailableCPUs(), config.parallel())
	require.Positive(t, config.parallel())
}
