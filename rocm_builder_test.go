package magmawheel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newROCmConfig(t *testing.T, runner CommandRunner, vars map[string]string) *BuildConfig {
	t.Helper()
	rocm := filepath.Join(t.TempDir(), "rocm")
	env := map[string]string{
		EnvROCmPath: rocm,
		EnvPath:     "/usr/bin",
	}
	for k, v := range vars {
		env[k] = v
	}
	return &BuildConfig{
		Root:     newMagmaTree(t),
		Env:      NewEnvironment(env),
		Parallel: 4,
		MKLRoot:  "/opt/mkl",
		Runner:   runner,
	}
}

func TestROCmBuildWithProbedArchitectures(t *testing.T) {
	runner := &fakeRunner{
		respond: func(cmd BuildCommand) ([]byte, error) {
			if cmd.Path == archProbe {
				return []byte("gfx900\ngfx000\n\n"), nil
			}
			return []byte("ok\n"), nil
		},
	}
	config := newROCmConfig(t, runner, nil)

	result, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, BackendROCm, result.Backend)
	require.Equal(t, []string{"gfx900"}, result.Architectures)

	makeInc, err := os.ReadFile(filepath.Join(config.Root, makeIncFile))
	require.NoError(t, err)
	require.Equal(t, "GPU_TARGET = gfx900\n\nDEVCCFLAGS += --offload-arch=gfx900", string(makeInc))

	expected := []string{
		"rocm_agent_enumerator",
		"make -f make.gen.hipMAGMA -j 4",
		"make lib/libmagma.so -j 4 MKLROOT=/opt/mkl",
		"make testing/testing_dgemm -j 4 MKLROOT=/opt/mkl",
	}
	if diff := cmp.Diff(expected, runner.rendered()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for _, step := range result.Steps {
		names = append(names, step.Name)
		require.True(t, step.Success())
	}
	require.Equal(t, []string{"configure", "hip", "shared-library", "testing"}, names)
}

func TestROCmBuildUsesConfiguredArchitectures(t *testing.T) {
	runner := &fakeRunner{}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx90a;gfx942"})

	result, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.NoError(t, err)
	require.Equal(t, []string{"gfx90a", "gfx942"}, result.Architectures)

	for _, cmd := range runner.commands {
		require.NotEqual(t, archProbe, filepath.Base(cmd.Path))
	}
	require.Len(t, runner.commands, 3)

	makeInc, err := os.ReadFile(filepath.Join(config.Root, makeIncFile))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(makeInc),
		"\nDEVCCFLAGS += --offload-arch=gfx90a\nDEVCCFLAGS += --offload-arch=gfx942"))
}

func TestROCmBuildDerivesChildEnvironments(t *testing.T) {
	runner := &fakeRunner{}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx90a"})

	langBefore, langSet := os.LookupEnv(EnvLang)
	mklBefore, mklSet := os.LookupEnv(EnvMKLRoot)

	_, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.NoError(t, err)
	require.Len(t, runner.commands, 3)

	rocmBin := filepath.Join(config.Env.Get(EnvROCmPath), "bin")
	for _, cmd := range runner.commands {
		require.Equal(t, config.Root, cmd.Dir)
		require.Equal(t, "/opt/mkl", cmd.Env.Get(EnvMKLRoot))
		require.True(t, strings.HasSuffix(cmd.Env.Get(EnvPath), rocmBin), cmd.Env.Get(EnvPath))
	}

	_, hipHasLang := runner.commands[0].Env.Lookup(EnvLang)
	require.False(t, hipHasLang)
	require.Equal(t, buildLocale, runner.commands[1].Env.Get(EnvLang))
	require.Equal(t, buildLocale, runner.commands[2].Env.Get(EnvLang))

	// Neither the caller's snapshot nor the process environment changed.
	_, ok := config.Env.Lookup(EnvLang)
	require.False(t, ok)
	require.Equal(t, "/usr/bin", config.Env.Get(EnvPath))

	langAfter, langSetAfter := os.LookupEnv(EnvLang)
	require.Equal(t, langSet, langSetAfter)
	require.Equal(t, langBefore, langAfter)
	mklAfter, mklSetAfter := os.LookupEnv(EnvMKLRoot)
	require.Equal(t, mklSet, mklSetAfter)
	require.Equal(t, mklBefore, mklAfter)
}

func TestROCmBuildStopsAtFirstFailure(t *testing.T) {
	runner := &fakeRunner{
		respond: func(cmd BuildCommand) ([]byte, error) {
			if len(cmd.Args) > 0 && cmd.Args[0] == sharedLibrary {
				return []byte("make: *** [lib/libmagma.so] Error 1\n"), exitWith(2, "exit status 2")
			}
			return nil, nil
		},
	}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx90a"})

	result, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.Error(t, err)
	require.False(t, result.Success)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	require.Equal(t, "shared-library", stepErr.Step)
	require.Equal(t, 2, stepErr.ExitStatus)
	require.Equal(t, "make lib/libmagma.so -j 4 MKLROOT=/opt/mkl", stepErr.Command)

	require.Len(t, runner.commands, 2, "testing target must not run")
	require.Len(t, result.Steps, 3)
	require.Equal(t, "shared-library", result.FailedStep().Name)
	require.Equal(t, 2, result.FailedStep().ExitStatus)
}

func TestROCmBuildReplacesExistingMakeInc(t *testing.T) {
	config := newROCmConfig(t, &fakeRunner{}, map[string]string{EnvROCmArch: "gfx942"})
	writeFile(t, filepath.Join(config.Root, makeIncFile), "stale\nDEVCCFLAGS += --offload-arch=gfx803\n")

	_, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.NoError(t, err)

	makeInc, err := os.ReadFile(filepath.Join(config.Root, makeIncFile))
	require.NoError(t, err)
	require.NotContains(t, string(makeInc), "stale")
	require.NotContains(t, string(makeInc), "gfx803")
}

func TestROCmBuildMissingTemplate(t *testing.T) {
	runner := &fakeRunner{}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx942"})
	config.MakeIncTemplate = "make.inc-examples/does-not-exist"

	result, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.Error(t, err)
	require.Equal(t, "configure", result.FailedStep().Name)
	require.Empty(t, runner.commands)
}

func TestROCmBuildRespectsMakeVariable(t *testing.T) {
	runner := &fakeRunner{}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx942", EnvMake: "gmake"})

	_, err := (&ROCmBuilder{}).Build(context.Background(), config)
	require.NoError(t, err)
	for _, cmd := range runner.commands {
		require.Equal(t, "gmake", cmd.Path)
	}
}

func TestROCmBuildCanceledContext(t *testing.T) {
	runner := &fakeRunner{}
	config := newROCmConfig(t, runner, map[string]string{EnvROCmArch: "gfx942"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := (&ROCmBuilder{}).Build(ctx, config)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, result.Success)
	require.Empty(t, runner.commands)
}
