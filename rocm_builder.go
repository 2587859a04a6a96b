package magmawheel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/magefile/mage/sh"
	"github.com/rs/zerolog"
)

const (
	makeIncFile    = "make.inc"
	hipMakefile    = "make.gen.hipMAGMA"
	sharedLibrary  = "lib/libmagma.so"
	smokeTestBuild = "testing/testing_dgemm"
	buildLocale    = "C.UTF-8"
)

// ROCmBuilder builds MAGMA with hipcc.
//
// The build runs four steps in order:
//  1. configure - copy the make.inc template and append --offload-arch
//     flags for every resolved GPU architecture
//  2. hip - make -f make.gen.hipMAGMA
//  3. shared-library - make lib/libmagma.so
//  4. testing - make testing/testing_dgemm
//
// Architectures are resolved before any step runs.
type ROCmBuilder struct{}

// Name returns the builder name
func (b *ROCmBuilder) Name() string {
	return "ROCm"
}

// CanBuild checks if this builder handles the backend
func (b *ROCmBuilder) CanBuild(backend Backend) bool {
	return backend == BackendROCm
}

// RequiredTools returns the tools needed for ROCm builds
func (b *ROCmBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	return []ToolRequirement{
		{
			Name:    config.makeProgram(),
			Purpose: "MAGMA build driver",
		},
	}
}

// CheckTools verifies that make is available
func (b *ROCmBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// Build resolves the GPU architectures and runs the build steps.
func (b *ROCmBuilder) Build(ctx context.Context, config *BuildConfig) (*BuildResult, error) {
	zerolog.Ctx(ctx).Info().Msg("Building MAGMA for ROCm...")
	result := &BuildResult{Backend: BackendROCm}

	archs, err := ResolveArchitectures(ctx, config)
	if err != nil {
		result.Error = err
		return result, err
	}
	result.Architectures = archs

	return runSteps(ctx, config, result, b.steps(config, archs))
}

func (b *ROCmBuilder) steps(config *BuildConfig, archs []string) []Step {
	jobs := strconv.Itoa(config.parallel())
	mklArg := "MKLROOT=" + config.mklRoot()

	env := rocmEnvironment(config)
	localeEnv := env.With(EnvLang, buildLocale)

	return []Step{
		{
			Name: "configure",
			Action: func(ctx context.Context) error {
				return writeMakeInc(config, archs)
			},
		},
		{
			Name:    "hip",
			Command: b.makeCommand(config, env, "-f", hipMakefile, "-j", jobs),
		},
		{
			Name:    "shared-library",
			Command: b.makeCommand(config, localeEnv, sharedLibrary, "-j", jobs, mklArg),
		},
		{
			Name:    "testing",
			Command: b.makeCommand(config, localeEnv, smokeTestBuild, "-j", jobs, mklArg),
		},
	}
}

func (b *ROCmBuilder) makeCommand(config *BuildConfig, env Environment, args ...string) *BuildCommand {
	return &BuildCommand{
		Path: config.makeProgram(),
		Args: args,
		Dir:  config.Root,
		Env:  env,
	}
}

// rocmEnvironment derives the child environment shared by every ROCm step:
// the ROCm bin directory on PATH and MKLROOT for the MAGMA makefiles.
func rocmEnvironment(config *BuildConfig) Environment {
	env := config.Env.With(EnvMKLRoot, config.mklRoot())
	if root := config.Env.Get(EnvROCmPath); root != "" {
		env = env.AppendPath(EnvPath, filepath.Join(root, "bin"))
	}
	return env
}

// writeMakeInc replaces make.inc with the template and appends one
// DEVCCFLAGS line per architecture.
func writeMakeInc(config *BuildConfig, archs []string) error {
	makeInc := filepath.Join(config.Root, makeIncFile)
	template := filepath.Join(config.Root, config.makeIncTemplate())

	if err := sh.Rm(makeInc); err != nil {
		return err
	}
	if err := sh.Copy(makeInc, template); err != nil {
		return fmt.Errorf("copy %s: %w", template, err)
	}

	f, err := os.OpenFile(makeInc, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(OffloadArchFlags(archs)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
