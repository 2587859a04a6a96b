package magmawheel

import (
	"context"
	"strings"
	"time"
)

// Backend is the GPU platform MAGMA is compiled against.
type Backend string

const (
	BackendNone Backend = "none"
	BackendCUDA Backend = "cuda"
	BackendROCm Backend = "rocm"
)

func (b Backend) String() string {
	if b == "" {
		return string(BackendNone)
	}
	return string(b)
}

// BuildCommand is one external process invocation.
//
// Path is the executable (a name resolved through PATH or an absolute
// path), Dir the working directory and Env the complete environment of
// the child. A zero Env means an empty environment, not the parent's.
type BuildCommand struct {
	Path string
	Args []string
	Dir  string
	Env  Environment
}

// String renders the command line the way a shell user would type it.
func (c BuildCommand) String() string {
	parts := append([]string{c.Path}, c.Args...)
	return strings.Join(parts, " ")
}

// Step is a named unit of work in a build sequence.
//
// A step either runs Command through the configured CommandRunner, or
// calls Action in process. Exactly one of the two is set.
type Step struct {
	Name    string
	Command *BuildCommand
	Action  func(ctx context.Context) error
}

// StepResult is the outcome of a single Step.
type StepResult struct {
	Name       string        // Step name, e.g. "hip"
	Command    string        // Rendered command line, empty for in-process steps
	ExitStatus int           // Exit status of the command, 0 on success
	Output     []string      // Captured combined output lines
	Duration   time.Duration // Wall time spent in the step
	Err        error         // Non-nil if the step failed
}

// Success reports whether the step completed without error.
func (r StepResult) Success() bool {
	return r.Err == nil
}

// BuildResult contains the output and status of a native build.
//
// After a build completes, this structure provides:
//   - The backend the build ran for
//   - The GPU architectures the build targeted (ROCm only)
//   - One StepResult per executed step, in order
//   - Error information if the build failed
type BuildResult struct {
	Backend       Backend      // Backend the build ran for
	Architectures []string     // Resolved offload architectures
	Steps         []StepResult // Results of executed steps, in order
	Success       bool         // True if every step succeeded
	Error         error        // First error, nil on success
}

// FailedStep returns the failing step, or nil when the build succeeded.
func (r *BuildResult) FailedStep() *StepResult {
	for i := range r.Steps {
		if !r.Steps[i].Success() {
			return &r.Steps[i]
		}
	}
	return nil
}

// BuildConfig contains configuration for the native build.
//
// Source paths:
//   - Root: MAGMA source root, where make runs and lib/ and include/ live
//   - BuildLib: package build tree, relative to Root (default "build/lib")
//   - MakeIncTemplate: make.inc template, relative to Root
//
// Toolchain:
//   - Env: environment snapshot the build reads and derives child
//     environments from
//   - MakeProgram: make executable (default $MAKE, then "make")
//   - MKLRoot: value passed as MKLROOT to the MAGMA makefiles
//   - Parallel: jobs passed as -j (0 = processors available)
//
// Collaborators:
//   - Runner: executes external commands (default ExecRunner)
//   - Metrics: optional step metrics
type BuildConfig struct {
	// Source paths
	Root            string
	BuildLib        string
	MakeIncTemplate string

	// Toolchain
	Env         Environment
	MakeProgram string
	MKLRoot     string
	Parallel    int

	// Collaborators
	Runner  CommandRunner
	Metrics *Metrics

	Verbose bool
}

const (
	defaultBuildLib        = "build/lib"
	defaultMakeIncTemplate = "make.inc-examples/make.inc.hip-gcc-mkl"
	defaultMKLRoot         = "/opt/conda/envs/py_3.10"
	defaultMakeProgram     = "make"
)

func (c *BuildConfig) runner() CommandRunner {
	if c.Runner != nil {
		return c.Runner
	}
	return ExecRunner{}
}

// runsLocally reports whether commands execute on this host, so that the
// local PATH is the one they see.
func (c *BuildConfig) runsLocally() bool {
	_, local := c.runner().(ExecRunner)
	return local
}

func (c *BuildConfig) parallel() int {
	if c.Parallel > 0 {
		return c.Parallel
	}
	return AvailableCPUs()
}

func (c *BuildConfig) makeProgram() string {
	if c.MakeProgram != "" {
		return c.MakeProgram
	}
	if m := c.Env.Get(EnvMake); m != "" {
		return m
	}
	return defaultMakeProgram
}

func (c *BuildConfig) mklRoot() string {
	if c.MKLRoot != "" {
		return c.MKLRoot
	}
	if m := c.Env.Get(EnvMKLRoot); m != "" {
		return m
	}
	return defaultMKLRoot
}

func (c *BuildConfig) buildLib() string {
	if c.BuildLib != "" {
		return c.BuildLib
	}
	return defaultBuildLib
}

func (c *BuildConfig) makeIncTemplate() string {
	if c.MakeIncTemplate != "" {
		return c.MakeIncTemplate
	}
	return defaultMakeIncTemplate
}
