package magmawheel

import "context"

// Builder drives the native MAGMA build for one backend.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this to find the builder for a backend
//  2. CheckTools() - Factory calls this first when the builder implements
//     ToolChecker and commands run on this host
//  3. Build() - Factory calls this to compile the library
//
// # Example Implementation
//
//	type SYCLBuilder struct{}
//
//	func (b *SYCLBuilder) Name() string { return "SYCL" }
//
//	func (b *SYCLBuilder) CanBuild(backend Backend) bool {
//	    return backend == BackendSYCL
//	}
//
//	func (b *SYCLBuilder) Build(ctx context.Context, config *BuildConfig) (*BuildResult, error) {
//	    return runSteps(ctx, config, &BuildResult{Backend: BackendSYCL}, steps)
//	}
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	Name() string

	// CanBuild reports whether this builder handles the backend.
	CanBuild(backend Backend) bool

	// Build compiles the library under config.Root and returns the result.
	//
	// Returns:
	//   - BuildResult with Success=true on success
	//   - BuildResult with Success=false and the failing step's error
	Build(ctx context.Context, config *BuildConfig) (*BuildResult, error)
}
