package magmawheel

import (
	"context"
	"fmt"
)

// BuilderFactory manages the registration and selection of backend builders.
//
// # Usage
//
// Create a factory with all standard builders:
//
//	factory := magmawheel.NewBuilderFactory()
//	result, err := factory.Build(ctx, config, magmawheel.BackendROCm)
//
// Or create an empty factory and register custom builders:
//
//	factory := &magmawheel.BuilderFactory{}
//	factory.Register(&MyBuilder{})
//
// # Thread Safety
//
// BuilderFactory is NOT thread-safe for registration.
// Register all builders before use.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with the ROCm, CUDA and CPU builders.
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&ROCmBuilder{})
	factory.Register(&CUDABuilder{})
	factory.Register(&CPUBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the first registered builder for the backend.
func (f *BuilderFactory) BuilderFor(backend Backend) (Builder, error) {
	for _, builder := range f.builders {
		if builder.CanBuild(backend) {
			return builder, nil
		}
	}

	return nil, fmt.Errorf("no builder found for backend: %s", backend)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// Build selects the builder for backend and runs it.
//
// Builders implementing ToolChecker have their tools checked first, but
// only when commands run on this host through ExecRunner. Even if an
// error is returned, the result holds the steps that ran.
func (f *BuilderFactory) Build(ctx context.Context, config *BuildConfig, backend Backend) (*BuildResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &BuildResult{Backend: backend, Error: ctxErr}, ctxErr
	}

	builder, err := f.BuilderFor(backend)
	if err != nil {
		return &BuildResult{Backend: backend, Error: err}, err
	}

	config.Metrics.setBackend(backend)

	if checker, ok := builder.(ToolChecker); ok && config.runsLocally() {
		if err := checker.CheckTools(config); err != nil {
			err = fmt.Errorf("build tools missing: %w", err)
			return &BuildResult{Backend: backend, Error: err}, err
		}
	}

	result, err := builder.Build(ctx, config)
	if result == nil {
		result = &BuildResult{Backend: backend, Error: err}
	}
	return result, err
}
