package magmawheel

import (
	"context"

	"github.com/rs/zerolog"
)

// CPUBuilder handles hosts without a GPU toolchain. Nothing is compiled;
// a previously built lib/libmagma.so is packaged as is.
type CPUBuilder struct{}

// Name returns the builder name
func (b *CPUBuilder) Name() string {
	return "CPU"
}

// CanBuild checks if this builder handles the backend
func (b *CPUBuilder) CanBuild(backend Backend) bool {
	return backend == BackendNone || backend == ""
}

// Build skips the native build
func (b *CPUBuilder) Build(ctx context.Context, config *BuildConfig) (*BuildResult, error) {
	zerolog.Ctx(ctx).Debug().Str("library", sharedLibrary).Msg("Skipping native build, using pre-built library")
	return &BuildResult{Backend: BackendNone, Success: true}, nil
}
