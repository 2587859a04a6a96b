package magmawheel

import (
	"context"

	"github.com/rs/zerolog"
)

// CUDABuilder is the extension point for CUDA builds.
//
// It announces the build and returns success without running any step;
// staging then expects a library built beforehand.
type CUDABuilder struct{}

// Name returns the builder name
func (b *CUDABuilder) Name() string {
	return "CUDA"
}

// CanBuild checks if this builder handles the backend
func (b *CUDABuilder) CanBuild(backend Backend) bool {
	return backend == BackendCUDA
}

// Build logs the CUDA notice
func (b *CUDABuilder) Build(ctx context.Context, config *BuildConfig) (*BuildResult, error) {
	// TODO: drive make.inc.cuda-gcc-mkl and the CUDA make targets once a
	// CUDA build host is available for verification.
	zerolog.Ctx(ctx).Info().Msg("Building MAGMA for CUDA...")
	return &BuildResult{Backend: BackendCUDA, Success: true}, nil
}
