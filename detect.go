package magmawheel

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PathExists reports whether a filesystem path exists.
type PathExists func(path string) bool

// Detector decides which GPU backend is installed on the host.
//
// ROCm wins when $ROCM_PATH/bin/hipcc exists. Otherwise CUDA is chosen
// when $CUDA_HOME/bin/nvcc exists. The two probes are independent: the
// CUDA probe never looks at ROCM_PATH.
type Detector struct {
	Env    Environment
	Exists PathExists
}

// NewDetector returns a Detector that checks the real filesystem.
func NewDetector(env Environment) *Detector {
	return &Detector{Env: env, Exists: fileExists}
}

// Detect returns exactly one of BackendROCm, BackendCUDA or BackendNone.
func (d *Detector) Detect(ctx context.Context) Backend {
	logger := zerolog.Ctx(ctx)

	if hipcc, ok := d.toolchainBinary(EnvROCmPath, "hipcc"); ok {
		logger.Debug().Str("hipcc", hipcc).Msg("ROCm installation found")
		return BackendROCm
	}

	if nvcc, ok := d.toolchainBinary(EnvCUDAHome, "nvcc"); ok {
		logger.Debug().Str("nvcc", nvcc).Msg("CUDA installation found")
		return BackendCUDA
	}

	logger.Info().Msg("No CUDA or ROCm installation found. Building for CPU.")
	return BackendNone
}

// toolchainBinary resolves <$envVar>/bin/<name>. An unset or empty
// variable is "not found".
func (d *Detector) toolchainBinary(envVar, name string) (string, bool) {
	root := d.Env.Get(envVar)
	if root == "" {
		return "", false
	}

	bin := filepath.Join(root, "bin", name)
	exists := d.Exists
	if exists == nil {
		exists = fileExists
	}
	return bin, exists(bin)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
