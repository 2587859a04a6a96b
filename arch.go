package magmawheel

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
	"github.com/rs/zerolog"
)

const (
	// archProbe enumerates the GPU agents of the local ROCm installation.
	archProbe = "rocm_agent_enumerator"

	// placeholderArch is reported by archProbe for the CPU agent.
	placeholderArch = "gfx000"
)

// ErrNoArchitectures is returned when neither PYTORCH_ROCM_ARCH nor the
// local probe yields a GPU architecture.
var ErrNoArchitectures = errors.New("no GPU architectures configured or detected")

// ResolveArchitectures returns the offload architectures for a ROCm build.
//
// A non-empty PYTORCH_ROCM_ARCH is split on ';' and used as is. When the
// variable is absent or empty, rocm_agent_enumerator is run and its
// output, minus gfx000 and blank lines, is used instead.
func ResolveArchitectures(ctx context.Context, config *BuildConfig) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if list := config.Env.Get(EnvROCmArch); list != "" {
		archs := strings.Split(list, ";")
		logger.Debug().Strs("archs", archs).Msg("Using " + EnvROCmArch)
		return archs, nil
	}

	cmd := BuildCommand{
		Path: probePath(config),
		Dir:  config.Root,
		Env:  rocmEnvironment(config),
	}
	logger.Info().Str("probe", cmd.Path).Msg(EnvROCmArch + " not set, probing local GPUs")

	output, err := config.runner().Run(ctx, cmd)
	if err != nil {
		return nil, &StepError{
			Step:       "detect-architectures",
			Command:    cmd.String(),
			ExitStatus: sh.ExitStatus(err),
			Output:     splitLines(output),
			Err:        err,
		}
	}

	archs := filterArchitectures(splitLines(output))
	if len(archs) == 0 {
		return nil, fmt.Errorf("%s: %w", archProbe, ErrNoArchitectures)
	}

	logger.Info().Strs("archs", archs).Msg("Detected GPU architectures")
	return archs, nil
}

// OffloadArchFlags renders the make.inc lines for archs, each preceded by
// a newline.
func OffloadArchFlags(archs []string) string {
	var b strings.Builder
	for _, arch := range archs {
		fmt.Fprintf(&b, "\nDEVCCFLAGS += --offload-arch=%s", arch)
	}
	return b.String()
}

func filterArchitectures(lines []string) []string {
	var archs []string
	for _, line := range lines {
		arch := strings.TrimSpace(line)
		if arch == "" || arch == placeholderArch {
			continue
		}
		archs = append(archs, arch)
	}
	return archs
}

// probePath prefers the enumerator shipped in $ROCM_PATH/bin. exec
// resolves bare names against the parent's PATH, not the child's.
func probePath(config *BuildConfig) string {
	if root := config.Env.Get(EnvROCmPath); root != "" {
		candidate := filepath.Join(root, "bin", archProbe)
		if fileExists(candidate) {
			return candidate
		}
	}
	return archProbe
}
