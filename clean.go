package magmawheel

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/sh"
	"github.com/rs/zerolog"
)

// GeneratedPaths lists the absolute paths Clean removes: <name>.egg-info,
// build and dist under the root, the package directory when build_lib
// lies outside build, and the wheel and sdist written to a custom dist
// directory. A custom dist directory itself is never removed.
func (a *Assembler) GeneratedPaths() []string {
	root := a.Config.Root
	buildDir := filepath.Join(root, "build")
	rootDist := filepath.Join(root, defaultDistDir)

	paths := []string{
		filepath.Join(root, a.Metadata.Name+".egg-info"),
		buildDir,
		rootDist,
	}

	if pkg := a.PackageDir(); !within(buildDir, pkg) {
		paths = append(paths, pkg)
	}

	if dist := a.distDir(); dist != rootDist {
		paths = append(paths,
			filepath.Join(dist, a.WheelName()),
			filepath.Join(dist, a.SdistName()),
		)
	}
	return paths
}

// Clean removes the generated paths. The sources, including a make.inc
// in the root, are left alone. Missing paths are not an error, so Clean
// can run any number of times.
func (a *Assembler) Clean(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	for _, path := range a.GeneratedPaths() {
		if err := sh.Rm(path); err != nil {
			return err
		}
		logger.Debug().Str("path", path).Msg("Removed")
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
