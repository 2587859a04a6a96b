package magmawheel

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const defaultDistDir = "dist"

// Assembler wires detection, the native build and staging into the
// packaging verbs.
//
// Every verb that needs the package tree calls Prepare first. Prepare runs
// the Detector, the selected Builder and StageArtifacts exactly once per
// Assembler; later calls return the first outcome.
//
//	asm := magmawheel.NewAssembler(meta, config)
//	if err := asm.Build(ctx); err != nil { ... }
//	wheel, err := asm.Wheel(ctx) // does not rebuild
type Assembler struct {
	Metadata PackageMetadata
	Config   *BuildConfig
	Detector *Detector
	Factory  *BuilderFactory
	Revision RevisionFunc
	DistDir  string // Relative to Config.Root, default "dist"

	prepareOnce sync.Once
	prepared    *BuildResult
	prepareErr  error

	versionOnce sync.Once
	version     string
	revision    string
}

// NewAssembler returns an Assembler using the standard builders, a
// filesystem Detector and git for the revision.
func NewAssembler(meta PackageMetadata, config *BuildConfig) *Assembler {
	return &Assembler{
		Metadata: meta,
		Config:   config,
		Detector: NewDetector(config.Env),
		Factory:  NewBuilderFactory(),
		Revision: GitRevision(config.Root),
	}
}

// Version returns the resolved package version and source revision.
func (a *Assembler) Version() (version, revision string) {
	a.versionOnce.Do(func() {
		a.version, a.revision = ResolveVersion(a.Config.Env, a.Metadata.Version, a.Revision)
	})
	return a.version, a.revision
}

// PackageDir is the package directory inside the build tree.
func (a *Assembler) PackageDir() string {
	return filepath.Join(a.Config.Root, a.Config.buildLib(), a.Metadata.Name)
}

func (a *Assembler) distDir() string {
	dir := a.DistDir
	if dir == "" {
		dir = defaultDistDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.Config.Root, dir)
}

// Prepare is the pre-build hook: detect the backend, run its builder and
// stage the outputs into PackageDir.
func (a *Assembler) Prepare(ctx context.Context) (*BuildResult, error) {
	a.prepareOnce.Do(func() {
		a.prepared, a.prepareErr = a.prepare(ctx)
	})
	return a.prepared, a.prepareErr
}

func (a *Assembler) prepare(ctx context.Context) (*BuildResult, error) {
	ctx, span := tracer.Start(ctx, "prepare")
	defer span.End()

	logger := zerolog.Ctx(ctx)

	backend := a.Detector.Detect(ctx)
	logger.Info().Str("backend", backend.String()).Msg("Selected backend")

	result, err := a.Factory.Build(ctx, a.Config, backend)
	if err != nil {
		return result, fmt.Errorf("error running MAGMA library build: %w", err)
	}

	paths := NewStagingPaths(a.Config.Root, a.Config.buildLib(), a.Metadata.Name)
	logger.Info().Str("build_lib", a.Config.buildLib()).Msg("Build destination")
	if err := StageArtifacts(ctx, paths); err != nil {
		return result, err
	}

	return result, nil
}

// Build runs the hook and leaves the package tree in PackageDir.
func (a *Assembler) Build(ctx context.Context) error {
	version, _ := a.Version()
	zerolog.Ctx(ctx).Info().Msgf("Building wheel %s-%s", a.Metadata.Name, version)

	_, err := a.Prepare(ctx)
	return err
}

// Install builds and copies the package tree into dir/<name>, replacing
// files that already exist.
func (a *Assembler) Install(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("install: destination directory is required")
	}
	if err := a.Build(ctx); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "install")
	defer span.End()

	src := a.PackageDir()
	dst := filepath.Join(dir, a.Metadata.Name)

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
	if err != nil {
		return fmt.Errorf("install %s: %w", dst, err)
	}

	zerolog.Ctx(ctx).Info().Str("dir", dst).Msg("Installed package")
	return nil
}

// packageFiles lists the files of PackageDir that go into a wheel:
// Python sources and files matching the package data patterns. Paths are
// slash-separated and relative to PackageDir.
func (a *Assembler) packageFiles() ([]string, error) {
	root := a.PackageDir()
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if MatchesAny(rel, "*.py") || MatchesAny(rel, a.Metadata.PackageData...) {
			files = append(files, rel)
		}
		return nil
	})

	return files, err
}
