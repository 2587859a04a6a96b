package magmawheel

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PathPair is a source and destination path for one staging role.
type PathPair struct {
	Source string
	Dest   string
}

// StagingPaths maps the staging roles to their paths.
//
// Lib.Source is the shared library file and Lib.Dest the directory it is
// copied into. Include.Source is the header tree and Include.Dest the
// directory it is copied to.
type StagingPaths struct {
	Lib     PathPair
	Include PathPair
}

// NewStagingPaths returns the layout for a package named pkg:
//
//	<root>/lib/libmagma.so -> <root>/<buildLib>/<pkg>/lib/
//	<root>/include/        -> <root>/<buildLib>/<pkg>/include/
func NewStagingPaths(root, buildLib, pkg string) StagingPaths {
	packageTarget := filepath.Join(root, buildLib, pkg)
	return StagingPaths{
		Lib: PathPair{
			Source: filepath.Join(root, filepath.FromSlash(sharedLibrary)),
			Dest:   filepath.Join(packageTarget, "lib"),
		},
		Include: PathPair{
			Source: filepath.Join(root, "include"),
			Dest:   filepath.Join(packageTarget, "include"),
		},
	}
}

// StageArtifacts copies the shared library and the header tree into the
// package build tree.
//
// A missing shared library is reported as *MissingArtifactError before
// any destination directory is created. The library directory is created
// idempotently; the header destination must not exist yet.
func StageArtifacts(ctx context.Context, paths StagingPaths) error {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(paths.Lib.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return &MissingArtifactError{Path: paths.Lib.Source}
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", paths.Lib.Source)
	}

	if err := os.MkdirAll(paths.Lib.Dest, 0o755); err != nil {
		return err
	}
	libDest := filepath.Join(paths.Lib.Dest, filepath.Base(paths.Lib.Source))
	if err := copyFile(paths.Lib.Source, libDest); err != nil {
		return fmt.Errorf("stage %s: %w", paths.Lib.Source, err)
	}
	logger.Info().Str("from", paths.Lib.Source).Str("to", libDest).Msg("Staged shared library")

	if err := copyTree(paths.Include.Source, paths.Include.Dest); err != nil {
		return fmt.Errorf("stage %s: %w", paths.Include.Source, err)
	}
	logger.Info().Str("from", paths.Include.Source).Str("to", paths.Include.Dest).Msg("Staged headers")

	return nil
}

// copyTree copies the directory src to dst, which must not exist.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, fs.ErrExist)
	} else if !os.IsNotExist(err) {
		return err
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		}

		return copyFile(path, target)
	})
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
