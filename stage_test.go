package magmawheel

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStagingPaths(t *testing.T) {
	paths := NewStagingPaths("/src/magma", "build/lib", "magma")

	require.Equal(t, filepath.Join("/src/magma", "lib", "libmagma.so"), paths.Lib.Source)
	require.Equal(t, filepath.Join("/src/magma", "build", "lib", "magma", "lib"), paths.Lib.Dest)
	require.Equal(t, filepath.Join("/src/magma", "include"), paths.Include.Source)
	require.Equal(t, filepath.Join("/src/magma", "build", "lib", "magma", "include"), paths.Include.Dest)
}

func TestStageArtifacts(t *testing.T) {
	root := newMagmaTree(t)
	require.NoError(t, os.Chmod(filepath.Join(root, "lib", "libmagma.so"), 0o755))
	writeFile(t, filepath.Join(root, "include", "sub", "nested.h"), "/* nested */\n")

	paths := NewStagingPaths(root, "build/lib", "magma")
	require.NoError(t, StageArtifacts(context.Background(), paths))

	lib := filepath.Join(paths.Lib.Dest, "libmagma.so")
	data, err := os.ReadFile(lib)
	require.NoError(t, err)
	require.Equal(t, "\x7fELF", string(data))

	info, err := os.Stat(lib)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	require.FileExists(t, filepath.Join(paths.Include.Dest, "magma.h"))
	require.FileExists(t, filepath.Join(paths.Include.Dest, "magma_types.h"))
	require.FileExists(t, filepath.Join(paths.Include.Dest, "sub", "nested.h"))
}

func TestStageArtifactsMissingLibraryCreatesNothing(t *testing.T) {
	root := newMagmaTree(t)
	require.NoError(t, os.Remove(filepath.Join(root, "lib", "libmagma.so")))

	paths := NewStagingPaths(root, "build/lib", "magma")
	err := StageArtifacts(context.Background(), paths)

	var missing *MissingArtifactError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, paths.Lib.Source, missing.Path)
	require.NoDirExists(t, filepath.Join(root, "build"))
}

func TestStageArtifactsLibDirIsIdempotent(t *testing.T) {
	root := newMagmaTree(t)
	paths := NewStagingPaths(root, "build/lib", "magma")
	require.NoError(t, os.MkdirAll(paths.Lib.Dest, 0o755))

	require.NoError(t, StageArtifacts(context.Background(), paths))
	require.FileExists(t, filepath.Join(paths.Lib.Dest, "libmagma.so"))
}

func TestStageArtifactsRefusesExistingHeaderDir(t *testing.T) {
	root := newMagmaTree(t)
	paths := NewStagingPaths(root, "build/lib", "magma")
	require.NoError(t, os.MkdirAll(paths.Include.Dest, 0o755))

	err := StageArtifacts(context.Background(), paths)
	require.ErrorIs(t, err, fs.ErrExist)
}

func TestStageArtifactsMissingHeaders(t *testing.T) {
	root := newMagmaTree(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "include")))

	err := StageArtifacts(context.Background(), NewStagingPaths(root, "build/lib", "magma"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}
