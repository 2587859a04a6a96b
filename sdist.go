package magmawheel

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

// SourcePatterns are the root-relative globs shipped in a source
// distribution, next to the generated PKG-INFO.
var SourcePatterns = []string{
	"README",
	ConfigFile,
	"include/*.h",
	"src/*",
	"testing/*",
	"make.inc-examples/*",
}

// SdistName returns the source distribution file name.
func (a *Assembler) SdistName() string {
	version, _ := a.Version()
	return fmt.Sprintf("%s-%s.tar.gz", distributionName(a.Metadata.Name), version)
}

// Sdist writes a gzip-compressed tar of the sources into the dist
// directory and returns its path. It does not run the native build.
func (a *Assembler) Sdist(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "sdist")
	defer span.End()

	files, err := a.sourceFiles()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.distDir(), 0o755); err != nil {
		return "", err
	}
	sdistPath := filepath.Join(a.distDir(), a.SdistName())

	out, err := os.Create(sdistPath)
	if err != nil {
		return "", err
	}

	if err := a.writeSdist(out, files); err != nil {
		out.Close()
		os.Remove(sdistPath)
		return "", fmt.Errorf("write %s: %w", sdistPath, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Info().Str("sdist", sdistPath).Int("files", len(files)).Msg("Wrote source distribution")
	return sdistPath, nil
}

// sourceFiles resolves SourcePatterns to sorted, slash-separated paths
// of regular files.
func (a *Assembler) sourceFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range SourcePatterns {
		matches, err := filepath.Glob(filepath.Join(a.Config.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, a.Config.Root, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(a.Config.Root, match)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if _, dup := seen[rel]; dup {
				continue
			}
			seen[rel] = struct{}{}
			files = append(files, rel)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (a *Assembler) writeSdist(out io.Writer, files []string) error {
	version, _ := a.Version()
	prefix := fmt.Sprintf("%s-%s/", distributionName(a.Metadata.Name), version)

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	pkgInfo, err := a.metadataFile()
	if err != nil {
		return err
	}
	err = tw.WriteHeader(&tar.Header{
		Name:    prefix + "PKG-INFO",
		Mode:    0o644,
		Size:    int64(len(pkgInfo)),
		ModTime: time.Now(),
		Format:  tar.FormatPAX,
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(tw, pkgInfo); err != nil {
		return err
	}

	for _, rel := range files {
		if err := addTarFile(tw, filepath.Join(a.Config.Root, filepath.FromSlash(rel)), prefix+rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addTarFile(tw *tar.Writer, src, name string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name
	header.Format = tar.FormatPAX

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
