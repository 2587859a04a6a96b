package magmawheel

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

const wheelGenerator = "magmapkg"

// WheelName returns the wheel file name for the resolved version.
func (a *Assembler) WheelName() string {
	version, _ := a.Version()
	return fmt.Sprintf("%s-%s-py3-none-%s.whl", distributionName(a.Metadata.Name), version, PlatformTag())
}

// PlatformTag returns the wheel platform tag of the host, e.g.
// linux_x86_64.
func PlatformTag() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		if runtime.GOOS == "linux" {
			arch = "aarch64"
		}
	case "386":
		arch = "i686"
	}
	return runtime.GOOS + "_" + arch
}

// Wheel builds the package and writes the wheel into the dist directory.
// It returns the path of the written wheel.
func (a *Assembler) Wheel(ctx context.Context) (string, error) {
	if err := a.Build(ctx); err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "bdist_wheel")
	defer span.End()

	files, err := a.packageFiles()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.distDir(), 0o755); err != nil {
		return "", err
	}
	wheelPath := filepath.Join(a.distDir(), a.WheelName())

	out, err := os.Create(wheelPath)
	if err != nil {
		return "", err
	}

	if err := a.writeWheel(out, files); err != nil {
		out.Close()
		os.Remove(wheelPath)
		return "", fmt.Errorf("write %s: %w", wheelPath, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Info().Str("wheel", wheelPath).Int("files", len(files)).Msg("Wrote wheel")
	return wheelPath, nil
}

func (a *Assembler) writeWheel(out *os.File, files []string) error {
	version, _ := a.Version()
	distInfo := fmt.Sprintf("%s-%s.dist-info", distributionName(a.Metadata.Name), version)
	modified := time.Now()

	zw := zip.NewWriter(out)
	var record []string

	add := func(name string, data []byte, mode os.FileMode) error {
		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		}
		header.SetMode(mode)

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		record = append(record, recordLine(name, data))
		return nil
	}

	for _, rel := range files {
		src := filepath.Join(a.PackageDir(), filepath.FromSlash(rel))
		info, err := os.Stat(src)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if err := add(a.Metadata.Name+"/"+rel, data, info.Mode()); err != nil {
			return err
		}
	}

	metadata, err := a.metadataFile()
	if err != nil {
		return err
	}

	distInfoFiles := []struct {
		name string
		data string
	}{
		{"METADATA", metadata},
		{"WHEEL", a.wheelFile()},
		{"top_level.txt", a.Metadata.Name + "\n"},
	}
	for _, f := range distInfoFiles {
		if err := add(distInfo+"/"+f.name, []byte(f.data), 0o644); err != nil {
			return err
		}
	}

	recordName := distInfo + "/RECORD"
	record = append(record, recordName+",,")
	w, err := zw.CreateHeader(&zip.FileHeader{Name: recordName, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(strings.Join(record, "\n") + "\n")); err != nil {
		return err
	}

	return zw.Close()
}

// metadataFile renders the core metadata (PKG-INFO / METADATA).
func (a *Assembler) metadataFile() (string, error) {
	version, _ := a.Version()
	meta := a.Metadata

	readme, err := readmeText(a.Config.Root, meta.Readme)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Metadata-Version: 2.1\n")
	fmt.Fprintf(&b, "Name: %s\n", meta.Name)
	fmt.Fprintf(&b, "Version: %s\n", version)
	fmt.Fprintf(&b, "Summary: %s\n", meta.Description)
	if meta.URL != "" {
		fmt.Fprintf(&b, "Home-page: %s\n", meta.URL)
	}
	if meta.Author != "" {
		fmt.Fprintf(&b, "Author: %s\n", meta.Author)
	}
	if meta.AuthorEmail != "" {
		fmt.Fprintf(&b, "Author-email: %s\n", meta.AuthorEmail)
	}
	if meta.License != "" {
		fmt.Fprintf(&b, "License: %s\n", meta.License)
	}
	if meta.RequiresPython != "" {
		fmt.Fprintf(&b, "Requires-Python: %s\n", meta.RequiresPython)
	}
	if readme != "" {
		fmt.Fprintf(&b, "Description-Content-Type: text/markdown\n\n%s", readme)
	}
	return b.String(), nil
}

func (a *Assembler) wheelFile() string {
	return fmt.Sprintf("Wheel-Version: 1.0\nGenerator: %s\nRoot-Is-Purelib: false\nTag: py3-none-%s\n",
		wheelGenerator, PlatformTag())
}

// recordLine renders a RECORD entry: path,sha256=<urlsafe b64>,size.
func recordLine(name string, data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s,sha256=%s,%d", name, base64.RawURLEncoding.EncodeToString(sum[:]), len(data))
}

// distributionName escapes a project name for use in file names.
func distributionName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}
