package magmawheel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// ConfigFile is the optional configuration file looked up in the root.
const ConfigFile = "magma.hcl"

// PackageMetadata describes the distributable.
type PackageMetadata struct {
	Name           string
	Version        string // Static version, before ResolveVersion
	License        string
	Author         string
	AuthorEmail    string
	URL            string
	Description    string
	Readme         string   // Long description file, relative to the root
	RequiresPython string   // Requires-Python specifier
	PackageData    []string // Globs, relative to the package directory
}

// DefaultMetadata returns the metadata used when no config file exists.
func DefaultMetadata() PackageMetadata {
	return PackageMetadata{
		Name:           "magma",
		Version:        "2.9.0",
		License:        "BSD-3-Clause",
		Author:         "ICL",
		AuthorEmail:    "findtheemaillater@icl.edu",
		URL:            "https://github.com/icl-utk-edu/magma/tree/master",
		Readme:         "README",
		RequiresPython: ">=3.9",
		PackageData:    []string{"lib/libmagma.so", "include/*.h"},
	}
}

// fileConfig mirrors magma.hcl:
//
//	package "magma" {
//	  version      = "2.9.0"
//	  license      = "BSD-3-Clause"
//	  readme       = "${root}/README"
//	  package_data = ["lib/libmagma.so", "include/*.h"]
//	}
//
//	build {
//	  make_inc_template = "make.inc-examples/make.inc.hip-gcc-mkl"
//	  mkl_root          = "/opt/intel/mkl"
//	  parallel          = 8
//	}
type fileConfig struct {
	Package *packageBlock `hcl:"package,block"`
	Build   *buildBlock   `hcl:"build,block"`
}

type packageBlock struct {
	Name           string   `hcl:"name,label"`
	Version        string   `hcl:"version,optional"`
	License        string   `hcl:"license,optional"`
	Author         string   `hcl:"author,optional"`
	AuthorEmail    string   `hcl:"author_email,optional"`
	URL            string   `hcl:"url,optional"`
	Description    string   `hcl:"description,optional"`
	Readme         string   `hcl:"readme,optional"`
	RequiresPython string   `hcl:"requires_python,optional"`
	PackageData    []string `hcl:"package_data,optional"`
}

type buildBlock struct {
	MakeIncTemplate string `hcl:"make_inc_template,optional"`
	MKLRoot         string `hcl:"mkl_root,optional"`
	BuildLib        string `hcl:"build_lib,optional"`
	Parallel        int    `hcl:"parallel,optional"`
}

// LoadConfig reads the package metadata and build configuration.
//
// With path empty, <root>/magma.hcl is used when present and defaults
// otherwise. An explicit path must exist. Expressions in the file can
// refer to the variable root, the absolute project root.
func LoadConfig(root, path string, env Environment) (PackageMetadata, *BuildConfig, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return PackageMetadata{}, nil, err
	}

	meta := DefaultMetadata()
	config := &BuildConfig{Root: absRoot, Env: env}

	if path == "" {
		candidate := filepath.Join(absRoot, ConfigFile)
		if !fileExists(candidate) {
			return meta, config, nil
		}
		path = candidate
	}

	parsed, err := parseConfigFile(path, absRoot)
	if err != nil {
		return PackageMetadata{}, nil, err
	}

	if p := parsed.Package; p != nil {
		meta.Name = p.Name
		overlay(&meta.Version, p.Version)
		overlay(&meta.License, p.License)
		overlay(&meta.Author, p.Author)
		overlay(&meta.AuthorEmail, p.AuthorEmail)
		overlay(&meta.URL, p.URL)
		overlay(&meta.Description, p.Description)
		overlay(&meta.Readme, p.Readme)
		overlay(&meta.RequiresPython, p.RequiresPython)
		if len(p.PackageData) > 0 {
			meta.PackageData = p.PackageData
		}
	}

	if b := parsed.Build; b != nil {
		config.MakeIncTemplate = b.MakeIncTemplate
		config.MKLRoot = b.MKLRoot
		config.BuildLib = b.BuildLib
		config.Parallel = b.Parallel
	}

	if meta.Name == "" {
		return PackageMetadata{}, nil, fmt.Errorf("%s: package name must not be empty", path)
	}

	return meta, config, nil
}

func parseConfigFile(path, root string) (*fileConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"root": cty.StringVal(root),
		},
	}

	var parsed fileConfig
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return &parsed, nil
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// readmeText returns the long description, or "" when the file is absent.
func readmeText(root, readme string) (string, error) {
	if readme == "" {
		return "", nil
	}
	if !filepath.IsAbs(readme) {
		readme = filepath.Join(root, readme)
	}
	data, err := os.ReadFile(readme)
	if os.IsNotExist(err) {
		return "", nil
	}
	return string(data), err
}
