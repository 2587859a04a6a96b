//go:build mage

// Mage targets for building and packaging MAGMA.
//
//	mage build
//	mage wheel
//	mage install /path/to/site-packages
package main

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/rs/zerolog"

	magmawheel "github.com/contriboss/magma-wheel-go"
)

// Default target to run when none is specified.
var Default = Wheel

var (
	assemblerOnce sync.Once
	assembler     *magmawheel.Assembler
	assemblerErr  error
)

func loadAssembler() (*magmawheel.Assembler, error) {
	assemblerOnce.Do(func() {
		meta, config, err := magmawheel.LoadConfig(".", os.Getenv("MAGMA_CONFIG"), magmawheel.OSEnvironment())
		if err != nil {
			assemblerErr = err
			return
		}
		config.Verbose = mg.Verbose()
		assembler = magmawheel.NewAssembler(meta, config)
	})
	return assembler, assemblerErr
}

func withLogger(ctx context.Context) context.Context {
	level := zerolog.InfoLevel
	if mg.Verbose() {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}

// Prepare detects the backend, builds MAGMA and stages lib/ and include/.
func Prepare(ctx context.Context) error {
	asm, err := loadAssembler()
	if err != nil {
		return mg.Fatal(2, err)
	}
	if err := asm.Build(withLogger(ctx)); err != nil {
		return mg.Fatal(1, err)
	}
	return nil
}

// Build runs the native build and stages the package tree.
func Build(ctx context.Context) {
	mg.CtxDeps(ctx, Prepare)
}

// BuildExt is an alias of Build.
func BuildExt(ctx context.Context) {
	mg.CtxDeps(ctx, Prepare)
}

// Install copies the built package into dir.
func Install(ctx context.Context, dir string) error {
	mg.CtxDeps(ctx, Prepare)
	asm, _ := loadAssembler()
	return asm.Install(withLogger(ctx), dir)
}

// Wheel writes dist/<name>-<version>-py3-none-<platform>.whl.
func Wheel(ctx context.Context) error {
	mg.CtxDeps(ctx, Prepare)
	asm, _ := loadAssembler()
	_, err := asm.Wheel(withLogger(ctx))
	return err
}

// Sdist writes dist/<name>-<version>.tar.gz.
func Sdist(ctx context.Context) error {
	asm, err := loadAssembler()
	if err != nil {
		return mg.Fatal(2, err)
	}
	_, err = asm.Sdist(withLogger(ctx))
	return err
}

// Clean removes the egg-info, build and dist directories.
func Clean(ctx context.Context) error {
	asm, err := loadAssembler()
	if err != nil {
		return mg.Fatal(2, err)
	}
	return asm.Clean(withLogger(ctx))
}
