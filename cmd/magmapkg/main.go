// Command magmapkg builds MAGMA for the GPU backend of the host and
// packages it as a Python wheel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	magmawheel "github.com/contriboss/magma-wheel-go"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	opts, exit, err := Parse(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	if exit {
		return 0
	}

	level, _ := zerolog.ParseLevel(opts.LogLevel)
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	if opts.OTel {
		shutdown, err := magmawheel.InitStdoutTracing("magmapkg")
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize tracer")
			return 1
		}
		defer shutdown(context.Background())
	}

	if err := Run(ctx, opts, magmawheel.OSEnvironment()); err != nil {
		log.Error().Err(err).Str("verb", opts.Verb).Msg("Failed")
		return exitCode(err)
	}
	return 0
}
