package magmawheel

import (
	"context"
	"fmt"
	"time"

	"github.com/magefile/mage/sh"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// runSteps executes steps in order and stops at the first failure.
//
// # Process Flow
//
//  1. Check for context cancellation
//  2. Run the step (command or in-process action)
//  3. Record a StepResult, metrics and a span
//  4. On failure, wrap the cause in a *StepError and stop
//
// The returned BuildResult always holds the results of every step that
// ran, including the failing one. Steps after a failure are not run and
// already-built outputs are left in place.
func runSteps(ctx context.Context, config *BuildConfig, result *BuildResult, steps []Step) (*BuildResult, error) {
	logger := zerolog.Ctx(ctx)

	for _, step := range steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Error = ctxErr
			return result, ctxErr
		}

		logger.Info().Str("step", step.Name).Msg("Running build step")
		stepResult := runStep(ctx, config, step)
		result.Steps = append(result.Steps, stepResult)
		config.Metrics.observeStep(stepResult)

		if !stepResult.Success() {
			logger.Error().Err(stepResult.Err).Str("step", step.Name).Msg("Build step failed")
			result.Error = stepResult.Err
			return result, stepResult.Err
		}

		logger.Info().Str("step", step.Name).Dur("duration", stepResult.Duration).Msg("End of build step")
	}

	result.Success = true
	return result, nil
}

func runStep(ctx context.Context, config *BuildConfig, step Step) StepResult {
	ctx, span := tracer.Start(ctx, "step "+step.Name)
	defer span.End()

	stepResult := StepResult{Name: step.Name}
	start := time.Now()

	switch {
	case step.Command != nil:
		stepResult.Command = step.Command.String()
		span.SetAttributes(
			attribute.String("magma.command", stepResult.Command),
			attribute.String("magma.dir", step.Command.Dir),
		)

		zerolog.Ctx(ctx).Info().Str("command", stepResult.Command).Msg("Running")
		output, err := config.runner().Run(ctx, *step.Command)
		stepResult.Output = splitLines(output)
		if config.Verbose {
			for _, line := range stepResult.Output {
				zerolog.Ctx(ctx).Debug().Str("step", step.Name).Msg(line)
			}
		}
		if err != nil {
			stepResult.ExitStatus = sh.ExitStatus(err)
			stepResult.Err = &StepError{
				Step:       step.Name,
				Command:    stepResult.Command,
				ExitStatus: stepResult.ExitStatus,
				Output:     stepResult.Output,
				Err:        err,
			}
		}

	case step.Action != nil:
		if err := step.Action(ctx); err != nil {
			stepResult.ExitStatus = 1
			stepResult.Err = &StepError{Step: step.Name, ExitStatus: 1, Err: err}
		}

	default:
		stepResult.ExitStatus = 1
		stepResult.Err = &StepError{Step: step.Name, ExitStatus: 1, Err: fmt.Errorf("step has neither a command nor an action")}
	}

	stepResult.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("magma.exit_status", stepResult.ExitStatus))
	if stepResult.Err != nil {
		span.RecordError(stepResult.Err)
		span.SetStatus(codes.Error, "step failed")
	}
	return stepResult
}
