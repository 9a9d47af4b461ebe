// Package pipeline executes all registered pipes in sequence.
//
// The pipeline runs pipes in stages:
//   - Validation: every CheckPipe, so configuration errors surface before
//     any tool runs
//   - Execution: resolve the version, link the runtime, package installers
//     for the host platform, then sign, notarize and publish
//
// Usage:
//
//	ctx := context.NewContext(context.Background(), cfg, logger)
//	if err := pipeline.RunValidation(ctx); err != nil {
//	    // Handle validation error
//	}
//	if err := pipeline.RunAll(ctx); err != nil {
//	    // Handle error
//	}
package pipeline

import (
	"fmt"
	"time"

	"github.com/bundlesmith/bundlesmith/pkg/context"
	"github.com/bundlesmith/bundlesmith/pkg/logging"
	"github.com/bundlesmith/bundlesmith/pkg/pipe"
)

// Stage is an ordered group of pipes run as one unit.
type Stage struct {
	Name  string
	Pipes []pipe.Piper
}

// Validation checks the configuration without side effects. Execution
// builds, signs, notarizes and publishes the installers.
var (
	Validation = Stage{Name: "validation", Pipes: pipe.ValidationPipes}
	Execution  = Stage{Name: "execution", Pipes: pipe.ExecutionPipes}
)

// RunValidation runs the validation stage. Used by the check command.
func RunValidation(ctx *context.Context) error {
	return Validation.Run(ctx)
}

// RunExecution runs the execution stage. Call it after RunValidation
// succeeds.
func RunExecution(ctx *context.Context) error {
	return Execution.Run(ctx)
}

// RunAll runs validation then execution, stopping at the first failure.
func RunAll(ctx *context.Context) error {
	for _, s := range []Stage{Validation, Execution} {
		if err := s.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the stage's pipes in order. Cancellation is checked before
// each pipe; a pipe that is already running is left to finish. Errors are
// prefixed with the failing pipe's name.
func (s Stage) Run(ctx *context.Context) error {
	start := time.Now()
	skipped := 0

	for _, p := range s.Pipes {
		name := p.String()
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: cancelled: %w", name, err)
		}

		ctx.Logger.WithField(logging.StepField, name).Info()
		stepStart := time.Now()

		switch err := p.Run(ctx); {
		case err == nil:
			ctx.Logger.Debugf("Completed: %s (%s)", name, time.Since(stepStart).Round(time.Millisecond))
		case pipe.Skipped(err):
			skipped++
			ctx.Logger.Infof("Skipping: %v", err)
		default:
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	ctx.Logger.WithField("skipped", skipped).Debugf("%s finished in %s", s.Name, time.Since(start).Round(time.Millisecond))
	return nil
}
