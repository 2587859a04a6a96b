package magmawheel

import (
	"context"
	"os/exec"
)

// CommandRunner executes external commands.
//
// Run blocks until the command exits and returns its combined output.
// A non-zero exit is reported as an error; the exit status is recovered
// with sh.ExitStatus, so implementations should return either an
// *exec.ExitError or an error with an ExitStatus() int method.
type CommandRunner interface {
	Run(ctx context.Context, cmd BuildCommand) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd in cmd.Dir with exactly cmd.Env as its environment.
func (ExecRunner) Run(ctx context.Context, cmd BuildCommand) ([]byte, error) {
	//nolint:gosec // Commands are assembled by the builders, not user input
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env.Pairs()
	return c.CombinedOutput()
}
