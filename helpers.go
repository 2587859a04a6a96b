package magmawheel

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// StepError reports a failed build step.
//
// Error renders the step, the command, its exit status and the tail of
// the build output:
//
//	step "shared-library" failed: make lib/libmagma.so -j 4 MKLROOT=/opt/mkl exited with status 2
//
//	Build output:
//	make: *** [lib/libmagma.so] Error 1
type StepError struct {
	Step       string
	Command    string
	ExitStatus int
	Output     []string
	Err        error
}

// maxErrorOutputLines bounds the output echoed in StepError.Error.
const maxErrorOutputLines = 20

func (e *StepError) Error() string {
	var prefix string
	switch {
	case e.Command != "":
		prefix = fmt.Sprintf("step %q failed: %s exited with status %d", e.Step, e.Command, e.ExitStatus)
	case e.Err != nil:
		prefix = fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
	default:
		prefix = fmt.Sprintf("step %q failed", e.Step)
	}

	output := trimOutput(e.Output)
	if len(output) > maxErrorOutputLines {
		output = output[len(output)-maxErrorOutputLines:]
	}
	if len(output) == 0 {
		return prefix
	}
	return fmt.Sprintf("%s\n\nBuild output:\n%s", prefix, strings.Join(output, "\n"))
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// MissingArtifactError reports a build output that is absent at staging time.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing build artifact: %s", e.Path)
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *MissingArtifactError) Unwrap() error {
	return fs.ErrNotExist
}

// MatchesAny reports whether the slash-separated relative path matches
// any of the glob patterns. Invalid patterns are skipped.
//
//	MatchesAny("include/magma.h", "lib/libmagma.so", "include/*.h") // true
func MatchesAny(rel string, patterns ...string) bool {
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// splitLines splits command output into lines, dropping the trailing
// empty line left by a final newline.
func splitLines(output []byte) []string {
	s := strings.TrimRight(string(output), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func trimOutput(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
