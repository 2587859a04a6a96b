package magmawheel

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolChecker is an optional interface for builders that require external tools.
//
// Builders can implement this interface to declare their tool dependencies
// and verify that required tools are available before attempting to build.
//
// # Consumer Usage
//
// BuilderFactory.Build checks tools before building when commands run on
// this host:
//
//	if checker, ok := builder.(ToolChecker); ok && config.runsLocally() {
//	    if err := checker.CheckTools(config); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs.
	RequiredTools(config *BuildConfig) []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Returns nil if all required tools are found, or an error describing
	// which tools are missing.
	CheckTools(config *BuildConfig) error
}

// ToolRequirement describes a build tool dependency.
//
//	ToolRequirement{
//	    Name: "make",
//	    Purpose: "MAGMA build driver",
//	}
type ToolRequirement struct {
	// Name is the tool binary name or an absolute path.
	Name string

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
//
// Absolute paths are checked directly by exec.LookPath.
func CheckToolAvailable(tool string) error {
	_, err := exec.LookPath(tool)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// # Error Format
//
// Single missing tool:
//
//	make (MAGMA build driver) not found in PATH
//
// Multiple missing tools:
//
//	missing required tools: make (MAGMA build driver), hipcc (HIP compiler)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		if CheckToolAvailable(req.Name) == nil {
			continue
		}
		if req.Purpose != "" {
			missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missingTools = append(missingTools, req.Name)
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}
