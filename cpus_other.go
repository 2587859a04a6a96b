//go:build !linux

package magmawheel

import "runtime"

// AvailableCPUs returns the number of logical processors.
func AvailableCPUs() int {
	return runtime.NumCPU()
}
