//go:build linux

package magmawheel

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableCPUs returns the number of processors this process may run on,
// honoring the scheduler affinity mask (taskset, cgroup cpusets).
func AvailableCPUs() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}
