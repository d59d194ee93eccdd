//go:build windows
// +build windows

// File: control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes, matching platform_linux.go's contract.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
