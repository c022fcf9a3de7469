// Package util holds small helpers about the runtime environment
package util

import (
	"os"
	"strings"
)

var (
	dockerEnvFile = "/.dockerenv"
	cgroupFile    = "/proc/1/cgroup"
)

// InDocker reports whether the process runs inside a container
func InDocker() bool {
	if _, err := os.Stat(dockerEnvFile); err == nil {
		return true
	}

	b, err := os.ReadFile(cgroupFile)
	if err != nil {
		return false
	}

	s := string(b)
	return strings.Contains(s, "docker") || strings.Contains(s, "containerd") || strings.Contains(s, "kubepods")
}
