package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPaths(t *testing.T, env, cgroup string) {
	t.Helper()

	oldEnv, oldCgroup := dockerEnvFile, cgroupFile
	dockerEnvFile, cgroupFile = env, cgroup
	t.Cleanup(func() { dockerEnvFile, cgroupFile = oldEnv, oldCgroup })
}

func TestInDocker(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")

	envFile := filepath.Join(dir, ".dockerenv")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	dockerCgroup := filepath.Join(dir, "cgroup-docker")
	require.NoError(t, os.WriteFile(dockerCgroup, []byte("0::/docker/abc\n"), 0o600))

	hostCgroup := filepath.Join(dir, "cgroup-host")
	require.NoError(t, os.WriteFile(hostCgroup, []byte("0::/init.scope\n"), 0o600))

	tests := []struct {
		name   string
		env    string
		cgroup string
		want   bool
	}{
		{"dockerenv present", envFile, missing, true},
		{"docker cgroup", missing, dockerCgroup, true},
		{"host cgroup", missing, hostCgroup, false},
		{"nothing readable", missing, missing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withPaths(t, tt.env, tt.cgroup)
			assert.Equal(t, tt.want, InDocker())
		})
	}
}
