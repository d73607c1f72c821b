package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/config"
)

func parsedServeCmd(t *testing.T, args ...string) (*cobra.Command, *serveFlags) {
	t.Helper()

	flags := &serveFlags{}
	cmd := &cobra.Command{Use: "serve"}
	flags.register(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, flags
}

func TestLoadConfigNormalizesFlagOverrides(t *testing.T) {
	cmd, flags := parsedServeCmd(t,
		"--env", "Development",
		"--log-level", "WARN",
		"--api-base", "http://api.example:8000/",
		"--port", "4100",
	)

	cfg, err := loadConfig(cmd, flags)
	require.NoError(t, err)

	assert.Equal(t, config.EnvironmentDevelopment, cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://api.example:8000", cfg.APIBaseURL)
	assert.Equal(t, 4100, cfg.Port)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd, flags := parsedServeCmd(t, "--env", "staging")

	_, err := loadConfig(cmd, flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Environment")
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, version+"\n", out.String())
}
