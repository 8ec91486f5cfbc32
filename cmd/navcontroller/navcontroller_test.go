package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/nav-controller/pkg/navconfig"
)

func TestLoadConfigMissingUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nav.yaml"))
	require.NoError(t, err)
	assert.Equal(t, navconfig.Default(), cfg)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte("navThresholds: [1, 2"), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestOpenDummySink(t *testing.T) {
	CLI.Sink = "dummy"
	ctrl, closer, err := openSink()
	require.NoError(t, err)
	defer closer()
	assert.IsType(t, &hardware.Dummy{}, ctrl)
}
