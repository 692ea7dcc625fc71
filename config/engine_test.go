package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_requests: 5\ntimeout: 2m\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxRequests)
	assert.Equal(t, Default().MaxDepth, cfg.MaxDepth)
	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "max_requests: [1"},
		{"invalid timeout", "timeout: soon"},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "engine.yaml")
		require.NoError(t, os.WriteFile(path, []byte(test.content), 0o644))
		if _, err := Load(path); err == nil {
			t.Errorf("%v: expected an error", test.name)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engine.yaml")
	want := Engine{MaxRequests: 2, MaxDepth: 10, Workers: 4, Timeout: "5s"}
	require.NoError(t, want.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNoTimeout(t *testing.T) {
	d, err := Engine{}.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}
