package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultProjectConfig(t *testing.T) {
	cfg := GetDefaultProjectConfig()
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, "z3", cfg.SMT().Backend)
	assert.Equal(t, 5*time.Second, cfg.SMT().Timeout)
	assert.Equal(t, 64, cfg.Options().MaxPaths)
	assert.True(t, cfg.Options().Validate)
}

func Test_ProjectConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	cfg := GetDefaultProjectConfig()
	cfg.Solver.Backend = "yices"
	cfg.Solver.TimeoutMs = 250
	cfg.Runner.CacheFile = "verdicts.db"
	require.Nil(t, cfg.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	require.Nil(t, err)
	assert.Equal(t, cfg, read)
	assert.Equal(t, 250*time.Millisecond, read.SMT().Timeout)
}

func Test_ProjectConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.Nil(t, os.WriteFile(path, []byte(`{"prover": {"maxPaths": 8}}`), 0644))

	cfg, err := ReadProjectConfigFromFile(path)
	require.Nil(t, err)
	assert.Equal(t, 8, cfg.Prover.MaxPaths)
	assert.True(t, cfg.Prover.ValidateCounterexamples)
	assert.Equal(t, "z3", cfg.Solver.Backend)

	require.Nil(t, os.WriteFile(path, []byte(`{"prover": `), 0644))
	_, err = ReadProjectConfigFromFile(path)
	assert.NotNil(t, err)

	_, err = ReadProjectConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.NotNil(t, err)
}

func Test_ProjectConfigValidate(t *testing.T) {
	invalid := []func(*ProjectConfig){
		func(c *ProjectConfig) { c.Solver.Backend = "" },
		func(c *ProjectConfig) { c.Solver.TimeoutMs = 0 },
		func(c *ProjectConfig) { c.Prover.MaxPaths = -1 },
		func(c *ProjectConfig) { c.Runner.Workers = 0 },
	}
	for i, mutate := range invalid {
		cfg := GetDefaultProjectConfig()
		mutate(cfg)
		assert.NotNil(t, cfg.Validate(), i)
	}
}
