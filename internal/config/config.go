package config

import (
	"encoding/json"
	"os"
	"time"

	"gprover/internal/prover"
	"gprover/internal/smt"

	"github.com/pkg/errors"
)

// DefaultFileName is the project config file gprover looks for.
const DefaultFileName = "gprover.json"

type ProjectConfig struct {
	// Solver describes the SMT solver every theorem is checked with.
	Solver SolverConfig `json:"solver"`

	// Prover describes how function bodies are explored.
	Prover ProverConfig `json:"prover"`

	// Runner describes how theorems are scheduled and cached.
	Runner RunnerConfig `json:"runner"`
}

type SolverConfig struct {
	// Backend is the name of a registered solver backend, "z3" or "yices".
	Backend string `json:"backend"`

	// TimeoutMs bounds a single solver check in milliseconds. It must be positive.
	TimeoutMs int64 `json:"timeoutMs"`

	// ResourceLimit is a backend specific step budget. Zero disables it.
	ResourceLimit uint64 `json:"resourceLimit"`

	// Debug logs every query sent to the solver.
	Debug bool `json:"debug"`
}

type ProverConfig struct {
	// MaxPaths bounds the number of execution paths explored per function. Functions with more paths are skipped.
	MaxPaths int `json:"maxPaths"`

	// ValidateCounterexamples replays every counterexample concretely.
	ValidateCounterexamples bool `json:"validateCounterexamples"`
}

type RunnerConfig struct {
	// Workers is the number of theorems proved concurrently.
	Workers int `json:"workers"`

	// CacheFile is the verdict cache database. If empty, no cache is used.
	CacheFile string `json:"cacheFile"`
}

// SMT returns the solver configuration handed to every session.
func (p *ProjectConfig) SMT() smt.Config {
	return smt.Config{
		Backend:       p.Solver.Backend,
		Timeout:       time.Duration(p.Solver.TimeoutMs) * time.Millisecond,
		ResourceLimit: p.Solver.ResourceLimit,
		Debug:         p.Solver.Debug,
	}
}

// Options returns the prover options described by the config.
func (p *ProjectConfig) Options() prover.Options {
	opts := prover.DefaultOptions()
	opts.MaxPaths = p.Prover.MaxPaths
	opts.Validate = p.Prover.ValidateCounterexamples
	return opts
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Fields missing from the
// file keep their default values.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	projectConfig := GetDefaultProjectConfig()
	err = json.Unmarshal(b, projectConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
func (p *ProjectConfig) WriteToFile(path string) error {
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Validate validates that the ProjectConfig meets certain requirements.
func (p *ProjectConfig) Validate() error {
	if err := p.SMT().Validate(); err != nil {
		return err
	}

	if p.Prover.MaxPaths < 0 {
		return errors.Errorf("max paths cannot be negative")
	}

	if p.Runner.Workers <= 0 {
		return errors.Errorf("worker count must be a positive number")
	}
	return nil
}
