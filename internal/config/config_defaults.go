package config

import (
	"runtime"

	"gprover/internal/smt"
)

// GetDefaultProjectConfig obtains a default configuration for a project.
func GetDefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Solver: SolverConfig{
			Backend:   smt.BackendZ3,
			TimeoutMs: smt.DefaultTimeout.Milliseconds(),
		},
		Prover: ProverConfig{
			MaxPaths:                64,
			ValidateCounterexamples: true,
		},
		Runner: RunnerConfig{
			Workers: runtime.NumCPU(),
		},
	}
}
