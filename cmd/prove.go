package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"gprover/internal/cache"
	"gprover/internal/config"
	"gprover/internal/gprover"
	"gprover/internal/report"
	"gprover/internal/syntax"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var proveCommand = &cobra.Command{
	Use:          "prove <unit.json>...",
	Short:        "prove the contracts of extracted functions",
	Long:         ``,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return proveExec(cmd.Flags(), args)
	},
}

var (
	ConfigFile string
	Backend    string
	TimeoutMs  int64
	Workers    int
	CacheFile  string
	NoColour   bool
)

func init() {
	addSolverFlags(proveCommand.Flags())
	proveCommand.Flags().IntVar(&Workers, "workers", 0, "theorems proved concurrently")
	proveCommand.Flags().StringVar(&CacheFile, "cache", "", "verdict cache database")
	proveCommand.Flags().BoolVar(&NoColour, "no-colour", false, "disable coloured output")
}

func addSolverFlags(flags *flag.FlagSet) {
	flags.StringVar(&ConfigFile, "config", "", "project config file, "+config.DefaultFileName+" when present")
	flags.StringVar(&Backend, "backend", "", "solver backend")
	flags.Int64Var(&TimeoutMs, "timeout", 0, "solver timeout in milliseconds")
}

// loadConfig reads the project config and applies the flags that were set.
func loadConfig(flags *flag.FlagSet) (*config.ProjectConfig, error) {
	projectConfig := config.GetDefaultProjectConfig()
	path := ConfigFile
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		}
	}
	if path != "" {
		var err error
		projectConfig, err = config.ReadProjectConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		log.Debugf("config loaded from %s", path)
	}

	if flags.Changed("backend") {
		projectConfig.Solver.Backend = Backend
	}
	if flags.Changed("timeout") {
		projectConfig.Solver.TimeoutMs = TimeoutMs
	}
	if flags.Changed("workers") {
		projectConfig.Runner.Workers = Workers
	}
	if flags.Changed("cache") {
		projectConfig.Runner.CacheFile = CacheFile
	}
	if err := projectConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return projectConfig, nil
}

func loadUnits(paths []string) ([]*syntax.Unit, error) {
	units := make([]*syntax.Unit, 0, len(paths))
	for _, path := range paths {
		unit, err := gprover.LoadUnit(path)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

func proveExec(flags *flag.FlagSet, paths []string) error {
	projectConfig, err := loadConfig(flags)
	if err != nil {
		return err
	}
	units, err := loadUnits(paths)
	if err != nil {
		return err
	}

	var verdicts *cache.Cache
	if projectConfig.Runner.CacheFile != "" {
		verdicts, err = cache.Open(projectConfig.Runner.CacheFile)
		if err != nil {
			return err
		}
		defer verdicts.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := gprover.NewRunner(projectConfig.SMT(), projectConfig.Options(), projectConfig.Runner.Workers, verdicts)
	entries, err := runner.Run(ctx, units)
	if err != nil {
		return err
	}

	w := report.NewWriter(os.Stdout)
	if NoColour {
		w.SetColour(false)
	}
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			return err
		}
	}
	fmt.Println(w.Summary())
	if w.Failed() {
		return &exitError{err: errors.New("some contracts do not hold"), code: exitCodeFailed}
	}
	return nil
}
