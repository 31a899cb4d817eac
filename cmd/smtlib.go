package main

import (
	"fmt"

	"gprover/internal/prover"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var smtlibCommand = &cobra.Command{
	Use:          "smtlib <unit.json>...",
	Short:        "print the solver query of every function",
	Long:         ``,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return smtlibExec(cmd.Flags(), args)
	},
}

var FunctionName string

func init() {
	addSolverFlags(smtlibCommand.Flags())
	smtlibCommand.Flags().StringVar(&FunctionName, "function", "", "only print this function")
}

func smtlibExec(flags *flag.FlagSet, paths []string) error {
	projectConfig, err := loadConfig(flags)
	if err != nil {
		return err
	}
	units, err := loadUnits(paths)
	if err != nil {
		return err
	}

	found := false
	for _, unit := range units {
		for _, th := range prover.TheoremsFromUnit(unit, projectConfig.SMT(), projectConfig.Options()) {
			if FunctionName != "" && th.Name() != FunctionName {
				continue
			}
			found = true
			fmt.Printf("; %s: %s\n", unit.Name, th.Name())
			script, err := th.SMTLIB()
			th.Reset()
			switch {
			case err == nil:
				fmt.Println(script)
			case prover.IsUnsupported(err):
				fmt.Printf("; skipped: %v\n\n", err)
			default:
				return errors.Wrapf(err, "%s: %s", unit.Name, th.Name())
			}
		}
	}
	if !found {
		return errors.New("no function found")
	}
	return nil
}
