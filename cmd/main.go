package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

const (
	exitCodeGeneralError = 1
	// exitCodeFailed means at least one contract was disproved.
	exitCodeFailed = 7
)

// exitError carries the exit code of an error that reaches main.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	return e.err.Error()
}

var Verbose bool

var rootCmd = &cobra.Command{
	Use:           "gprover",
	Short:         "gprover, contract verifier for python functions base smt solver",
	Long:          "",
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if Verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func main() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(versionCommand)
	rootCmd.AddCommand(initCommand)
	rootCmd.AddCommand(proveCommand)
	rootCmd.AddCommand(smtlibCommand)

	if err := rootCmd.Execute(); err != nil {
		code := exitCodeGeneralError
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
