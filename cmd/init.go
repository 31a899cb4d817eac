package main

import (
	"os"

	"gprover/internal/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var initCommand = &cobra.Command{
	Use:          "init [path]",
	Short:        "write a default project config",
	Long:         ``,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, args []string) error {
		path := config.DefaultFileName
		if len(args) == 1 {
			path = args[0]
		}
		return initExec(path)
	},
}

var Force bool

func init() {
	initCommand.Flags().BoolVar(&Force, "force", false, "overwrite an existing config")
}

func initExec(path string) error {
	if _, err := os.Stat(path); err == nil && !Force {
		return errors.Errorf("%s already exists, use --force to overwrite it", path)
	}
	if err := config.GetDefaultProjectConfig().WriteToFile(path); err != nil {
		return err
	}
	log.Infof("project config written to %s", path)
	return nil
}
