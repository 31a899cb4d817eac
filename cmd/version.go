package main

import (
	"fmt"
	"strings"

	"gprover/internal/report"
	"gprover/internal/smt"

	"github.com/spf13/cobra"
)

var (
	BuildBranch  string
	BuildVersion string
	BuildTime    string
	Builder      string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "show version",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		printVersion()
	},
}

func printVersion() {
	rows := [][2]string{
		{"BuildBranch", BuildBranch},
		{"BuildVersion", BuildVersion},
		{"BuildTime", BuildTime},
		{"Builder", Builder},
		{"Backends", strings.Join(smt.Backends(), ", ")},
	}
	for _, row := range rows {
		fmt.Printf("%s %s\n", report.Colour(report.Cyan, fmt.Sprintf("%-16s", row[0])), row[1])
	}
}
