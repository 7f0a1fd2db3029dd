package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docforge/internal/cliout"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the docforge version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cliout.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		return cliout.Write(cmd.OutOrStdout(), format, map[string]string{
			"version": version,
			"go":      runtime.Version(),
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
