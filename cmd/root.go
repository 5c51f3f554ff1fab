// Package cmd implements the gost-sbom command line.
package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// fs is where the CLI reads SBOM files and writes output.
var fs = afero.NewOsFs()

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "gost-sbom [command]",
		Short:        "validate, store and unify CycloneDX SBOMs with GOST attributes",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "read settings from a config file (yaml, json or toml)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newValidateCmd(&configPath))
	rootCmd.AddCommand(newUnifyCmd())
	rootCmd.AddCommand(newSubmitCmd(&configPath))
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
