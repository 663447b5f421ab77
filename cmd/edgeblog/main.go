package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "edgeblog",
		Short:        "edgeblog - a small self-hosted blog",
		Long:         `edgeblog serves a blog with a hidden admin panel. Configuration comes from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newHashPasswordCommand(),
		newSessionsCommand(),
		newVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
