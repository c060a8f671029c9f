package main

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"
)

var (
    configFile string
    verbose    bool

    // svc holds the shared services every subcommand depends on, set up by
    // setup.go's initializeForCLI from the root command's PersistentPreRunE.
    svc *services
)

func main() {
    rootCmd := &cobra.Command{
        Use:   "fuseengine",
        Short: "FUSE pairing engine",
        Long:  "Generates randomized one-on-one pairings for a session's accepted attendees",
        PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
            return initializeForCLI()
        },
    }

    rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
    rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

    rootCmd.AddCommand(
        createIntakeCommand(),
        createRunCommand(),
        createDirectoryCommand(),
        createHistoryCommand(),
        createServeCommand(),
    )

    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintf(os.Stderr, "Error: %v\n", err)
        os.Exit(1)
    }
}
