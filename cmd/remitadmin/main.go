// Command remitadmin runs one-off maintenance tasks against the engine's
// store: seeding the catalog, printing reports and minting dev tokens.
package main

import (
	"fmt"
	"os"

	"remit/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "remitadmin",
		Short:         "Administrative tasks for the remittance engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
		},
	}

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
