package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "scrob",
	Short: "scrob listening-history CLI",
	Long:  "Command line interface for interacting with the scrob listening-history API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the root command for subcommand registration.
func GetRoot() *cobra.Command {
	return RootCmd
}
