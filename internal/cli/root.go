package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sysdeck/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "sysdeck",
	Short: "sysdeck – install & repair dashboard",
	Long:  "sysdeck is an interactive dashboard for installing and repairing a Linux system, handing the terminal to external maintenance tools when needed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default action: launch the TUI
		return app.Start()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
