package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sysdeck/internal/catalog"
	"sysdeck/internal/system"
)

func init() {
	toolsCmd.AddCommand(toolsLsCmd)
	toolsCmd.AddCommand(toolsSchemaCmd)
	toolsCmd.AddCommand(toolsValidateCmd)
	rootCmd.AddCommand(toolsCmd)
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the maintenance-tool catalog",
}

var toolsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List catalog tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			system.Logger.Warn("using built-in catalog", "err", err)
		}
		for _, t := range cat.Tools {
			mark := " "
			if t.Destructive {
				mark = "!"
			}
			fmt.Printf("%s %-14s %-10s %s", mark, t.Name, t.Category, t.Command)
			for _, a := range t.Args {
				fmt.Printf(" %s", a)
			}
			fmt.Println()
		}
		return nil
	},
}

var toolsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for tools.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := catalog.MarshalSchema(catalog.Schema())
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

var toolsValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a catalog file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cat catalog.Catalog
			err error
		)
		if len(args) == 1 {
			cat, err = catalog.LoadFile(args[0])
		} else {
			cat, err = catalog.Load()
		}
		if err != nil {
			return err
		}
		if err := cat.Validate(); err != nil {
			return err
		}
		fmt.Printf("ok: %d tools\n", len(cat.Tools))
		return nil
	},
}
