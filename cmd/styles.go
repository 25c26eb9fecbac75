package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdview/internal/renderer"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available syntax highlighting styles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range renderer.StyleNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}
