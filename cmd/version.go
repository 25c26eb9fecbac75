package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdview/internal/version"
)

var (
	versionFlags *OutputFlags
	versionShort bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for mdview: version, commit, build time,
Go version and platform.

Examples:
  mdview version              # Show detailed version info
  mdview version --short      # Show short version
  mdview version -f json      # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFlags = AddOutputFlags(versionCmd.Flags(), "text", "json")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch {
	case strings.EqualFold(versionFlags.Format, "json"):
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case versionShort:
		_, err := fmt.Fprintln(out, info.Short())
		return err
	default:
		_, err := fmt.Fprintf(out, "mdview %s\n%s\n", info.Short(), info)
		return err
	}
}
