package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mdview/internal/config"
	"github.com/conneroisu/mdview/internal/scanner"
	"github.com/conneroisu/mdview/internal/server"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the markdown files that would be served",
	Long: `List the markdown files of the served directory in the order the
index page shows them.

Examples:
  mdview list                 # Table with size, modification time and URL path
  mdview list -f json         # Output as JSON
  mdview list --dir docs -f yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listFlags *OutputFlags

func init() {
	rootCmd.AddCommand(listCmd)
	listFlags = AddOutputFlags(listCmd.Flags(), "table", "json", "yaml")
}

type listEntry struct {
	scanner.FileInfo `yaml:",inline"`
	Path             string `json:"path" yaml:"path"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	files, err := scanner.Describe(cfg.Render.Dir)
	if err != nil {
		return err
	}

	entries := make([]listEntry, len(files))
	for i, f := range files {
		entries[i] = listEntry{FileInfo: f, Path: "/" + server.PathEscape(f.Name)}
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFlags.Format) {
	case "json":
		return outputListJSON(out, entries)
	case "yaml":
		return outputListYAML(out, entries)
	default:
		return outputListTable(out, cfg.RootName(), entries)
	}
}

func outputListJSON(w io.Writer, entries []listEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func outputListYAML(w io.Writer, entries []listEntry) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(entries)
}

func outputListTable(w io.Writer, root string, entries []listEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "No markdown files in %s.\n", root)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED\tPATH")
	for _, e := range entries {
		kind := ""
		if e.IsDir {
			kind = " (dir)"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%s\t%s\n", e.Name, kind, e.Size, e.ModTime.Format(time.DateTime), e.Path)
	}
	return tw.Flush()
}
