package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mdview/internal/config"
	"github.com/conneroisu/mdview/internal/renderer"
	"github.com/conneroisu/mdview/internal/server"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.md>",
	Short: "Render one markdown file to a standalone HTML page",
	Long: `Render one markdown file to the same page the server would send.

Examples:
  mdview render README.md               # Write the page to stdout
  mdview render README.md -o out.html   # Write the page to a file
  mdview render notes.md --strict       # Strict CommonMark, no extensions`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderStrict bool
	renderOutput string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "render as strict CommonMark")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default stdout)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	srv, err := server.New(cfg, server.WithLogger(newLogger(cfg, cmd.ErrOrStderr())))
	if err != nil {
		return err
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	page, err := srv.Page(src, renderer.FlavorFor(renderStrict))
	if err != nil {
		return err
	}

	if renderOutput != "" {
		return os.WriteFile(renderOutput, page, 0644)
	}
	_, err = cmd.OutOrStdout().Write(page)
	return err
}
