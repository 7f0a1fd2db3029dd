package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docforge/internal/cliout"
	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/export"
)

var (
	renderKind   string
	renderFormat string
	renderOut    string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a document to PDF or HTML",
	Long:  "Parse and classify a document, then write the paginated PDF (or HTML preview). Without --out the file is written to the current directory under its computed name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderKind, "kind", "k", "resume", "document kind: resume or cover_letter")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "pdf", "artifact format: pdf or html")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output path, or a directory to write the computed filename into")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := cliout.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	kind, err := doctree.ParseKind(renderKind)
	if err != nil {
		return err
	}
	artifactFormat, err := export.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	src, err := readSource(args[0])
	if err != nil {
		return err
	}

	a, err := export.Render(src.Text(), kind, export.Options{Format: artifactFormat})
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = a.Filename
	} else if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, a.Filename)
	}
	if err := os.WriteFile(out, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return cliout.Write(cmd.OutOrStdout(), format, map[string]any{
		"path":   out,
		"kind":   a.Kind,
		"format": a.Format,
		"pages":  a.Pages,
		"bytes":  len(a.Data),
		"name":   a.Header.Name,
	})
}
