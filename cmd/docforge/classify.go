package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docforge/internal/cliout"
	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/export"
	"github.com/dgallion1/docforge/internal/parser"
)

var classifyKind string

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Print the classified blocks of a document",
	Long:  "Parse a .txt, .md, .html, .docx or .pdf file, classify every line and print the resulting blocks, header and sections.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyKind, "kind", "k", "resume", "document kind: resume or cover_letter")
	rootCmd.AddCommand(classifyCmd)
}

// readSource parses path with the parser chosen by its extension.
func readSource(path string) (*parser.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	p, err := parser.ForFile(path, parser.Options{FallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	src, err := p.Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return src, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	format, err := cliout.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	kind, err := doctree.ParseKind(classifyKind)
	if err != nil {
		return err
	}
	src, err := readSource(args[0])
	if err != nil {
		return err
	}

	p := export.Preview(src.Text(), kind)
	return cliout.Write(cmd.OutOrStdout(), format, map[string]any{
		"kind":     p.Kind,
		"header":   p.Header,
		"sections": p.Sections,
		"blocks":   p.Blocks,
	})
}
