package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/autoback/cmd"
	"github.com/thoreinstein/autoback/internal/errors"
	"github.com/thoreinstein/autoback/internal/paths"
)

var (
	genDocDir    string
	genDocFormat string
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate documentation for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return runGenDocWithWriter(genDocDir, genDocFormat, c.OutOrStdout())
	},
}

func init() {
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "", "output directory for documentation")
	genDocCmd.Flags().StringVar(&genDocFormat, "format", "markdown", "output format: markdown, man")
	rootCmd.AddCommand(genDocCmd)
}

func runGenDocWithWriter(dir, format string, w io.Writer) error {
	if dir == "" {
		return errors.NewUserError(
			errors.Wrap(errors.ErrInvalidArgument, "output directory is required"),
			"Pass --dir",
		)
	}
	if err := paths.EnsureDir(dir, paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	// Generated files should not depend on the build date.
	rootCmd.DisableAutoGenTag = true

	switch format {
	case "markdown", "md":
		if err := doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler); err != nil {
			return errors.Wrap(err, "generating markdown")
		}
	case "man":
		header := &doc.GenManHeader{
			Title:   "AUTOBACK",
			Section: "1",
			Source:  "autoback " + cmd.Version,
		}
		if err := doc.GenManTree(rootCmd, header, dir); err != nil {
			return errors.Wrap(err, "generating man pages")
		}
	default:
		return errors.NewUserError(
			errors.Wrapf(errors.ErrInvalidArgument, "unknown format %q", format),
			"Use --format markdown or man",
		)
	}

	fmt.Fprintf(w, "Documentation generated in %s\n", dir)
	return nil
}

func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	// autoback_config_edit.md -> autoback config edit
	title := strings.ReplaceAll(base, "_", " ")

	return fmt.Sprintf(`---
title: "%s"
description: "Reference for %s command"
---
`, title, title)
}

func linkHandler(name string) string {
	return strings.ToLower(name)
}
