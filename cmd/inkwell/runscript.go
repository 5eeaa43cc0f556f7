package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input/keymap"
	"github.com/dshills/inkwell/internal/plugin/lua"
)

func newRunCmd(a *app) *cobra.Command {
	var from, to, out string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run <script.lua> [document]",
		Short: "Run a Lua script against a document",
		Long: `Run loads the document (or an empty one), executes the script with the
inkwell module available and writes the resulting document.

Relative script names that do not exist are looked up under
scripts.path.`,
		Example: `  inkwell run bold-titles.lua notes.md -o notes.md
  echo "# Draft" | inkwell run tidy.lua - --to html`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := a.resolveScript(args[0])

			var docPath, content string
			if len(args) > 1 {
				docPath = args[1]
				var err error
				if content, err = readDocument(cmd.InOrStdin(), docPath); err != nil {
					return err
				}
			}
			src, err := formatOf(from, docPath, engine.FormatMarkdown)
			if err != nil {
				return err
			}
			dst, err := formatOf(to, "", src)
			if err != nil {
				return err
			}

			ed, err := a.openEditor(src, content)
			if err != nil {
				return err
			}
			defer ed.Close()

			km := keymap.NewRegistry(a.cfg.Editor.Mac)
			if err := keymap.LoadDefaults(km); err != nil {
				return err
			}
			if err := a.cfg.ApplyKeymap(km); err != nil {
				return err
			}
			d := dispatcher.New(dispatcher.DefaultConfig().WithMac(a.cfg.Editor.Mac),
				dispatcher.WithEditor(ed),
				dispatcher.WithKeymaps(km),
				dispatcher.WithLogger(a.logger),
			)
			d.Hooks().Register(hook.NewAuditHook(a.logger))

			opts := append(a.cfg.ScriptOptions(a.logger), lua.WithPrintOutput(cmd.ErrOrStderr()))
			host, err := lua.NewHost(ed, d, opts...)
			if err != nil {
				return err
			}
			defer host.Close()

			if err := host.Run(cmd.Context(), script); err != nil {
				return fmt.Errorf("running %s: %w", script, err)
			}
			if quiet {
				return nil
			}
			result, err := ed.Export(dst)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), out, result)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "document format (markdown, html)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "output format (default the document format)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not write the resulting document")
	return cmd
}

func (a *app) resolveScript(name string) string {
	if filepath.IsAbs(name) || a.cfg.Scripts.Path == "" {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join(a.cfg.Scripts.Path, name)
}
