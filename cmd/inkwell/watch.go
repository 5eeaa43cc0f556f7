package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var to, outDir string
	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Convert documents whenever they change",
		Long: `Watch converts each file once and again on every change. Output goes
next to the source, or under --out-dir, with the target format's
extension.`,
		Example: `  inkwell watch docs/*.md --out-dir site`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := watcher.New(watcher.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer w.Close()

			targets := make(map[string]string, len(args))
			for _, path := range args {
				abs, err := filepath.Abs(path)
				if err != nil {
					return err
				}
				dst, err := a.outputPath(abs, to, outDir)
				if err != nil {
					return err
				}
				if dst == abs {
					return fmt.Errorf("%s: output would overwrite the source", path)
				}
				if err := w.Add(abs); err != nil {
					return fmt.Errorf("watching %s: %w", path, err)
				}
				targets[abs] = dst
				a.rebuild(cmd, abs, dst)
			}

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-w.Events():
					if !ok {
						return nil
					}
					if !ev.Op.Has(watcher.OpWrite) && !ev.Op.Has(watcher.OpCreate) {
						continue
					}
					if dst, ok := targets[ev.Path]; ok {
						a.rebuild(cmd, ev.Path, dst)
					}
				case err, ok := <-w.Errors():
					if !ok {
						return nil
					}
					a.logger.Warn("watch error", "error", err)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "target format (default the other format)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for converted files")
	return cmd
}

func (a *app) outputPath(src, to, outDir string) (string, error) {
	from, err := formatOf("", src, engine.FormatMarkdown)
	if err != nil {
		return "", err
	}
	def := engine.FormatHTML
	if from == engine.FormatHTML {
		def = engine.FormatMarkdown
	}
	dst, err := formatOf(to, "", def)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(src)
	if outDir != "" {
		dir = outDir
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(dir, base+extension(dst)), nil
}

// rebuild converts src into dst. Failures are logged.
func (a *app) rebuild(cmd *cobra.Command, src, dst string) {
	from, _ := formatOf("", src, engine.FormatMarkdown)
	target, _ := formatOf("", dst, engine.FormatHTML)

	content, err := readDocument(cmd.InOrStdin(), src)
	if err != nil {
		a.logger.Error("reading document", "path", src, "error", err)
		return
	}
	result, err := a.convert(from, target, content)
	if err != nil {
		a.logger.Error("converting document", "path", src, "error", err)
		return
	}
	if err := writeDocument(nil, dst, result); err != nil {
		a.logger.Error("writing document", "path", dst, "error", err)
		return
	}
	a.logger.Info("converted", "src", src, "dst", dst)
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", src, dst)
}
