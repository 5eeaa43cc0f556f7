package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/engine"
)

func newConvertCmd(a *app) *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between Markdown and HTML",
		Long: `Convert reads a document from file (or stdin), normalizes it through the
document schema and writes it in the target format.

The source format follows --from, then the file extension. The target
defaults to HTML for Markdown input and Markdown otherwise.`,
		Example: `  inkwell convert README.md
  inkwell convert --to md page.html -o page.md
  cat notes.md | inkwell convert --to markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			src, err := formatOf(from, path, engine.FormatMarkdown)
			if err != nil {
				return err
			}
			def := engine.FormatHTML
			if src == engine.FormatHTML {
				def = engine.FormatMarkdown
			}
			dst, err := formatOf(to, "", def)
			if err != nil {
				return err
			}

			content, err := readDocument(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			result, err := a.convert(src, dst, content)
			if err != nil {
				return err
			}
			a.logger.Debug("converted", "from", src, "to", dst, "bytes", len(result))
			return writeDocument(cmd.OutOrStdout(), out, result)
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "source format (markdown, html)")
	cmd.Flags().StringVarP(&to, "to", "t", "", "target format (markdown, html)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
