package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/engine"
)

func newPreviewCmd(a *app) *cobra.Command {
	var from, style string
	var width int
	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Render a document in the terminal",
		Long: `Preview normalizes a document to Markdown and renders it for the
terminal. The style is detected from the terminal background unless
--style names one (dark, light, notty, ascii).`,
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
			content, err := readDocument(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			md, err := a.convert(src, engine.FormatMarkdown, content)
			if err != nil {
				return err
			}

			styleOpt := glamour.WithAutoStyle()
			if style != "" {
				styleOpt = glamour.WithStandardStyle(style)
			}
			r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
			if err != nil {
				return fmt.Errorf("creating renderer: %w", err)
			}
			rendered, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("rendering: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "source format (markdown, html)")
	cmd.Flags().StringVarP(&style, "style", "s", "", "glamour style name")
	cmd.Flags().IntVarP(&width, "width", "w", 80, "word wrap width")
	return cmd
}
