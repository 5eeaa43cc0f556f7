package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/markdown"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/validate"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries  = 1000
	DefaultGroupDelay      = 500 * time.Millisecond
	DefaultValidationDelay = validate.DefaultDelay
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithSchema sets the schema of the document. It defaults to
// schema.RichText.
func WithSchema(sc *schema.Schema) Option {
	return func(e *Editor) {
		if sc != nil {
			e.schema = sc
		}
	}
}

// WithDoc sets the initial document.
func WithDoc(doc *model.Node) Option {
	return func(e *Editor) {
		e.initDoc = doc
	}
}

// WithMarkdown sets the initial document from Markdown source.
func WithMarkdown(src string) Option {
	return func(e *Editor) {
		e.initSource = src
		e.initFormat = FormatMarkdown
	}
}

// WithHTML sets the initial document from HTML source.
func WithHTML(src string) Option {
	return func(e *Editor) {
		e.initSource = src
		e.initFormat = FormatHTML
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Editor) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithGroupDelay sets how long typed text keeps extending the same undo
// entry.
func WithGroupDelay(d time.Duration) Option {
	return func(e *Editor) {
		if d >= 0 {
			e.groupDelay = d
		}
	}
}

// WithValidationDelay sets the debounce delay of background validation.
func WithValidationDelay(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.validationDelay = d
		}
	}
}

// WithValidationReport registers fn to receive every validation report.
func WithValidationReport(fn func(validate.Report)) Option {
	return func(e *Editor) {
		e.onReport = fn
	}
}

// WithMarkdownOptions configures the Markdown serializer.
func WithMarkdownOptions(opts ...markdown.Option) Option {
	return func(e *Editor) {
		e.mdOpts = append(e.mdOpts, opts...)
	}
}

// WithHTMLOptions configures the HTML serializer.
func WithHTMLOptions(opts ...htmlconv.Option) Option {
	return func(e *Editor) {
		e.htmlOpts = append(e.htmlOpts, opts...)
	}
}

// WithHTMLParseOptions configures the HTML parser.
func WithHTMLParseOptions(opts ...htmlconv.ParseOption) Option {
	return func(e *Editor) {
		e.htmlParseOpts = append(e.htmlParseOpts, opts...)
	}
}

// WithLogger sets the logger. It defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithReadOnly creates a read-only editor.
// Document changes will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Editor) {
		e.readOnly = true
	}
}
