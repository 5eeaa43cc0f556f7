package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/markdown"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/validate"
)

// Format names an external document representation.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatHTML:
		return "html"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Change describes one applied transaction.
type Change struct {
	Before      *state.State
	After       *state.State
	Transaction *state.Transaction
}

// DocChanged reports whether the transaction changed the document.
func (c Change) DocChanged() bool { return c.Transaction.DocChanged() }

// Observer receives applied changes. Observers run after the editor lock
// is released and may call back into the editor.
type Observer func(Change)

type observer struct {
	id int
	fn Observer
}

// Editor is the main facade of the editing engine.
// It owns the current state, the undo history, change observers,
// debounced validation and the nested code-block editors.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Editor struct {
	mu sync.RWMutex

	// Core components
	state     *state.State
	history   *history.History
	validator *validate.Validator
	mdParser  *markdown.Parser
	md        *markdown.Serializer
	htmlIn    *htmlconv.Parser
	htmlOut   *htmlconv.Serializer
	logger    *slog.Logger

	observers  []observer
	nextObsID  int
	sessions   []*codeSession
	closed     bool
	lastReport validate.Report

	// Configuration
	schema          *schema.Schema
	maxUndoEntries  int
	groupDelay      time.Duration
	validationDelay time.Duration
	onReport        func(validate.Report)
	mdOpts          []markdown.Option
	htmlOpts        []htmlconv.Option
	htmlParseOpts   []htmlconv.ParseOption
	readOnly        bool

	// Initialization
	initDoc    *model.Node
	initSource string
	initFormat Format
}

// New creates a new Editor with the given options.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		schema:          schema.RichText(),
		maxUndoEntries:  DefaultMaxUndoEntries,
		groupDelay:      DefaultGroupDelay,
		validationDelay: DefaultValidationDelay,
		logger:          slog.Default(),
		initFormat:      FormatMarkdown,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}

	e.mdParser = markdown.NewParser(markdown.WithSchema(e.schema), markdown.WithLogger(e.logger))
	e.md = markdown.NewSerializer(append([]markdown.Option{markdown.WithSerializerLogger(e.logger)}, e.mdOpts...)...)
	e.htmlIn = htmlconv.NewParser(append([]htmlconv.ParseOption{htmlconv.WithSchema(e.schema), htmlconv.WithLogger(e.logger)}, e.htmlParseOpts...)...)
	e.htmlOut = htmlconv.NewSerializer(append([]htmlconv.Option{htmlconv.WithSerializerLogger(e.logger)}, e.htmlOpts...)...)

	doc := e.initDoc
	if doc == nil && e.initSource != "" {
		var err error
		doc, err = e.parse(e.initSource, e.initFormat)
		if err != nil {
			return nil, err
		}
	}
	st, err := state.New(state.Config{Schema: e.schema, Doc: doc})
	if err != nil {
		return nil, err
	}
	e.state = st

	// Create history manager
	e.history = history.NewHistory(e.maxUndoEntries)
	e.history.SetGroupDelay(e.groupDelay)

	e.validator = validate.NewValidator(e.report,
		validate.WithDelay(e.validationDelay),
		validate.WithLogger(e.logger),
	)
	return e, nil
}

// NewFromReader creates an Editor from a document in format read from r.
func NewFromReader(r io.Reader, format Format, opts ...Option) (*Editor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatMarkdown:
		opts = append(opts, WithMarkdown(string(data)))
	case FormatHTML:
		opts = append(opts, WithHTML(string(data)))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	return New(opts...)
}

func (e *Editor) parse(src string, format Format) (*model.Node, error) {
	switch format {
	case FormatMarkdown:
		return e.mdParser.Parse(src)
	case FormatHTML:
		return e.htmlIn.Parse(src)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// ============================================================================
// Read Operations
// ============================================================================

// State returns the current editor state.
func (e *Editor) State() *state.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Doc returns the current document.
func (e *Editor) Doc() *model.Node {
	return e.State().Doc()
}

// Selection returns the current selection.
func (e *Editor) Selection() state.Selection {
	return e.State().Selection()
}

// Schema returns the document schema.
func (e *Editor) Schema() *schema.Schema {
	return e.schema
}

// IsReadOnly returns true if the editor rejects document changes.
func (e *Editor) IsReadOnly() bool {
	return e.readOnly
}

// Markdown serializes the current document to Markdown.
func (e *Editor) Markdown() string {
	return e.md.Serialize(e.Doc())
}

// HTML serializes the current document to HTML.
func (e *Editor) HTML() string {
	return e.htmlOut.Serialize(e.Doc())
}

// Export serializes the current document in format.
func (e *Editor) Export(format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return e.Markdown(), nil
	case FormatHTML:
		return e.HTML(), nil
	}
	return "", fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// ============================================================================
// Transactions
// ============================================================================

// Apply applies tr, which must have been created from the current state.
func (e *Editor) Apply(tr *state.Transaction) error {
	e.mu.Lock()
	change, err := e.applyLocked(tr, nil)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify(change)
	return nil
}

// Update builds a transaction on the current state with fn and applies it.
// Nothing is applied when fn fails. fn runs under the editor lock and must
// not call back into the editor.
func (e *Editor) Update(fn func(tr *state.Transaction) error) error {
	e.mu.Lock()
	tr := e.state.Tr()
	if err := fn(tr); err != nil {
		e.mu.Unlock()
		return err
	}
	change, err := e.applyLocked(tr, nil)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify(change)
	return nil
}

// Execute runs cmd against the current state and applies its transaction.
// It returns false when the command does not apply.
func (e *Editor) Execute(cmd commands.Command) (bool, error) {
	e.mu.Lock()
	var tr *state.Transaction
	if !cmd(e.state, func(t *state.Transaction) { tr = t }) || tr == nil {
		e.mu.Unlock()
		return false, nil
	}
	change, err := e.applyLocked(tr, nil)
	e.mu.Unlock()
	if err != nil {
		return false, err
	}
	e.notify(change)
	return true, nil
}

// Enabled reports whether cmd applies to the current state.
func (e *Editor) Enabled(cmd commands.Command) bool {
	st := e.State()
	if e.readOnly {
		var changes bool
		if !cmd(st, func(tr *state.Transaction) { changes = tr.DocChanged() }) {
			return false
		}
		return !changes
	}
	return commands.Enabled(st, cmd)
}

// SetSelection replaces the selection without touching the document.
func (e *Editor) SetSelection(sel state.Selection) error {
	return e.Update(func(tr *state.Transaction) error {
		tr.SetSelection(sel)
		return nil
	})
}

// SetMarkdown replaces the whole document with parsed Markdown.
func (e *Editor) SetMarkdown(src string) error {
	return e.load(src, FormatMarkdown)
}

// SetHTML replaces the whole document with parsed HTML.
func (e *Editor) SetHTML(src string) error {
	return e.load(src, FormatHTML)
}

func (e *Editor) load(src string, format Format) error {
	doc, err := e.parse(src, format)
	if err != nil {
		return err
	}
	return e.Update(func(tr *state.Transaction) error {
		if err := tr.Replace(0, tr.Doc().Content().Size(), model.NewSlice(doc.Content(), 0, 0)); err != nil {
			return err
		}
		tr.SetSelection(state.AtStart(tr.Doc()))
		tr.SetMeta(state.MetaUIEvent, "load")
		return nil
	})
}

// applyLocked applies tr and updates history, code-block sessions and
// validation. source is the code-block session the change came from.
func (e *Editor) applyLocked(tr *state.Transaction, source *codeSession) (Change, error) {
	if e.closed {
		return Change{}, ErrClosed
	}
	if e.readOnly && tr.DocChanged() {
		return Change{}, ErrReadOnly
	}
	before := e.state
	next, err := before.Apply(tr)
	if err != nil {
		return Change{}, err
	}
	e.state = next
	e.history.Record(tr)
	if tr.DocChanged() {
		e.syncSessionsLocked(tr, source)
		e.validator.Schedule(next.Doc())
	}
	return Change{Before: before, After: next, Transaction: tr}, nil
}

// ============================================================================
// Observers
// ============================================================================

// Observe registers fn to receive every applied change and returns a
// function that removes it.
func (e *Editor) Observe(fn Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextObsID
	e.nextObsID++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) notify(c Change) {
	e.mu.RLock()
	obs := make([]observer, len(e.observers))
	copy(obs, e.observers)
	e.mu.RUnlock()
	for _, o := range obs {
		e.call(o.fn, c)
	}
}

func (e *Editor) call(fn Observer, c Change) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("observer panic", "panic", r)
		}
	}()
	fn(c)
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverts the newest history entry.
func (e *Editor) Undo() error {
	return e.replay(e.history.Undo)
}

// Redo reapplies the newest undone entry.
func (e *Editor) Redo() error {
	return e.replay(e.history.Redo)
}

func (e *Editor) replay(build func(*state.State) (*state.Transaction, error)) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	tr, err := build(e.state)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if n, ok := tr.Meta(history.MetaSkippedSteps).(int); ok {
		e.logger.Warn("history entry partly replayed", "action", tr.Meta(state.MetaHistory), "skipped", n)
	}
	change, err := e.applyLocked(tr, nil)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.notify(change)
	return nil
}

// CanUndo returns true if undo is available.
func (e *Editor) CanUndo() bool {
	return !e.readOnly && e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Editor) CanRedo() bool {
	return !e.readOnly && e.history.CanRedo()
}

// UndoCount returns the number of undo entries.
func (e *Editor) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of redo entries.
func (e *Editor) RedoCount() int {
	return e.history.RedoCount()
}

// UndoInfo describes the undo entries.
func (e *Editor) UndoInfo() []history.Info {
	return e.history.UndoInfo()
}

// BeginUndoGroup starts merging the following changes into one undo
// entry named name.
func (e *Editor) BeginUndoGroup(name string) {
	e.history.BeginGroup(name)
}

// EndUndoGroup ends the current undo group.
func (e *Editor) EndUndoGroup() {
	e.history.EndGroup()
}

// CancelUndoGroup discards the current undo group without recording it.
// Its changes stay in the document.
func (e *Editor) CancelUndoGroup() {
	e.history.CancelGroup()
}

// Group runs fn inside an undo group. The group is cancelled when fn
// fails.
func (e *Editor) Group(name string, fn func() error) error {
	return e.history.Transaction(name, fn)
}

// Checkpoint marks the current undo depth. Changes made after it can be
// reverted with UndoToCheckpoint.
func (e *Editor) Checkpoint() history.Checkpoint {
	return e.history.CreateCheckpoint()
}

// UndoToCheckpoint undoes every entry recorded after cp and returns how
// many were undone.
func (e *Editor) UndoToCheckpoint(cp history.Checkpoint) (int, error) {
	n := 0
	for e.history.Since(cp) > 0 {
		if err := e.Undo(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ClearHistory removes all undo and redo entries.
func (e *Editor) ClearHistory() {
	e.history.Clear()
}

// ============================================================================
// Validation
// ============================================================================

func (e *Editor) report(r validate.Report) {
	e.mu.Lock()
	e.lastReport = r
	fn := e.onReport
	e.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

// Validate checks the current document synchronously.
func (e *Editor) Validate() []validate.Problem {
	return validate.Check(e.Doc())
}

// FlushValidation runs a pending background validation now. It returns
// false when none was pending.
func (e *Editor) FlushValidation() bool {
	return e.validator.Flush()
}

// LastReport returns the most recent background validation report.
func (e *Editor) LastReport() validate.Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastReport
}

// Close stops background validation and closes every code-block editor.
// Later changes return ErrClosed.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	sessions := e.sessions
	e.sessions = nil
	e.mu.Unlock()

	e.validator.Stop()
	for _, s := range sessions {
		s.close()
	}
}
