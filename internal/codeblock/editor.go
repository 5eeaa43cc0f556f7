package codeblock

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"
)

// Unit selects how AtBoundary measures the distance to an edge.
type Unit uint8

const (
	UnitChar Unit = iota // Horizontal movement by character
	UnitLine             // Vertical movement by line
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithLogger sets the editor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// Editor edits the text of one code block. All methods are thread-safe.
// Listeners run after the editor's lock is released and may call back
// into the editor.
type Editor struct {
	mu       sync.RWMutex
	text     string
	length   int
	syntax   string
	revision uint64
	closed   bool

	listeners map[int]func(Change)
	nextID    int
	logger    *slog.Logger
}

// New creates an editor holding text tagged with syntax.
func New(text, syntax string, opts ...Option) *Editor {
	e := &Editor{
		text:      text,
		length:    utf8.RuneCountInString(text),
		syntax:    syntax,
		listeners: make(map[int]func(Change)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text returns the full text.
func (e *Editor) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// Len returns the text length in code points.
func (e *Editor) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.length
}

// Syntax returns the syntax tag.
func (e *Editor) Syntax() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.syntax
}

// Revision returns a counter that grows with every change, including
// synced ones.
func (e *Editor) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// Closed reports whether the editor was detached from its code block.
func (e *Editor) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// OnChange registers fn for changes made through SetText and SetSyntax.
// The returned function removes the listener.
func (e *Editor) OnChange(fn func(Change)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// byteOffset converts a code point offset into a byte offset.
func byteOffset(s string, pos int) int {
	i := 0
	for n := 0; n < pos; n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// SetText replaces the code points in [from, to) with text and reports
// the change.
func (e *Editor) SetText(from, to int, text string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if from > to {
		e.mu.Unlock()
		return fmt.Errorf("%w: [%d:%d]", ErrRangeInvalid, from, to)
	}
	if from < 0 || to > e.length {
		e.mu.Unlock()
		return fmt.Errorf("%w: [%d:%d] in %d", ErrOffsetOutOfRange, from, to, e.length)
	}
	start := byteOffset(e.text, from)
	end := start + byteOffset(e.text[start:], to-from)
	old := e.text[start:end]
	if old == text {
		e.mu.Unlock()
		return nil
	}
	e.text = e.text[:start] + text + e.text[end:]
	e.length += utf8.RuneCountInString(text) - (to - from)
	e.revision++
	change := Change{Kind: ChangeText, From: from, To: to, Text: text, OldText: old, Revision: e.revision}
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	e.notify(listeners, change)
	return nil
}

// Replace replaces the whole text, reporting the smallest change that
// produces it.
func (e *Editor) Replace(text string) error {
	from, to, inserted, ok := Diff(e.Text(), text)
	if !ok {
		return nil
	}
	return e.SetText(from, to, inserted)
}

// SetSyntax changes the syntax tag and reports the change.
func (e *Editor) SetSyntax(syntax string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.syntax == syntax {
		e.mu.Unlock()
		return nil
	}
	e.syntax = syntax
	e.revision++
	change := Change{Kind: ChangeSyntax, Syntax: syntax, Revision: e.revision}
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	e.notify(listeners, change)
	return nil
}

// Sync sets text and syntax from the outer document without reporting a
// change. It reports whether anything differed.
func (e *Editor) Sync(text, syntax string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.text == text && e.syntax == syntax {
		return false
	}
	e.text = text
	e.length = utf8.RuneCountInString(text)
	e.syntax = syntax
	e.revision++
	return true
}

// Close detaches the editor. Later edits fail with ErrClosed and
// listeners are dropped.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.listeners = make(map[int]func(Change))
}

// AtBoundary reports whether moving from pos in direction dir by unit
// leaves the text, handing focus back to the outer editor.
func (e *Editor) AtBoundary(pos, dir int, unit Unit) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos = max(0, min(pos, e.length))
	if unit == UnitChar {
		if dir < 0 {
			return pos == 0
		}
		return pos == e.length
	}
	at := byteOffset(e.text, pos)
	if dir < 0 {
		return !strings.Contains(e.text[:at], "\n")
	}
	return !strings.Contains(e.text[at:], "\n")
}

func (e *Editor) snapshotListeners() []func(Change) {
	out := make([]func(Change), 0, len(e.listeners))
	for id := 0; id < e.nextID; id++ {
		if fn, ok := e.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (e *Editor) notify(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("code block listener panicked", "change", c.String(), "panic", r)
				}
			}()
			fn(c)
		}()
	}
}
