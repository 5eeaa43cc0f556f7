package engine

import (
	"fmt"

	"github.com/dshills/inkwell/internal/codeblock"
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// metaCodeSession marks transactions produced by a code-block editor.
const metaCodeSession = "inkwell.codeSession"

// codeSession binds a nested code-block editor to the code block that
// starts at pos.
type codeSession struct {
	ed          *codeblock.Editor
	pos         int
	unsubscribe func()
}

func (s *codeSession) close() {
	s.unsubscribe()
	s.ed.Close()
}

// CodeBlockEditor returns the nested editor of the code block starting at
// pos, opening it when needed. Edits made through it are applied to the
// document as single replace steps. Document changes to the block are
// pushed into it without emitting change events.
func (e *Editor) CodeBlockEditor(pos int) (*codeblock.Editor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	node := e.state.Doc().NodeAt(pos)
	if node == nil || node.Type().Name() != schema.NodeCodeBlock {
		return nil, fmt.Errorf("%w: %d", ErrNotCodeBlock, pos)
	}
	for _, s := range e.sessions {
		if s.pos == pos {
			return s.ed, nil
		}
	}
	s := &codeSession{
		ed:  codeblock.New(node.TextContent(), node.Attrs().String("syntax"), codeblock.WithLogger(e.logger)),
		pos: pos,
	}
	s.unsubscribe = s.ed.OnChange(func(c codeblock.Change) { e.codeChanged(s, c) })
	e.sessions = append(e.sessions, s)
	e.logger.Debug("code block editor opened", "pos", pos, "syntax", s.ed.Syntax())
	return s.ed, nil
}

// CodeBlockEditorPos returns the document position of the code block ed
// edits. It returns false when ed is not open.
func (e *Editor) CodeBlockEditorPos(ed *codeblock.Editor) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.sessions {
		if s.ed == ed {
			return s.pos, true
		}
	}
	return 0, false
}

// CloseCodeBlockEditor closes ed and detaches it from the document.
func (e *Editor) CloseCodeBlockEditor(ed *codeblock.Editor) {
	e.mu.Lock()
	var found *codeSession
	for i, s := range e.sessions {
		if s.ed == ed {
			found = s
			e.sessions = append(e.sessions[:i:i], e.sessions[i+1:]...)
			break
		}
	}
	e.mu.Unlock()
	if found != nil {
		found.close()
	}
}

// OpenCodeBlockEditors returns the number of open code-block editors.
func (e *Editor) OpenCodeBlockEditors() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// codeChanged applies an edit made in the nested editor of s to the
// document. The changed span is recomputed by diffing the block text with
// the editor text, so edits arriving out of order still converge.
func (e *Editor) codeChanged(s *codeSession, c codeblock.Change) {
	e.mu.Lock()
	if e.closed || !e.hasSessionLocked(s) {
		e.mu.Unlock()
		return
	}
	node := e.state.Doc().NodeAt(s.pos)
	if node == nil || node.Type().Name() != schema.NodeCodeBlock {
		e.mu.Unlock()
		return
	}
	tr := e.state.Tr()
	tr.SetMeta(metaCodeSession, s)
	var err error
	switch c.Kind {
	case codeblock.ChangeSyntax:
		if node.Attrs().String("syntax") == c.Syntax {
			e.mu.Unlock()
			return
		}
		err = tr.SetNodeAttribute(s.pos, "syntax", c.Syntax)
	default:
		from, to, text, ok := codeblock.Diff(node.TextContent(), s.ed.Text())
		if !ok {
			e.mu.Unlock()
			return
		}
		start := s.pos + 1
		err = tr.ReplaceText(start+from, start+to, text, nil)
		tr.SetMeta(state.MetaUIEvent, commands.EventInput)
	}
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("apply code block change", "pos", s.pos, "change", c.String(), "err", err)
		return
	}
	change, err := e.applyLocked(tr, s)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("apply code block change", "pos", s.pos, "change", c.String(), "err", err)
		return
	}
	e.notify(change)
}

func (e *Editor) hasSessionLocked(s *codeSession) bool {
	for _, o := range e.sessions {
		if o == s {
			return true
		}
	}
	return false
}

// syncSessionsLocked maps every open code block through tr. Sessions whose
// block was removed are closed; the others receive the block's new text,
// except source, which already has it.
func (e *Editor) syncSessionsLocked(tr *state.Transaction, source *codeSession) {
	if len(e.sessions) == 0 {
		return
	}
	doc := tr.Doc()
	kept := e.sessions[:0]
	var dropped []*codeSession
	for _, s := range e.sessions {
		res := tr.Mapping().MapResult(s.pos, 1)
		node := doc.NodeAt(res.Pos)
		if res.Deleted() || node == nil || node.Type().Name() != schema.NodeCodeBlock {
			dropped = append(dropped, s)
			continue
		}
		s.pos = res.Pos
		if s != source {
			s.ed.Sync(node.TextContent(), node.Attrs().String("syntax"))
		}
		kept = append(kept, s)
	}
	e.sessions = kept
	for _, s := range dropped {
		e.logger.Debug("code block editor closed", "pos", s.pos)
		s.close()
	}
}
