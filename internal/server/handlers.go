package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/state"
)

// requestError is a client error with the status it is reported with.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCommands(w http.ResponseWriter, _ *http.Request) {
	cfg, km := s.snapshot()
	d := dispatcher.New(dispatcher.DefaultConfig().WithMac(cfg.Editor.Mac),
		dispatcher.WithKeymaps(km),
		dispatcher.WithLogger(s.logger),
	)

	ids := d.Commands()
	out := make([]CommandInfo, 0, len(ids))
	for _, id := range ids {
		info := CommandInfo{ID: id}
		for _, b := range km.BindingsFor(id) {
			if !slices.Contains(info.Keys, b.Keys) {
				info.Keys = append(info.Keys, b.Keys)
			}
		}
		slices.Sort(info.Keys)
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !s.decode(w, r, &req) {
		return
	}
	from, err := parseFormat(req.From)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := parseFormat(req.To)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cfg, _ := s.snapshot()
	ed, err := s.open(cfg, from, req.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer ed.Close()

	out, err := ed.Export(to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Format: to.String(), Content: out})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Command == "" && req.Key == "" {
		s.fail(w, r, badRequest("command or key is required"))
		return
	}
	sess, err := s.session(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer sess.close()

	var res handler.Result
	if req.Key != "" {
		res = sess.d.DispatchKey(req.Key)
	} else {
		res = sess.d.DispatchAction(sess.action(req))
	}

	content, err := sess.ed.Export(sess.format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := DispatchResponse{
		Status:  res.Status.String(),
		Changed: res.DocChanged,
		Message: res.Message,
		Format:  sess.format.String(),
		Content: content,
		Data:    res.Data,
	}
	if res.Error != nil {
		resp.Error = res.Error.Error()
	}
	if sel, err := state.MarshalSelection(sess.ed.Selection()); err == nil {
		resp.Selection = sel
	}
	writeJSON(w, dispatchStatus(res), resp)
}

func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, func(sess *session, req DocumentRequest) bool {
		return sess.d.EnabledAction(sess.action(req))
	})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, func(sess *session, req DocumentRequest) bool {
		return sess.d.Active(req.Command, req.Params...)
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request, fn func(*session, DocumentRequest) bool) {
	var req DocumentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Command == "" {
		s.fail(w, r, badRequest("command is required"))
		return
	}
	sess, err := s.session(req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer sess.close()

	if !sess.d.Registry().Has(req.Command) {
		s.fail(w, r, &requestError{status: http.StatusNotFound, err: fmt.Errorf("%w: %s", dispatcher.ErrNoHandler, req.Command)})
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Command: req.Command, Value: fn(sess, req)})
}

// session is one request's editor and dispatcher.
type session struct {
	ed     *engine.Editor
	d      *dispatcher.Dispatcher
	format engine.Format
}

func (s *session) action(req DocumentRequest) input.Action {
	return input.NewAction(req.Command, req.Params...).WithSource(input.SourceHTTP)
}

func (s *session) close() { s.ed.Close() }

func (s *Server) session(req DocumentRequest) (*session, error) {
	format, err := parseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	cfg, km := s.snapshot()
	ed, err := s.open(cfg, format, req.Content)
	if err != nil {
		return nil, err
	}
	if len(req.Selection) > 0 {
		sel, err := state.UnmarshalSelection(ed.Doc(), req.Selection)
		if err == nil {
			err = ed.SetSelection(sel)
		}
		if err != nil {
			ed.Close()
			return nil, badRequest("selection: %v", err)
		}
	}

	opts := []dispatcher.Option{
		dispatcher.WithEditor(ed),
		dispatcher.WithKeymaps(km),
		dispatcher.WithLogger(s.logger),
	}
	if cfg.Server.Metrics {
		opts = append(opts, dispatcher.WithRegisterer(s.registry))
	}
	d := dispatcher.New(dispatcher.DefaultConfig().WithMac(cfg.Editor.Mac), opts...)
	d.Hooks().Register(hook.NewAuditHook(s.logger))
	if len(cfg.Server.Allow) > 0 {
		d.Hooks().RegisterPre(hook.NewSourceFilterHook(input.SourceHTTP, cfg.Server.Allow...))
		d.Hooks().RegisterPre(hook.NewSourceFilterHook(input.SourceKeyboard, cfg.Server.Allow...))
	}
	return &session{ed: ed, d: d, format: format}, nil
}

func (s *Server) open(cfg *config.Config, format engine.Format, content string) (*engine.Editor, error) {
	opts := cfg.EngineOptions(s.logger)
	switch format {
	case engine.FormatHTML:
		opts = append(opts, engine.WithHTML(content))
	default:
		opts = append(opts, engine.WithMarkdown(content))
	}
	ed, err := engine.New(opts...)
	if err != nil {
		return nil, &requestError{status: http.StatusUnprocessableEntity, err: fmt.Errorf("loading %s document: %w", format, err)}
	}
	return ed, nil
}

func parseFormat(name string) (engine.Format, error) {
	if name == "" {
		return engine.FormatMarkdown, nil
	}
	f, err := engine.ParseFormat(name)
	if err != nil {
		return 0, &requestError{status: http.StatusBadRequest, err: err}
	}
	return f, nil
}

func dispatchStatus(res handler.Result) int {
	switch {
	case res.Error == nil:
		return http.StatusOK
	case errors.Is(res.Error, dispatcher.ErrNoHandler):
		return http.StatusNotFound
	case errors.Is(res.Error, input.ErrMissingParam), errors.Is(res.Error, input.ErrInvalidParam):
		return http.StatusBadRequest
	case errors.Is(res.Error, dispatcher.ErrUnboundKey):
		return http.StatusOK
	case errors.Is(res.Error, dispatcher.ErrActionCancelled):
		return http.StatusForbidden
	case errors.Is(res.Error, dispatcher.ErrPanic):
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

// decode reads a JSON body of at most the configured size into v. It
// writes the error reply and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	cfg, _ := s.snapshot()
	body := http.MaxBytesReader(w, r.Body, cfg.Server.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, &requestError{status: http.StatusRequestEntityTooLarge, err: err})
		} else {
			s.fail(w, r, badRequest("decoding request: %v", err))
		}
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var re *requestError
	if errors.As(err, &re) {
		status = re.status
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
