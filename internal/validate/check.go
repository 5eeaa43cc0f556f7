package validate

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/tables"
)

// DefaultDelay is the quiet period a Validator waits by default.
const DefaultDelay = 300 * time.Millisecond

// Problem is one finding of Check.
type Problem struct {
	// Pos is the position before the offending node, or -1 for the
	// whole document.
	Pos     int
	Message string
	// Err is the schema error behind a violation, if any.
	Err error
}

func (p Problem) String() string {
	if p.Pos < 0 {
		return p.Message
	}
	return fmt.Sprintf("%d: %s", p.Pos, p.Message)
}

// Check validates doc against its schema and reports layout problems of
// every table in it.
func Check(doc *model.Node) []Problem {
	var problems []Problem
	if err := doc.Check(); err != nil {
		problems = append(problems, Problem{Pos: -1, Message: err.Error(), Err: err})
	}
	doc.Descendants(func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if n.Type().TableRole() != schema.TableRoleTable {
			return true
		}
		for _, p := range tables.Get(n).Problems {
			problems = append(problems, Problem{Pos: pos + 1 + p.Pos, Message: p.String()})
		}
		return false
	})
	return problems
}

// Report is the outcome of one validation run.
type Report struct {
	Doc        *model.Node
	Problems []Problem
	// Seq numbers the Schedule call whose document was checked.
	Seq uint64
}

// Valid reports whether the run found nothing.
func (r Report) Valid() bool { return len(r.Problems) == 0 }

// Option configures a Validator.
type Option func(*Validator)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) Option {
	return func(v *Validator) {
		if d >= 0 {
			v.delay = d
		}
	}
}

// WithLogger sets the validator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// Validator checks documents once edits have settled and hands the
// result to a report callback.
type Validator struct {
	debouncer *Debouncer
	delay     time.Duration
	report    func(Report)
	logger    *slog.Logger

	mu   sync.Mutex
	seq  uint64
	last Report
}

// NewValidator creates a validator that calls report after each run.
// report may be nil.
func NewValidator(report func(Report), opts ...Option) *Validator {
	v := &Validator{
		delay:  DefaultDelay,
		report: report,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.debouncer = NewDebouncer(v.delay)
	return v
}

// Schedule queues a check of doc, replacing any queued check.
func (v *Validator) Schedule(doc *model.Node) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()
	v.debouncer.Schedule(func() { v.run(doc, seq) })
}

func (v *Validator) run(doc *model.Node, seq uint64) {
	r := Report{Doc: doc, Problems: Check(doc), Seq: seq}
	if !r.Valid() {
		v.logger.Warn("document validation failed", "problems", len(r.Problems), "first", r.Problems[0].String())
	}
	v.mu.Lock()
	v.last = r
	v.mu.Unlock()
	if v.report != nil {
		v.report(r)
	}
}

// Flush runs a queued check now.
func (v *Validator) Flush() bool { return v.debouncer.Flush() }

// Stop cancels a queued check and ignores later ones.
func (v *Validator) Stop() { v.debouncer.Stop() }

// Pending reports whether a check is queued.
func (v *Validator) Pending() bool { return v.debouncer.Pending() }

// Last returns the most recent report.
func (v *Validator) Last() Report {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}
