package evaluator

import "github.com/thomasrohde/smoke/pkg/ast"

// DefaultMaxDepth bounds nested evaluation when no limit is configured.
const DefaultMaxDepth = 10000

// Stats counts work done by an Evaluator across all runs.
type Stats struct {
	Evaluations int64
	Calls       int64
	ScopePushes int64
	PeakDepth   int
}

// depthTracker enforces the evaluation depth limit.
type depthTracker struct {
	limit int
	depth int
}

// enter records one more level of nesting. It fails without changing the
// depth when the limit would be exceeded.
func (d *depthTracker) enter(span ast.Span) error {
	if d.depth >= d.limit {
		return &DepthError{Limit: d.limit, Span: span}
	}
	d.depth++
	return nil
}

func (d *depthTracker) leave() {
	d.depth--
}
