// Package diagnostics defines Smoke diagnostic types for lex, parse, check and
// runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/thomasrohde/smoke/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex      = "E_LEX"
	EParse    = "E_PARSE"
	EInternal = "E_INTERNAL"
	EDepth    = "E_DEPTH"
	EType     = "E_TYPE"
	EUnbound  = "E_UNBOUND"
	EArity    = "E_ARITY"
	EDivZero  = "E_DIV_ZERO"
	EDupParam = "E_DUP_PARAM"
	EIO       = "E_IO"
	EConfig   = "E_CONFIG"
)

// Diagnostic represents a lex, parse, check, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Error lets a bare Diagnostic travel as an error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Diagnoser is implemented by every error the toolchain raises.
type Diagnoser interface {
	error
	Diagnostic() Diagnostic
}

// FromError extracts a Diagnostic from err or any error it wraps. Errors that
// carry none are reported under fallback.
func FromError(err error, fallback string) Diagnostic {
	var dg Diagnoser
	if errors.As(err, &dg) {
		return dg.Diagnostic()
	}
	var d Diagnostic
	if errors.As(err, &d) {
		return d
	}
	return MakeDiag(fallback, err.Error(), nil, "")
}

// Printer renders diagnostics. Pretty selects the human form over JSON, and
// Color highlights the human form.
type Printer struct {
	Pretty bool
	Color  bool
}

func (p Printer) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// Format renders a single diagnostic.
func (p Printer) Format(d Diagnostic) string {
	if !p.Pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	red := p.paint(color.FgRed, color.Bold)
	blue := p.paint(color.FgBlue)
	cyan := p.paint(color.FgCyan)

	loc := "<unknown>"
	if d.Span != nil {
		loc = d.Span.String()
	}
	out := fmt.Sprintf("%s: %s\n  %s %s", red("error["+d.Code+"]"), d.Message, blue("-->"), loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  %s %s", cyan("hint:"), d.Hint)
	}
	return out
}

// FormatAll renders a slice of diagnostics.
func (p Printer) FormatAll(diags []Diagnostic) string {
	if !p.Pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = p.Format(d)
	}
	return strings.Join(parts, "\n\n")
}

// FormatDiagnostic formats a single diagnostic for display without colour.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	return Printer{Pretty: pretty}.Format(d)
}

// FormatDiagnostics formats a slice of diagnostics for display without colour.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	return Printer{Pretty: pretty}.FormatAll(diags)
}
