package runtime

import (
	"github.com/pkg/errors"

	"github.com/thomasrohde/smoke/pkg/evaluator"
	"github.com/thomasrohde/smoke/pkg/lexer"
	"github.com/thomasrohde/smoke/pkg/parser"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitCheck    = 2
	ExitRuntime  = 4
	ExitInternal = 70
)

// ExitCode maps an error from the toolchain to a process exit code: lex,
// parse and check failures are ExitCheck, internal errors are ExitInternal,
// and anything raised while evaluating is ExitRuntime.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		lexErr        *lexer.UnrecognizedCharacterError
		parseErr      *parser.UnexpectedTokenError
		parseDepth    *parser.DepthError
		parseInternal *parser.InternalError
		evalInternal  *evaluator.InternalError
		checkErr      *DiagnosticError
	)
	switch {
	case errors.As(err, &parseInternal), errors.As(err, &evalInternal):
		return ExitInternal
	case errors.As(err, &lexErr), errors.As(err, &parseErr), errors.As(err, &parseDepth), errors.As(err, &checkErr):
		return ExitCheck
	}
	return ExitRuntime
}
