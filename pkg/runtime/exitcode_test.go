package runtime_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/thomasrohde/smoke/pkg/ast"
	"github.com/thomasrohde/smoke/pkg/diagnostics"
	"github.com/thomasrohde/smoke/pkg/runtime"
)

func TestExitCode(t *testing.T) {
	rt := runtime.New()
	ctx := context.Background()
	runErr := func(source string) error {
		_, err := rt.Run(ctx, source, ast.FileSource("exit.smk"))
		return err
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, runtime.ExitOK},
		{"lex", runErr(`1 @`), runtime.ExitCheck},
		{"parse", runErr(`(1`), runtime.ExitCheck},
		{"unbound", runErr(`nope`), runtime.ExitRuntime},
		{"division by zero", runErr(`1 / 0`), runtime.ExitRuntime},
		{"check diagnostics", runtime.AsError([]diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EArity, "x", nil, ""),
		}), runtime.ExitCheck},
		{"wrapped", errors.Wrap(runErr(`let = 1`), "prog.smk"), runtime.ExitCheck},
		{"cancelled", context.Canceled, runtime.ExitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.ExitCode(tt.err))
		})
	}
}
