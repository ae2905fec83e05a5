package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/hir"
	"github.com/pogyomo/mini/pkg/lexer"
	"github.com/pogyomo/mini/pkg/parser"
	"github.com/pogyomo/mini/pkg/sema"
)

func lowerOne(t *testing.T, src string) (*hir.FunctionDecl, *diag.Reporter) {
	t.Helper()
	toks, err := lexer.Lex(0, src)
	require.NoError(t, err)
	file, err := parser.ParseFile(0, toks)
	require.NoError(t, err)
	reporter := diag.NewReporter()
	prog := hir.Lower(file.Decls, reporter)
	require.False(t, reporter.HasErrors())
	require.Len(t, prog.Functions, 1)
	return prog.Functions[0], reporter
}

func TestCheckControlFlow_MissingReturnReported(t *testing.T) {
	fn, _ := lowerOne(t, `
function f(x: int32) -> int32 {
    if (x > 0) {
        return x;
    }
}
`)
	reporter := diag.NewReporter()
	sema.CheckControlFlow(fn, reporter)
	assert.True(t, reporter.HasErrors())
}

func TestCheckControlFlow_IfElseBothReturnOK(t *testing.T) {
	fn, _ := lowerOne(t, `
function f(x: int32) -> int32 {
    if (x > 0) {
        return x;
    } else {
        return 0;
    }
}
`)
	reporter := diag.NewReporter()
	sema.CheckControlFlow(fn, reporter)
	assert.False(t, reporter.HasErrors())
}

func TestCheckControlFlow_WhileNeverCounts(t *testing.T) {
	fn, _ := lowerOne(t, `
function f(x: int32) -> int32 {
    while (x > 0) {
        return x;
    }
}
`)
	reporter := diag.NewReporter()
	sema.CheckControlFlow(fn, reporter)
	assert.True(t, reporter.HasErrors())
}

func TestCheckControlFlow_VoidFunctionSkipped(t *testing.T) {
	fn, _ := lowerOne(t, `
function f() {
    let x: int32 = 1;
}
`)
	reporter := diag.NewReporter()
	sema.CheckControlFlow(fn, reporter)
	assert.False(t, reporter.HasErrors())
}

func TestEliminateUnusedVariables_RemovesDeadLocal(t *testing.T) {
	fn, _ := lowerOne(t, `
function f() -> int32 {
    let x: int32 = 1;
    let y: int32 = 2;
    return y;
}
`)
	reporter := diag.NewReporter()
	sema.EliminateUnusedVariables(fn, reporter)
	assert.False(t, reporter.HasErrors())
	require.Len(t, reporter.Diagnostics(), 1)
	require.Len(t, fn.Decls, 1)
	assert.Contains(t, fn.Decls[0].Name, "y")
}

func TestEliminateUnusedVariables_AssignLHSNotCountedAsUse(t *testing.T) {
	fn, _ := lowerOne(t, `
function f() -> int32 {
    let x: int32 = 1;
    x = 2;
    return 0;
}
`)
	reporter := diag.NewReporter()
	sema.EliminateUnusedVariables(fn, reporter)
	require.Len(t, fn.Decls, 0)
	require.Len(t, fn.Body, 1)
}

func TestEliminateUnusedVariables_WarnsUnusedParamButKeepsIt(t *testing.T) {
	fn, _ := lowerOne(t, `
function f(x: int32) -> int32 {
    return 0;
}
`)
	reporter := diag.NewReporter()
	sema.EliminateUnusedVariables(fn, reporter)
	require.Len(t, fn.Params, 1)
	found := false
	for _, d := range reporter.Diagnostics() {
		if d.Level == diag.Warn {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEliminateUnusedVariables_FixpointDropsChain(t *testing.T) {
	fn, _ := lowerOne(t, `
function f() -> int32 {
    let a: int32 = 1;
    let b: int32 = a;
    return 0;
}
`)
	reporter := diag.NewReporter()
	sema.EliminateUnusedVariables(fn, reporter)
	require.Len(t, fn.Decls, 0)
	require.Len(t, fn.Body, 1)
}

// TestEliminateUnusedVariables_IsIdempotent covers spec.md §8's
// fixpoint-idempotence invariant directly: once a single call has
// reached its fixpoint, a second call against the same function must
// find nothing left to remove.
func TestEliminateUnusedVariables_IsIdempotent(t *testing.T) {
	fn, _ := lowerOne(t, `
function f() -> int32 {
    let a: int32 = 1;
    let b: int32 = a;
    let c: int32 = 2;
    return c;
}
`)
	reporter := diag.NewReporter()
	sema.EliminateUnusedVariables(fn, reporter)
	declsAfterFirst := len(fn.Decls)
	bodyAfterFirst := len(fn.Body)

	sema.EliminateUnusedVariables(fn, reporter)
	assert.Equal(t, declsAfterFirst, len(fn.Decls))
	assert.Equal(t, bodyAfterFirst, len(fn.Body))
}
