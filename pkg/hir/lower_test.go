package hir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/hir"
	"github.com/pogyomo/mini/pkg/lexer"
	"github.com/pogyomo/mini/pkg/parser"
)

func lowerSrc(t *testing.T, src string) (*hir.Program, *diag.Reporter) {
	t.Helper()
	toks, err := lexer.Lex(0, src)
	require.NoError(t, err)
	file, err := parser.ParseFile(0, toks)
	require.NoError(t, err)
	reporter := diag.NewReporter()
	prog := hir.Lower(file.Decls, reporter)
	return prog, reporter
}

func TestLower_ParamsGetUniqueNames(t *testing.T) {
	prog, rep := lowerSrc(t, `
function add(a: int32, b: int32) -> int32 {
    return a + b;
}
`)
	require.False(t, rep.HasErrors())
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.NotEqual(t, "a", fn.Params[0].Name)
	assert.NotEqual(t, "b", fn.Params[1].Name)
	assert.NotEqual(t, fn.Params[0].Name, fn.Params[1].Name)
}

func TestLower_LetHoistsAndBecomesAssignment(t *testing.T) {
	prog, rep := lowerSrc(t, `
function f() -> int32 {
    let x: int32 = 1;
    return x;
}
`)
	require.False(t, rep.HasErrors())
	fn := prog.Functions[0]
	require.Len(t, fn.Decls, 1)
	require.Len(t, fn.Body, 2)
	assign, ok := fn.Body[0].(*hir.ExprStmt)
	require.True(t, ok)
	infix, ok := assign.Expr.(*hir.InfixExpr)
	require.True(t, ok)
	lhs, ok := infix.Lhs.(*hir.VariableExpr)
	require.True(t, ok)
	assert.Equal(t, fn.Decls[0].Name, lhs.Name)
}

func TestLower_ShadowingGetsDistinctNames(t *testing.T) {
	prog, rep := lowerSrc(t, `
function f() -> int32 {
    let x: int32 = 1;
    {
        let x: int32 = 2;
        return x;
    }
}
`)
	require.False(t, rep.HasErrors())
	fn := prog.Functions[0]
	require.Len(t, fn.Decls, 2)
	assert.NotEqual(t, fn.Decls[0].Name, fn.Decls[1].Name)
}

func TestLower_EnumDefaultValues(t *testing.T) {
	prog, rep := lowerSrc(t, `
enum Color {
    Red,
    Green,
    Blue = 10,
    Purple,
}
`)
	require.False(t, rep.HasErrors())
	require.Len(t, prog.Enums, 1)
	variants := prog.Enums[0].Variants
	assert.Equal(t, uint64(0), variants[0].Value)
	assert.Equal(t, uint64(1), variants[1].Value)
	assert.Equal(t, uint64(10), variants[2].Value)
	assert.Equal(t, uint64(11), variants[3].Value)
}

func TestLower_ArraySizeConstEval(t *testing.T) {
	prog, rep := lowerSrc(t, `
function f() -> int32 {
    let xs: (int32)[2 + 3];
    return 0;
}
`)
	require.False(t, rep.HasErrors())
	fn := prog.Functions[0]
	arr, ok := fn.Decls[0].Type.(*hir.ArrayType)
	require.True(t, ok)
	assert.Equal(t, uint64(5), arr.Size)
}

func TestLower_UnknownVariableReported(t *testing.T) {
	_, rep := lowerSrc(t, `
function f() -> int32 {
    return y;
}
`)
	assert.True(t, rep.HasErrors())
}

func TestLower_StringLiteralsInterned(t *testing.T) {
	prog, rep := lowerSrc(t, `
function f() -> int32 {
    let a: *char = "hi";
    let b: *char = "hi";
    let c: *char = "bye";
    return 0;
}
`)
	require.False(t, rep.HasErrors())
	fn := prog.Functions[0]
	a := fn.Body[0].(*hir.ExprStmt).Expr.(*hir.InfixExpr).Rhs.(*hir.StringExpr)
	b := fn.Body[1].(*hir.ExprStmt).Expr.(*hir.InfixExpr).Rhs.(*hir.StringExpr)
	c := fn.Body[2].(*hir.ExprStmt).Expr.(*hir.InfixExpr).Rhs.(*hir.StringExpr)
	assert.Equal(t, a.Symbol, b.Symbol)
	assert.NotEqual(t, a.Symbol, c.Symbol)
}

func TestLower_EnumSelectResolvesEnumName(t *testing.T) {
	prog, rep := lowerSrc(t, `
enum Color { Red, Green, Blue }
function f() -> int32 {
    return (int32)Color::Green;
}
`)
	require.False(t, rep.HasErrors())
	_ = prog
}

func TestLower_UnknownEnumReported(t *testing.T) {
	_, rep := lowerSrc(t, `
function f() -> int32 {
    return (int32)Nope::Variant;
}
`)
	assert.True(t, rep.HasErrors())
}

func TestLower_DuplicateTopLevelNameReported(t *testing.T) {
	_, rep := lowerSrc(t, `
function f() -> int32 { return 0; }
function f() -> int32 { return 1; }
`)
	assert.True(t, rep.HasErrors())
}

func TestLower_ExternFunctionHasNilBody(t *testing.T) {
	prog, rep := lowerSrc(t, `
function puts(s: *char) -> int32;
`)
	require.False(t, rep.HasErrors())
	require.Len(t, prog.Functions, 1)
	assert.Nil(t, prog.Functions[0].Body)
}
