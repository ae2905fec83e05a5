package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/lexer"
	"github.com/pogyomo/mini/pkg/parser"
)

func parse(t *testing.T, src string) *parser.File {
	t.Helper()
	toks, err := lexer.Lex(1, src)
	require.NoError(t, err)
	f, err := parser.ParseFile(1, toks)
	require.NoError(t, err)
	return f
}

func TestParse_FunctionDecl(t *testing.T) {
	f := parse(t, `
		function add(a: int32, b: int32) -> int32 {
			return a + b;
		}
	`)
	require.Len(t, f.Decls, 1)
	fn, ok := f.Decls[0].(*ast.FunctionDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	require.NotNil(t, fn.Ret)
	assert.Equal(t, "int32", fn.Ret.String())
	require.Len(t, fn.Body.Items, 1)
}

func TestParse_ExternFunctionDecl(t *testing.T) {
	f := parse(t, `function puts(s: *char) -> int32;`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	assert.Nil(t, fn.Body)
}

func TestParse_StructDecl(t *testing.T) {
	f := parse(t, `
		struct Point {
			x: int32,
			y: int32
		}
	`)
	s, ok := f.Decls[0].(*ast.StructDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", s.Name)
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "x", s.Fields[0].Name)
}

func TestParse_EnumDecl(t *testing.T) {
	f := parse(t, `
		enum Color {
			Red = 1,
			Green,
			Blue
		}
	`)
	e, ok := f.Decls[0].(*ast.EnumDecl)
	require.True(t, ok)
	require.Len(t, e.Fields, 3)
	require.NotNil(t, e.Fields[0].Init)
	assert.Nil(t, e.Fields[1].Init)
}

func TestParse_ImportDecl(t *testing.T) {
	f := parse(t, `import { puts, exit } from std.io;`)
	im, ok := f.Decls[0].(*ast.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, []string{"puts", "exit"}, im.Items)
	assert.Equal(t, []string{"std", "io"}, im.Path)
}

func TestParse_ArrayTypeAndPointer(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let buf: (int8)[16];
			let p: *int32;
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls := fn.Body.Items[0].(*ast.VarDecls)
	_, isArray := decls.Bodies[0].Type.(*ast.ArrayType)
	assert.True(t, isArray)
	_, isPtr := decls.Bodies[1].Type.(*ast.PointerType)
	assert.True(t, isPtr)
}

func TestParse_EnumSelectExpr(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let c: int32 = Color::Red;
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls := fn.Body.Items[0].(*ast.VarDecls)
	sel, ok := decls.Bodies[0].Init.(*ast.EnumSelectExpr)
	require.True(t, ok)
	assert.Equal(t, "Color", sel.EnumName)
	assert.Equal(t, "Red", sel.VariantName)
}

func TestParse_CastExpr(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let x: int64 = (int64)5;
			let p: *int8 = (*int8)0;
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls := fn.Body.Items[0].(*ast.VarDecls)
	cast, ok := decls.Bodies[0].Init.(*ast.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "int64", cast.To.String())

	decls2 := fn.Body.Items[1].(*ast.VarDecls)
	cast2, ok := decls2.Bodies[0].Init.(*ast.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "*int8", cast2.To.String())
}

func TestParse_SizeofTypeAndExpr(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let a: usize = sizeof(int32);
			let b: usize = sizeof(a);
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls1 := fn.Body.Items[0].(*ast.VarDecls)
	_, isTSize := decls1.Bodies[0].Init.(*ast.TSizeofExpr)
	assert.True(t, isTSize)

	decls2 := fn.Body.Items[1].(*ast.VarDecls)
	_, isESize := decls2.Bodies[0].Init.(*ast.ESizeofExpr)
	assert.True(t, isESize)
}

func TestParse_StructLiteralAndAccess(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let p: Point = Point { x: 1, y: 2 };
			let x: int32 = p.x;
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls := fn.Body.Items[0].(*ast.VarDecls)
	lit, ok := decls.Bodies[0].Init.(*ast.StructExpr)
	require.True(t, ok)
	assert.Equal(t, "Point", lit.Name)
	require.Len(t, lit.Inits, 2)

	decls2 := fn.Body.Items[1].(*ast.VarDecls)
	acc, ok := decls2.Bodies[0].Init.(*ast.AccessExpr)
	require.True(t, ok)
	assert.Equal(t, "x", acc.Field)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			let x: int32 = 1 + 2 * 3;
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	decls := fn.Body.Items[0].(*ast.VarDecls)
	top, ok := decls.Bodies[0].Init.(*ast.InfixExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Add, top.Op)
	rhs, ok := top.Rhs.(*ast.InfixExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, rhs.Op)
}

func TestParse_WhileIfBreakContinue(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			while (true) {
				if (false) {
					break;
				} else {
					continue;
				}
			}
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	ws, ok := fn.Body.Items[0].(*ast.WhileStmt)
	require.True(t, ok)
	block := ws.Body.(*ast.BlockStmt)
	ifs, ok := block.Items[0].(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.Else)
}

func TestParse_AsmStmt(t *testing.T) {
	f := parse(t, `
		function main() -> void {
			asm("nop");
		}
	`)
	fn := f.Decls[0].(*ast.FunctionDecl)
	asmStmt, ok := fn.Body.Items[0].(*ast.AsmStmt)
	require.True(t, ok)
	assert.Equal(t, "nop", asmStmt.Instruction)
}

func TestParse_UnexpectedTokenReportsSpan(t *testing.T) {
	toks, err := lexer.Lex(7, `function main() -> void { let ; }`)
	require.NoError(t, err)
	_, err = parser.ParseFile(7, toks)
	require.Error(t, err)
	var perr *parser.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 7, perr.Span.FileID)
}
