package hir

import (
	"fmt"
	"io"
	"strings"
)

// Print writes a textual rendering of prog for --emit-hir and for the
// lowering round-trip test in roundtrip_test.go. Declaration and
// statement shapes are valid mini syntax (hoisted `let`s are printed as
// decl-only lets ahead of the assignment the lowering pass split them
// into), so the output can be fed back through pkg/lexer and pkg/parser
// unchanged: only the interned string table, which has no source-level
// spelling, is emitted as a trailing comment block.
func Print(w io.Writer, prog *Program) {
	p := &printer{w: w, strings: prog.Strings}
	for _, e := range prog.Enums {
		p.printEnum(e)
	}
	for _, s := range prog.Structs {
		p.printStruct(s)
	}
	for _, f := range prog.Functions {
		p.printFunction(f)
	}
	for _, sym := range prog.Strings.order {
		fmt.Fprintf(w, "// string %s = %q\n", sym, prog.Strings.bySymbol[sym])
	}
}

type printer struct {
	w       io.Writer
	depth   int
	strings *StringTable
}

func (p *printer) indent() string { return strings.Repeat("  ", p.depth) }

func (p *printer) line(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", p.indent(), fmt.Sprintf(format, args...))
}

func (p *printer) printEnum(e *EnumDecl) {
	p.line("enum %s {", e.Name)
	p.depth++
	for _, v := range e.Variants {
		p.line("%s = %d,", v.Name, v.Value)
	}
	p.depth--
	p.line("}")
}

func (p *printer) printStruct(s *StructDecl) {
	p.line("struct %s {", s.Name)
	p.depth++
	for _, f := range s.Fields {
		p.line("%s: %s,", f.Name, f.Type)
	}
	p.depth--
	p.line("}")
}

func (p *printer) printFunction(f *FunctionDecl) {
	params := make([]string, len(f.Params))
	for i, prm := range f.Params {
		params[i] = fmt.Sprintf("%s: %s", prm.Name, prm.Type)
	}
	sig := fmt.Sprintf("function %s(%s) -> %s", f.Name, strings.Join(params, ", "), f.Ret)
	if f.Body == nil {
		p.line("%s;", sig)
		return
	}
	p.line("%s {", sig)
	p.depth++
	for _, d := range f.Decls {
		p.line("let %s: %s;", d.Name, d.Type)
	}
	for _, s := range f.Body {
		p.printStmt(s)
	}
	p.depth--
	p.line("}")
}

func (p *printer) printStmt(s Stmt) {
	switch st := s.(type) {
	case *ExprStmt:
		p.line("%s;", p.exprString(st.Expr))
	case *ReturnStmt:
		if st.Expr != nil {
			p.line("return %s;", p.exprString(st.Expr))
		} else {
			p.line("return;")
		}
	case *BreakStmt:
		p.line("break;")
	case *ContinueStmt:
		p.line("continue;")
	case *WhileStmt:
		p.line("while (%s)", p.exprString(st.Cond))
		p.depth++
		p.printStmt(st.Body)
		p.depth--
	case *IfStmt:
		p.line("if (%s)", p.exprString(st.Cond))
		p.depth++
		p.printStmt(st.Then)
		p.depth--
		if st.Else != nil {
			p.line("else")
			p.depth++
			p.printStmt(st.Else)
			p.depth--
		}
	case *BlockStmt:
		p.line("{")
		p.depth++
		for _, item := range st.Items {
			p.printStmt(item)
		}
		p.depth--
		p.line("}")
	case *AsmStmt:
		p.line("asm(%q);", st.Instruction)
	default:
		p.line("<unknown stmt %T>", s)
	}
}

// exprString renders e as valid mini expression syntax, parenthesizing
// every unary/infix application so precedence never has to be
// reconstructed by a reader (or by the round-trip re-parse).
func (p *printer) exprString(e Expr) string {
	switch ex := e.(type) {
	case *UnaryExpr:
		return fmt.Sprintf("(%s%s)", ex.Op, p.exprString(ex.Operand))
	case *InfixExpr:
		return fmt.Sprintf("(%s %s %s)", p.exprString(ex.Lhs), ex.Op, p.exprString(ex.Rhs))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", p.exprString(ex.Target), p.exprString(ex.Index))
	case *CallExpr:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = p.exprString(a)
		}
		return fmt.Sprintf("%s(%s)", p.exprString(ex.Callee), strings.Join(args, ", "))
	case *AccessExpr:
		return fmt.Sprintf("%s.%s", p.exprString(ex.Target), ex.Field)
	case *CastExpr:
		return fmt.Sprintf("(%s)%s", ex.To, p.exprString(ex.Operand))
	case *ESizeofExpr:
		return fmt.Sprintf("sizeof(%s)", p.exprString(ex.Operand))
	case *TSizeofExpr:
		return fmt.Sprintf("sizeof(%s)", ex.Of)
	case *EnumSelectExpr:
		return fmt.Sprintf("%s::%s", ex.EnumName, ex.VariantName)
	case *VariableExpr:
		return ex.Name
	case *IntegerExpr:
		return fmt.Sprintf("%d", ex.Value)
	case *StringExpr:
		return fmt.Sprintf("%q", p.strings.Value(ex.Symbol))
	case *CharExpr:
		return fmt.Sprintf("%q", rune(ex.Value))
	case *BoolExpr:
		return fmt.Sprintf("%t", ex.Value)
	case *NullPtrExpr:
		return "nullptr"
	case *StructExpr:
		fields := make([]string, len(ex.Inits))
		for i, fi := range ex.Inits {
			fields[i] = fmt.Sprintf("%s: %s", fi.Name, p.exprString(fi.Init))
		}
		return fmt.Sprintf("%s{%s}", ex.Name, strings.Join(fields, ", "))
	case *ArrayExpr:
		elems := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = p.exprString(el)
		}
		return fmt.Sprintf("{%s}", strings.Join(elems, ", "))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
