package ast

import (
	"fmt"
	"strings"
)

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	Span() Span
	String() string
}

// VarBody is one `name: type [= expr]` entry inside a `let`.
type VarBody struct {
	Name string
	Type Type
	Init Expr // may be nil
	Sp   Span
}

// VarDecls is a single `let` declaring one or more bodies.
type VarDecls struct {
	Bodies []VarBody
	Sp     Span
}

func (*VarDecls) stmtNode()    {}
func (s *VarDecls) Span() Span { return s.Sp }
func (s *VarDecls) String() string {
	parts := make([]string, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Init != nil {
			parts[i] = fmt.Sprintf("%s: %s = %s", b.Name, b.Type, b.Init)
		} else {
			parts[i] = fmt.Sprintf("%s: %s", b.Name, b.Type)
		}
	}
	return fmt.Sprintf("let %s;", strings.Join(parts, ", "))
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Expr Expr
	Sp   Span
}

func (*ExprStmt) stmtNode()        {}
func (s *ExprStmt) Span() Span     { return s.Sp }
func (s *ExprStmt) String() string { return fmt.Sprintf("%s;", s.Expr) }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	Expr Expr // may be nil
	Sp   Span
}

func (*ReturnStmt) stmtNode()    {}
func (s *ReturnStmt) Span() Span { return s.Sp }
func (s *ReturnStmt) String() string {
	if s.Expr == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Expr)
}

// BreakStmt is `break;`.
type BreakStmt struct{ Sp Span }

func (*BreakStmt) stmtNode()        {}
func (s *BreakStmt) Span() Span     { return s.Sp }
func (s *BreakStmt) String() string { return "break;" }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ Sp Span }

func (*ContinueStmt) stmtNode()        {}
func (s *ContinueStmt) Span() Span     { return s.Sp }
func (s *ContinueStmt) String() string { return "continue;" }

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Sp   Span
}

func (*WhileStmt) stmtNode()        {}
func (s *WhileStmt) Span() Span     { return s.Sp }
func (s *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s", s.Cond, s.Body) }

// IfStmt is `if (Cond) Then [else Else]`.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
	Sp   Span
}

func (*IfStmt) stmtNode()    {}
func (s *IfStmt) Span() Span { return s.Sp }
func (s *IfStmt) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
	}
	return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
}

// BlockItem is either a *VarDecls or any other Stmt.
type BlockItem = Stmt

// BlockStmt is `{ item; ... }`.
type BlockStmt struct {
	Items []BlockItem
	Sp    Span
}

func (*BlockStmt) stmtNode()    {}
func (s *BlockStmt) Span() Span { return s.Sp }
func (s *BlockStmt) String() string {
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = it.String()
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, " "))
}

// AsmStmt is `asm("...");`, an extension statement gated behind the
// driver's -fasm-blocks flag; it is not part of the default grammar.
type AsmStmt struct {
	Instruction string
	Sp          Span
}

func (*AsmStmt) stmtNode()        {}
func (s *AsmStmt) Span() Span     { return s.Sp }
func (s *AsmStmt) String() string { return fmt.Sprintf("asm(%q);", s.Instruction) }
