package hir

import "github.com/pogyomo/mini/pkg/ast"

// Decl is implemented by every top-level HIR declaration.
type Decl interface {
	declNode()
}

// Param is one lowered function parameter: Name is the globally-unique
// HIR name assigned by the NameTranslator.
type Param struct {
	Name string
	Type Type
	Sp   ast.Span
}

// VarDecl is one hoisted local-variable declaration. Name is globally
// unique within the enclosing function.
type VarDecl struct {
	Name string
	Type Type
	Sp   ast.Span
}

// FunctionDecl is a lowered function. Decls holds every VarDecl hoisted
// out of every nested scope in Body, in declaration order; Body holds
// only statements (let-initializers became assignment ExprStmts). Body
// is nil for an extern (imported) function.
type FunctionDecl struct {
	Name   string
	Params []Param
	Ret    Type
	Decls  []VarDecl
	Body   []Stmt
	Sp     ast.Span
}

func (*FunctionDecl) declNode() {}

// StructField is one lowered `name: type` entry.
type StructField struct {
	Name string
	Type Type
}

// StructDecl is a lowered struct declaration; field order is preserved
// for layout purposes.
type StructDecl struct {
	Name   string
	Fields []StructField
	Sp     ast.Span
}

func (*StructDecl) declNode() {}

// EnumDecl is a lowered enum declaration with every variant's value
// already const-evaluated.
type EnumDecl struct {
	Name     string
	Variants []EnumVariant
	Sp       ast.Span
}

// EnumVariant is one `name = value` entry, value already resolved.
type EnumVariant struct {
	Name  string
	Value uint64
}

func (*EnumDecl) declNode() {}

// ImportDecl passes source import names through unchanged; the actual
// cross-file linkage happens in pkg/driver.ResolveImports, before
// lowering.
type ImportDecl struct {
	Items []string
	Path  []string
	Sp    ast.Span
}

func (*ImportDecl) declNode() {}

// Stmt is implemented by every HIR statement node.
type Stmt interface {
	stmtNode()
	Span() ast.Span
}

// ExprStmt evaluates Expr for its side effects — also the form every
// lowered `let ... = init` assignment takes.
type ExprStmt struct {
	Expr Expr
	Sp   ast.Span
}

func (*ExprStmt) stmtNode()      {}
func (s *ExprStmt) Span() ast.Span { return s.Sp }

// ReturnStmt is `return [expr];`; Expr is nil for a bare return.
type ReturnStmt struct {
	Expr Expr
	Sp   ast.Span
}

func (*ReturnStmt) stmtNode()      {}
func (s *ReturnStmt) Span() ast.Span { return s.Sp }

// BreakStmt is `break;`.
type BreakStmt struct{ Sp ast.Span }

func (*BreakStmt) stmtNode()      {}
func (s *BreakStmt) Span() ast.Span { return s.Sp }

// ContinueStmt is `continue;`.
type ContinueStmt struct{ Sp ast.Span }

func (*ContinueStmt) stmtNode()      {}
func (s *ContinueStmt) Span() ast.Span { return s.Sp }

// WhileStmt is `while (Cond) Body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Sp   ast.Span
}

func (*WhileStmt) stmtNode()      {}
func (s *WhileStmt) Span() ast.Span { return s.Sp }

// IfStmt is `if (Cond) Then [else Else]`; Else is nil when absent.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Sp   ast.Span
}

func (*IfStmt) stmtNode()      {}
func (s *IfStmt) Span() ast.Span { return s.Sp }

// BlockStmt is a nested `{ ... }`. Unlike pkg/ast's BlockStmt, it never
// carries declarations: lowering hoists every `let` to the enclosing
// function's Decls list and leaves only statements here.
type BlockStmt struct {
	Items []Stmt
	Sp    ast.Span
}

func (*BlockStmt) stmtNode()      {}
func (s *BlockStmt) Span() ast.Span { return s.Sp }

// AsmStmt is the mini/Go-rewrite `asm("...")` extension statement,
// carried through lowering unchanged.
type AsmStmt struct {
	Instruction string
	Sp          ast.Span
}

func (*AsmStmt) stmtNode()      {}
func (s *AsmStmt) Span() ast.Span { return s.Sp }

// Expr is implemented by every HIR expression node. Lowering mirrors
// pkg/ast's expression kinds 1:1; only variable names and string
// literals change shape.
type Expr interface {
	exprNode()
	Span() ast.Span
}

// FieldInit is one `name: expr` entry inside a struct literal.
type FieldInit struct {
	Name string
	Init Expr
}

type UnaryExpr struct {
	Op      ast.UnaryOp
	Operand Expr
	Sp      ast.Span
}

func (*UnaryExpr) exprNode()      {}
func (e *UnaryExpr) Span() ast.Span { return e.Sp }

type InfixExpr struct {
	Op  ast.InfixOp
	Lhs Expr
	Rhs Expr
	Sp  ast.Span
}

func (*InfixExpr) exprNode()      {}
func (e *InfixExpr) Span() ast.Span { return e.Sp }

type IndexExpr struct {
	Target Expr
	Index  Expr
	Sp     ast.Span
}

func (*IndexExpr) exprNode()      {}
func (e *IndexExpr) Span() ast.Span { return e.Sp }

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Sp     ast.Span
}

func (*CallExpr) exprNode()      {}
func (e *CallExpr) Span() ast.Span { return e.Sp }

type AccessExpr struct {
	Target Expr
	Field  string
	Sp     ast.Span
}

func (*AccessExpr) exprNode()      {}
func (e *AccessExpr) Span() ast.Span { return e.Sp }

type CastExpr struct {
	To      Type
	Operand Expr
	Sp      ast.Span
}

func (*CastExpr) exprNode()      {}
func (e *CastExpr) Span() ast.Span { return e.Sp }

// ESizeofExpr is `sizeof(e)`; Operand is lowered but never evaluated
// for its value — only its static type feeds the layout engine.
type ESizeofExpr struct {
	Operand Expr
	Sp      ast.Span
}

func (*ESizeofExpr) exprNode()      {}
func (e *ESizeofExpr) Span() ast.Span { return e.Sp }

type TSizeofExpr struct {
	Of Type
	Sp ast.Span
}

func (*TSizeofExpr) exprNode()      {}
func (e *TSizeofExpr) Span() ast.Span { return e.Sp }

// EnumSelectExpr is `EnumName::VariantName`, resolved against the enum
// table at codegen time (not const-folded during lowering, so that a
// forward reference to an enum declared later in the file still works).
type EnumSelectExpr struct {
	EnumName    string
	VariantName string
	Sp          ast.Span
}

func (*EnumSelectExpr) exprNode()      {}
func (e *EnumSelectExpr) Span() ast.Span { return e.Sp }

// VariableExpr reads the globally-unique HIR name Name, which may
// denote a local, a parameter, a global, or a function.
type VariableExpr struct {
	Name string
	Sp   ast.Span
}

func (*VariableExpr) exprNode()      {}
func (e *VariableExpr) Span() ast.Span { return e.Sp }

type IntegerExpr struct {
	Value uint64
	Sp    ast.Span
}

func (*IntegerExpr) exprNode()      {}
func (e *IntegerExpr) Span() ast.Span { return e.Sp }

// StringExpr is an interned string literal: Symbol names its entry in
// the lowering pass's string table (`string_literal_<n>`).
type StringExpr struct {
	Symbol string
	Sp     ast.Span
}

func (*StringExpr) exprNode()      {}
func (e *StringExpr) Span() ast.Span { return e.Sp }

type CharExpr struct {
	Value byte
	Sp    ast.Span
}

func (*CharExpr) exprNode()      {}
func (e *CharExpr) Span() ast.Span { return e.Sp }

type BoolExpr struct {
	Value bool
	Sp    ast.Span
}

func (*BoolExpr) exprNode()      {}
func (e *BoolExpr) Span() ast.Span { return e.Sp }

type NullPtrExpr struct{ Sp ast.Span }

func (*NullPtrExpr) exprNode()      {}
func (e *NullPtrExpr) Span() ast.Span { return e.Sp }

type StructExpr struct {
	Name  string
	Inits []FieldInit
	Sp    ast.Span
}

func (*StructExpr) exprNode()      {}
func (e *StructExpr) Span() ast.Span { return e.Sp }

type ArrayExpr struct {
	Elements []Expr
	Sp       ast.Span
}

func (*ArrayExpr) exprNode()      {}
func (e *ArrayExpr) Span() ast.Span { return e.Sp }
