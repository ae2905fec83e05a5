package hir

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/diag"
)

// Program is the full lowered output of one compilation.
type Program struct {
	Functions []*FunctionDecl
	Structs   []*StructDecl
	Enums     []*EnumDecl
	Imports   []*ImportDecl
	Strings   *StringTable
}

// StringTable interns string literal content; each distinct byte
// sequence receives one symbol, emitted by pkg/codegen into .rodata.
type StringTable struct {
	bySymbol map[string][]byte
	byValue  map[string]string
	order    []string
	next     int
}

// NewStringTable returns an empty StringTable.
func NewStringTable() *StringTable {
	return &StringTable{bySymbol: make(map[string][]byte), byValue: make(map[string]string)}
}

// Intern returns the symbol for value, minting a fresh
// `string_literal_<n>` symbol the first time a given byte sequence is seen.
func (st *StringTable) Intern(value []byte) string {
	key := string(value)
	if sym, ok := st.byValue[key]; ok {
		return sym
	}
	sym := fmt.Sprintf("string_literal_%d", st.next)
	st.next++
	st.byValue[key] = sym
	st.bySymbol[sym] = value
	st.order = append(st.order, sym)
	return sym
}

// Value returns the byte sequence sym was interned from.
func (st *StringTable) Value(sym string) []byte { return st.bySymbol[sym] }

// Entries returns every (symbol, value) pair in interning order.
func (st *StringTable) Entries() [][2]any {
	out := make([][2]any, 0, len(st.order))
	for _, sym := range st.order {
		out = append(out, [2]any{sym, st.bySymbol[sym]})
	}
	return out
}

// Lowerer holds the state threaded through one compilation unit's
// lowering pass.
type Lowerer struct {
	reporter   *diag.Reporter
	translator *NameTranslator
	strings    *StringTable

	structNames map[string]bool
	enumNames   map[string]bool
	funcNames   map[string]bool
}

// Lower lowers a parsed declaration list into a Program. It never
// returns a nil Program even on error; callers check reporter.HasErrors().
func Lower(decls []ast.Decl, reporter *diag.Reporter) *Program {
	l := &Lowerer{
		reporter:    reporter,
		translator:  NewNameTranslator(),
		strings:     NewStringTable(),
		structNames: make(map[string]bool),
		enumNames:   make(map[string]bool),
		funcNames:   make(map[string]bool),
	}
	l.translator.EnterScope() // root/global scope, never left

	// Pass 1: register every top-level name with itself. Re-declaration
	// is an error; the translator still silently overrides, but we now
	// surface it as a diagnostic.
	for _, d := range decls {
		var name string
		var sp ast.Span
		var bucket map[string]bool
		switch dd := d.(type) {
		case *ast.FunctionDecl:
			name, sp, bucket = dd.Name, dd.Sp, l.funcNames
		case *ast.StructDecl:
			name, sp, bucket = dd.Name, dd.Sp, l.structNames
		case *ast.EnumDecl:
			name, sp, bucket = dd.Name, dd.Sp, l.enumNames
		default:
			continue
		}
		if l.translator.DeclaredInCurrentScope(name) {
			l.reporter.Errorf(sp, "duplicate top-level declaration %q", name)
		}
		l.translator.RegNameRaw(name)
		bucket[name] = true
	}

	prog := &Program{Strings: l.strings}

	for _, d := range decls {
		if e, ok := d.(*ast.EnumDecl); ok {
			prog.Enums = append(prog.Enums, l.lowerEnum(e))
		}
	}
	for _, d := range decls {
		if s, ok := d.(*ast.StructDecl); ok {
			prog.Structs = append(prog.Structs, l.lowerStruct(s))
		}
	}
	for _, d := range decls {
		switch dd := d.(type) {
		case *ast.FunctionDecl:
			prog.Functions = append(prog.Functions, l.lowerFunction(dd))
		case *ast.ImportDecl:
			prog.Imports = append(prog.Imports, &ImportDecl{Items: dd.Items, Path: dd.Path, Sp: dd.Sp})
		}
	}
	return prog
}

func (l *Lowerer) lowerEnum(e *ast.EnumDecl) *EnumDecl {
	variants := make([]EnumVariant, 0, len(e.Fields))
	var next uint64
	for _, f := range e.Fields {
		val := next
		if f.Init != nil {
			v, err := evalConstExpr(f.Init)
			if err != nil {
				l.reporter.Errorf(f.Init.Span(), "invalid enum initializer: %v", err)
			} else {
				val = v
			}
		}
		variants = append(variants, EnumVariant{Name: f.Name, Value: val})
		next = val + 1
	}
	return &EnumDecl{Name: e.Name, Variants: variants, Sp: e.Sp}
}

func (l *Lowerer) lowerStruct(s *ast.StructDecl) *StructDecl {
	fields := make([]StructField, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, StructField{Name: f.Name, Type: l.lowerType(f.Type)})
	}
	return &StructDecl{Name: s.Name, Fields: fields, Sp: s.Sp}
}

func (l *Lowerer) lowerFunction(f *ast.FunctionDecl) *FunctionDecl {
	l.translator.EnterScope()
	defer l.translator.LeaveScope()

	params := make([]Param, 0, len(f.Params))
	for _, p := range f.Params {
		unique := l.translator.RegName(p.Name)
		params = append(params, Param{Name: unique, Type: l.lowerType(p.Type), Sp: f.Sp})
	}

	var ret Type
	if f.Ret != nil {
		ret = l.lowerType(f.Ret)
	} else {
		ret = &BuiltinType{Kind: ast.Void}
	}

	fn := &FunctionDecl{Name: f.Name, Params: params, Ret: ret, Sp: f.Sp}
	if f.Body == nil {
		return fn
	}

	var decls []VarDecl
	var stmts []Stmt
	l.lowerBlockInto(f.Body, &decls, &stmts)
	fn.Decls = decls
	fn.Body = stmts
	return fn
}

// lowerBlockInto lowers the items of block, hoisting every `let` into
// *decls (which belongs to the enclosing function, not this block) and
// appending the resulting flat statement sequence to *stmts.
func (l *Lowerer) lowerBlockInto(block *ast.BlockStmt, decls *[]VarDecl, stmts *[]Stmt) {
	for _, item := range block.Items {
		switch it := item.(type) {
		case *ast.VarDecls:
			for _, body := range it.Bodies {
				if l.translator.DeclaredInCurrentScope(body.Name) {
					l.reporter.Errorf(body.Sp, "redeclaration of %q in the same scope", body.Name)
				}
				t := l.lowerType(body.Type)
				unique := l.translator.RegName(body.Name)
				*decls = append(*decls, VarDecl{Name: unique, Type: t, Sp: body.Sp})
				if body.Init != nil {
					initExpr := l.lowerExpr(body.Init)
					lhs := &VariableExpr{Name: unique, Sp: body.Sp}
					*stmts = append(*stmts, &ExprStmt{
						Expr: &InfixExpr{Op: ast.Assign, Lhs: lhs, Rhs: initExpr, Sp: body.Sp},
						Sp:   body.Sp,
					})
				}
			}
		default:
			*stmts = append(*stmts, l.lowerStmtHoisting(item, decls))
		}
	}
}

// lowerStmtHoisting lowers a single non-`let` statement, threading decls
// through to any nested block so hoisting stays function-scoped.
func (l *Lowerer) lowerStmtHoisting(s ast.Stmt, decls *[]VarDecl) Stmt {
	switch st := s.(type) {
	case *ast.ExprStmt:
		return &ExprStmt{Expr: l.lowerExpr(st.Expr), Sp: st.Sp}
	case *ast.ReturnStmt:
		var e Expr
		if st.Expr != nil {
			e = l.lowerExpr(st.Expr)
		}
		return &ReturnStmt{Expr: e, Sp: st.Sp}
	case *ast.BreakStmt:
		return &BreakStmt{Sp: st.Sp}
	case *ast.ContinueStmt:
		return &ContinueStmt{Sp: st.Sp}
	case *ast.WhileStmt:
		return &WhileStmt{Cond: l.lowerExpr(st.Cond), Body: l.lowerStmtHoisting(st.Body, decls), Sp: st.Sp}
	case *ast.IfStmt:
		var elseStmt Stmt
		if st.Else != nil {
			elseStmt = l.lowerStmtHoisting(st.Else, decls)
		}
		return &IfStmt{Cond: l.lowerExpr(st.Cond), Then: l.lowerStmtHoisting(st.Then, decls), Else: elseStmt, Sp: st.Sp}
	case *ast.BlockStmt:
		l.translator.EnterScope()
		defer l.translator.LeaveScope()
		var inner []Stmt
		l.lowerBlockInto(st, decls, &inner)
		return &BlockStmt{Items: inner, Sp: st.Sp}
	case *ast.AsmStmt:
		return &AsmStmt{Instruction: st.Instruction, Sp: st.Sp}
	default:
		panic(fmt.Sprintf("hir: unhandled statement kind %T", s))
	}
}

func (l *Lowerer) lowerExpr(e ast.Expr) Expr {
	switch ex := e.(type) {
	case *ast.UnaryExpr:
		return &UnaryExpr{Op: ex.Op, Operand: l.lowerExpr(ex.Operand), Sp: ex.Sp}
	case *ast.InfixExpr:
		return &InfixExpr{Op: ex.Op, Lhs: l.lowerExpr(ex.Lhs), Rhs: l.lowerExpr(ex.Rhs), Sp: ex.Sp}
	case *ast.IndexExpr:
		return &IndexExpr{Target: l.lowerExpr(ex.Target), Index: l.lowerExpr(ex.Index), Sp: ex.Sp}
	case *ast.CallExpr:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = l.lowerExpr(a)
		}
		return &CallExpr{Callee: l.lowerExpr(ex.Callee), Args: args, Sp: ex.Sp}
	case *ast.AccessExpr:
		return &AccessExpr{Target: l.lowerExpr(ex.Target), Field: ex.Field, Sp: ex.Sp}
	case *ast.CastExpr:
		return &CastExpr{To: l.lowerType(ex.To), Operand: l.lowerExpr(ex.Operand), Sp: ex.Sp}
	case *ast.ESizeofExpr:
		// A bare-identifier sizeof(Name) where Name names a struct or
		// enum rather than a variable is promoted to TSizeof here: the
		// parser cannot disambiguate without the symbol table.
		if v, ok := ex.Operand.(*ast.VariableExpr); ok {
			if _, isVar := l.translator.Lookup(v.Name); !isVar && (l.structNames[v.Name] || l.enumNames[v.Name]) {
				return &TSizeofExpr{Of: &NameType{Name: v.Name}, Sp: ex.Sp}
			}
		}
		return &ESizeofExpr{Operand: l.lowerExpr(ex.Operand), Sp: ex.Sp}
	case *ast.TSizeofExpr:
		return &TSizeofExpr{Of: l.lowerType(ex.Of), Sp: ex.Sp}
	case *ast.EnumSelectExpr:
		if !l.enumNames[ex.EnumName] {
			l.reporter.Errorf(ex.Sp, "unknown enum %q", ex.EnumName)
		}
		return &EnumSelectExpr{EnumName: ex.EnumName, VariantName: ex.VariantName, Sp: ex.Sp}
	case *ast.VariableExpr:
		if unique, ok := l.translator.Lookup(ex.Name); ok {
			return &VariableExpr{Name: unique, Sp: ex.Sp}
		}
		if l.funcNames[ex.Name] {
			return &VariableExpr{Name: ex.Name, Sp: ex.Sp}
		}
		l.reporter.Errorf(ex.Sp, "unknown variable %q", ex.Name)
		return &VariableExpr{Name: ex.Name, Sp: ex.Sp}
	case *ast.IntegerExpr:
		return &IntegerExpr{Value: ex.Value, Sp: ex.Sp}
	case *ast.StringExpr:
		return &StringExpr{Symbol: l.strings.Intern(ex.Value), Sp: ex.Sp}
	case *ast.CharExpr:
		return &CharExpr{Value: ex.Value, Sp: ex.Sp}
	case *ast.BoolExpr:
		return &BoolExpr{Value: ex.Value, Sp: ex.Sp}
	case *ast.NullPtrExpr:
		return &NullPtrExpr{Sp: ex.Sp}
	case *ast.StructExpr:
		if !l.structNames[ex.Name] {
			l.reporter.Errorf(ex.Sp, "unknown struct %q", ex.Name)
		}
		inits := make([]FieldInit, len(ex.Inits))
		for i, fi := range ex.Inits {
			inits[i] = FieldInit{Name: fi.Name, Init: l.lowerExpr(fi.Init)}
		}
		return &StructExpr{Name: ex.Name, Inits: inits, Sp: ex.Sp}
	case *ast.ArrayExpr:
		elems := make([]Expr, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = l.lowerExpr(el)
		}
		return &ArrayExpr{Elements: elems, Sp: ex.Sp}
	default:
		panic(fmt.Sprintf("hir: unhandled expression kind %T", e))
	}
}

func (l *Lowerer) lowerType(t ast.Type) Type {
	switch tt := t.(type) {
	case *ast.BuiltinType:
		return &BuiltinType{Kind: tt.Kind}
	case *ast.PointerType:
		return &PointerType{Of: l.lowerType(tt.Of)}
	case *ast.ArrayType:
		size, err := evalConstExpr(tt.Size)
		if err != nil {
			l.reporter.Errorf(tt.Size.Span(), "invalid array size: %v", err)
			size = 0
		}
		return &ArrayType{Of: l.lowerType(tt.Of), Size: size}
	case *ast.NameType:
		if !l.structNames[tt.Name] && !l.enumNames[tt.Name] {
			l.reporter.Errorf(tt.Sp, "unknown type %q", tt.Name)
		}
		return &NameType{Name: tt.Name}
	default:
		panic(fmt.Sprintf("hir: unhandled type kind %T", t))
	}
}

// evalConstExpr evaluates e as a compile-time constant, used for enum
// initializers and array sizes. Supports "+ - * / % & | ^ << >> ~" over
// integer literals.
func evalConstExpr(e ast.Expr) (uint64, error) {
	switch ex := e.(type) {
	case *ast.IntegerExpr:
		return ex.Value, nil
	case *ast.UnaryExpr:
		v, err := evalConstExpr(ex.Operand)
		if err != nil {
			return 0, err
		}
		switch ex.Op {
		case ast.Minus:
			return uint64(-int64(v)), nil
		case ast.Inv:
			return ^v, nil
		default:
			return 0, fmt.Errorf("operator %s is not allowed in a constant expression", ex.Op)
		}
	case *ast.InfixExpr:
		lhs, err := evalConstExpr(ex.Lhs)
		if err != nil {
			return 0, err
		}
		rhs, err := evalConstExpr(ex.Rhs)
		if err != nil {
			return 0, err
		}
		switch ex.Op {
		case ast.Add:
			return lhs + rhs, nil
		case ast.Sub:
			return lhs - rhs, nil
		case ast.Mul:
			return lhs * rhs, nil
		case ast.Div:
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero in constant expression")
			}
			return lhs / rhs, nil
		case ast.Mod:
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero in constant expression")
			}
			return lhs % rhs, nil
		case ast.BitAnd:
			return lhs & rhs, nil
		case ast.BitOr:
			return lhs | rhs, nil
		case ast.BitXor:
			return lhs ^ rhs, nil
		case ast.LShift:
			return lhs << rhs, nil
		case ast.RShift:
			return lhs >> rhs, nil
		default:
			return 0, fmt.Errorf("operator %s is not allowed in a constant expression", ex.Op)
		}
	default:
		return 0, fmt.Errorf("%T is not a constant expression", e)
	}
}
