package sema

import (
	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/hir"
)

// EliminateUnusedVariables runs a fixpoint dead-variable pass over fn,
// warning at each removed declaration's span and at every unused
// parameter (parameters are warned about but never removed — the
// calling convention still needs their slot).
func EliminateUnusedVariables(fn *hir.FunctionDecl, reporter *diag.Reporter) {
	if fn.Body == nil {
		return
	}

	for {
		used := collectUsed(fn.Body)

		removed := make(map[string]bool)
		kept := fn.Decls[:0:0]
		for _, d := range fn.Decls {
			if used[d.Name] {
				kept = append(kept, d)
			} else {
				removed[d.Name] = true
				reporter.Warnf(d.Sp, "unused variable %q", d.Name)
			}
		}
		fn.Decls = kept

		if len(removed) == 0 {
			break
		}
		fn.Body = dropReferencingStmts(fn.Body, removed)
	}

	used := collectUsed(fn.Body)
	for _, p := range fn.Params {
		if !used[p.Name] {
			reporter.Warnf(p.Sp, "unused parameter %q", p.Name)
		}
	}
}

// collectUsed gathers every variable name read across stmts. A bare
// assignment's direct LHS variable is not counted as a use.
func collectUsed(stmts []hir.Stmt) map[string]bool {
	used := make(map[string]bool)
	for _, s := range stmts {
		collectUsedStmt(s, used)
	}
	return used
}

func collectUsedStmt(s hir.Stmt, used map[string]bool) {
	switch st := s.(type) {
	case *hir.ExprStmt:
		collectUsedExpr(st.Expr, used)
	case *hir.ReturnStmt:
		if st.Expr != nil {
			collectUsedExpr(st.Expr, used)
		}
	case *hir.WhileStmt:
		collectUsedExpr(st.Cond, used)
		collectUsedStmt(st.Body, used)
	case *hir.IfStmt:
		collectUsedExpr(st.Cond, used)
		collectUsedStmt(st.Then, used)
		if st.Else != nil {
			collectUsedStmt(st.Else, used)
		}
	case *hir.BlockStmt:
		for _, item := range st.Items {
			collectUsedStmt(item, used)
		}
	case *hir.BreakStmt, *hir.ContinueStmt, *hir.AsmStmt:
		// no variable references to track
	}
}

func collectUsedExpr(e hir.Expr, used map[string]bool) {
	switch ex := e.(type) {
	case *hir.UnaryExpr:
		collectUsedExpr(ex.Operand, used)
	case *hir.InfixExpr:
		if ex.Op == ast.Assign {
			if _, isBareVar := ex.Lhs.(*hir.VariableExpr); !isBareVar {
				collectUsedExpr(ex.Lhs, used)
			}
		} else {
			collectUsedExpr(ex.Lhs, used)
		}
		collectUsedExpr(ex.Rhs, used)
	case *hir.IndexExpr:
		collectUsedExpr(ex.Target, used)
		collectUsedExpr(ex.Index, used)
	case *hir.CallExpr:
		collectUsedExpr(ex.Callee, used)
		for _, a := range ex.Args {
			collectUsedExpr(a, used)
		}
	case *hir.AccessExpr:
		collectUsedExpr(ex.Target, used)
	case *hir.CastExpr:
		collectUsedExpr(ex.Operand, used)
	case *hir.ESizeofExpr:
		// The operand's runtime value is never evaluated, but its
		// static type still flows to the layout engine, so the
		// variable it names must survive.
		collectUsedExpr(ex.Operand, used)
	case *hir.TSizeofExpr, *hir.EnumSelectExpr, *hir.IntegerExpr,
		*hir.StringExpr, *hir.CharExpr, *hir.BoolExpr, *hir.NullPtrExpr:
		// no variable reference
	case *hir.VariableExpr:
		used[ex.Name] = true
	case *hir.StructExpr:
		for _, fi := range ex.Inits {
			collectUsedExpr(fi.Init, used)
		}
	case *hir.ArrayExpr:
		for _, el := range ex.Elements {
			collectUsedExpr(el, used)
		}
	}
}

// dropReferencingStmts drops any statement that reads or writes a
// removed name, then drops any block left with no remaining statements.
func dropReferencingStmts(stmts []hir.Stmt, removed map[string]bool) []hir.Stmt {
	out := make([]hir.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if ns, keep := dropReferencingStmt(s, removed); keep {
			out = append(out, ns)
		}
	}
	return out
}

func dropReferencingStmt(s hir.Stmt, removed map[string]bool) (hir.Stmt, bool) {
	switch st := s.(type) {
	case *hir.ExprStmt:
		if exprReferences(st.Expr, removed) {
			return nil, false
		}
		return st, true
	case *hir.ReturnStmt:
		if st.Expr != nil && exprReferences(st.Expr, removed) {
			return nil, false
		}
		return st, true
	case *hir.WhileStmt:
		if exprReferences(st.Cond, removed) {
			return nil, false
		}
		body, keep := dropReferencingStmt(st.Body, removed)
		if !keep {
			return nil, false
		}
		st.Body = body
		return st, true
	case *hir.IfStmt:
		if exprReferences(st.Cond, removed) {
			return nil, false
		}
		then, keepThen := dropReferencingStmt(st.Then, removed)
		if !keepThen {
			return nil, false
		}
		st.Then = then
		if st.Else != nil {
			els, keepElse := dropReferencingStmt(st.Else, removed)
			if !keepElse {
				st.Else = nil
			} else {
				st.Else = els
			}
		}
		return st, true
	case *hir.BlockStmt:
		st.Items = dropReferencingStmts(st.Items, removed)
		if len(st.Items) == 0 {
			return nil, false
		}
		return st, true
	default:
		return st, true
	}
}

func exprReferences(e hir.Expr, removed map[string]bool) bool {
	found := false
	var walk func(hir.Expr)
	walk = func(e hir.Expr) {
		if found || e == nil {
			return
		}
		switch ex := e.(type) {
		case *hir.UnaryExpr:
			walk(ex.Operand)
		case *hir.InfixExpr:
			walk(ex.Lhs)
			walk(ex.Rhs)
		case *hir.IndexExpr:
			walk(ex.Target)
			walk(ex.Index)
		case *hir.CallExpr:
			walk(ex.Callee)
			for _, a := range ex.Args {
				walk(a)
			}
		case *hir.AccessExpr:
			walk(ex.Target)
		case *hir.CastExpr:
			walk(ex.Operand)
		case *hir.ESizeofExpr:
			walk(ex.Operand)
		case *hir.VariableExpr:
			if removed[ex.Name] {
				found = true
			}
		case *hir.StructExpr:
			for _, fi := range ex.Inits {
				walk(fi.Init)
			}
		case *hir.ArrayExpr:
			for _, el := range ex.Elements {
				walk(el)
			}
		}
	}
	walk(e)
	return found
}
