// Package sema implements the post-lowering semantic checks:
// control-flow completeness and unused-variable elimination.
package sema

import (
	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/hir"
)

// CheckControlFlow verifies that every execution path through fn
// reaches a return, when fn's declared return type is not Void. It
// reports at most one diagnostic, anchored at fn's span.
func CheckControlFlow(fn *hir.FunctionDecl, reporter *diag.Reporter) {
	if fn.Body == nil {
		return // extern: no body to check
	}
	if bt, ok := fn.Ret.(*hir.BuiltinType); ok && bt.Kind == ast.Void {
		return
	}
	if !blockDefinitelyReturns(fn.Body) {
		reporter.Errorf(fn.Sp, "function %q does not return a value on every path", fn.Name)
	}
}

// blockDefinitelyReturns reports whether any statement in a flat
// statement list definitely returns.
func blockDefinitelyReturns(stmts []hir.Stmt) bool {
	for _, s := range stmts {
		if stmtDefinitelyReturns(s) {
			return true
		}
	}
	return false
}

// stmtDefinitelyReturns implements the "definitely returns" predicate.
// While never counts: its condition may be false on first entry.
func stmtDefinitelyReturns(s hir.Stmt) bool {
	switch st := s.(type) {
	case *hir.ReturnStmt:
		return true
	case *hir.IfStmt:
		if st.Else == nil {
			return false
		}
		return stmtDefinitelyReturns(st.Then) && stmtDefinitelyReturns(st.Else)
	case *hir.BlockStmt:
		return blockDefinitelyReturns(st.Items)
	default:
		return false
	}
}
