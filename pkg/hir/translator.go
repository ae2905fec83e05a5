package hir

import "fmt"

// NameTranslator maps source identifiers to globally-unique HIR names,
// using a stack of per-block scopes. Unlike a symbol table built for
// stack-offset allocation, it only generates names — offset assignment
// happens later, in the codegen local variable table.
type NameTranslator struct {
	scopes   []map[string]string
	scopeIDs []int
	nextID   int
}

// NewNameTranslator returns a translator with no open scopes.
func NewNameTranslator() *NameTranslator {
	return &NameTranslator{}
}

// EnterScope pushes a fresh scope, assigning it a fresh monotonically
// increasing scope id used to suffix names registered within it.
func (t *NameTranslator) EnterScope() {
	t.nextID++
	t.scopes = append(t.scopes, make(map[string]string))
	t.scopeIDs = append(t.scopeIDs, t.nextID)
}

// LeaveScope pops the innermost scope, making its names unreachable.
func (t *NameTranslator) LeaveScope() {
	if len(t.scopes) == 0 {
		panic("hir: LeaveScope called with no open scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
	t.scopeIDs = t.scopeIDs[:len(t.scopeIDs)-1]
}

// RegName associates name with a fresh globally-unique HIR name of the
// form `<name>_<scope_id>` in the innermost scope, and returns it.
func (t *NameTranslator) RegName(name string) string {
	if len(t.scopes) == 0 {
		panic("hir: RegName called with no open scope")
	}
	unique := fmt.Sprintf("%s_%d", name, t.scopeIDs[len(t.scopeIDs)-1])
	t.scopes[len(t.scopes)-1][name] = unique
	return unique
}

// RegNameRaw associates name with itself in the innermost scope — used
// for top-level declarations, which are already globally unique symbols.
func (t *NameTranslator) RegNameRaw(name string) string {
	if len(t.scopes) == 0 {
		panic("hir: RegNameRaw called with no open scope")
	}
	t.scopes[len(t.scopes)-1][name] = name
	return name
}

// Lookup searches scopes from innermost to outermost and returns the
// unique HIR name bound to name, or ("", false) if unbound.
func (t *NameTranslator) Lookup(name string) (string, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if unique, ok := t.scopes[i][name]; ok {
			return unique, true
		}
	}
	return "", false
}

// DeclaredInCurrentScope reports whether name is already bound in the
// innermost scope — used to detect re-declaration within one block.
func (t *NameTranslator) DeclaredInCurrentScope(name string) bool {
	if len(t.scopes) == 0 {
		return false
	}
	_, ok := t.scopes[len(t.scopes)-1][name]
	return ok
}
