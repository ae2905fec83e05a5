// Package hir defines the lowered, name-resolved intermediate
// representation the code generator consumes, and the lowering pass
// that produces it from pkg/ast.
package hir

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
)

// Type is implemented by every HIR type: Builtin(kind), Pointer(of),
// Array(of, u64), Name(ident). Unlike pkg/ast's ArrayType, the HIR
// array size is always a resolved uint64 — lowering const-evaluates it.
type Type interface {
	typeNode()
	String() string
}

// BuiltinType is one of the fixed-width integer types, bool, char or void.
type BuiltinType struct {
	Kind ast.BuiltinKind
}

func (*BuiltinType) typeNode()        {}
func (t *BuiltinType) String() string { return t.Kind.String() }

// IsInteger reports whether t is one of the fixed-width or pointer-sized
// integer kinds (not bool, char, or void).
func (t *BuiltinType) IsInteger() bool {
	switch t.Kind {
	case ast.Int8, ast.Int16, ast.Int32, ast.Int64,
		ast.UInt8, ast.UInt16, ast.UInt32, ast.UInt64,
		ast.ISize, ast.USize:
		return true
	default:
		return false
	}
}

// IsSigned reports whether t is one of the signed integer kinds.
func (t *BuiltinType) IsSigned() bool {
	switch t.Kind {
	case ast.Int8, ast.Int16, ast.Int32, ast.Int64, ast.ISize:
		return true
	default:
		return false
	}
}

// PointerType is `*Of`.
type PointerType struct {
	Of Type
}

func (*PointerType) typeNode()        {}
func (t *PointerType) String() string { return fmt.Sprintf("*%s", t.Of) }

// ArrayType is `Of[Size]`, with Size already const-evaluated to a u64.
type ArrayType struct {
	Of   Type
	Size uint64
}

func (*ArrayType) typeNode()        {}
func (t *ArrayType) String() string { return fmt.Sprintf("(%s)[%d]", t.Of, t.Size) }

// NameType refers to a declared struct or enum by name.
type NameType struct {
	Name string
}

func (*NameType) typeNode()        {}
func (t *NameType) String() string { return t.Name }

// IsFat reports whether a value of type t is represented on the
// operand stack by its address rather than its value — every array
// and every struct.
func IsFat(t Type, structs map[string]*StructDecl) bool {
	switch tt := t.(type) {
	case *ArrayType:
		return true
	case *NameType:
		_, isStruct := structs[tt.Name]
		return isStruct
	}
	return false
}

// Equal reports whether a and b denote the same HIR type. Struct/enum
// identity is by name only.
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case *BuiltinType:
		bv, ok := b.(*BuiltinType)
		return ok && av.Kind == bv.Kind
	case *PointerType:
		bv, ok := b.(*PointerType)
		return ok && Equal(av.Of, bv.Of)
	case *ArrayType:
		bv, ok := b.(*ArrayType)
		return ok && av.Size == bv.Size && Equal(av.Of, bv.Of)
	case *NameType:
		bv, ok := b.(*NameType)
		return ok && av.Name == bv.Name
	default:
		return false
	}
}
