package ast

import "fmt"

// BuiltinKind enumerates the fixed-width and scalar builtin types.
type BuiltinKind int

const (
	Void BuiltinKind = iota
	Bool
	Char
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	ISize
	USize
)

func (k BuiltinKind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case ISize:
		return "isize"
	case USize:
		return "usize"
	default:
		return fmt.Sprintf("BuiltinKind(%d)", int(k))
	}
}

// Type is implemented by every node describing a source-level type.
type Type interface {
	typeNode()
	Span() Span
	String() string
}

// BuiltinType is one of the fixed-width integer types, bool, char or void.
type BuiltinType struct {
	Kind BuiltinKind
	Sp   Span
}

func (*BuiltinType) typeNode()        {}
func (t *BuiltinType) Span() Span     { return t.Sp }
func (t *BuiltinType) String() string { return t.Kind.String() }

// PointerType is `*Of`.
type PointerType struct {
	Of Type
	Sp Span
}

func (*PointerType) typeNode()        {}
func (t *PointerType) Span() Span     { return t.Sp }
func (t *PointerType) String() string { return fmt.Sprintf("*%s", t.Of) }

// ArrayType is `(Of)[Size]`; Size is a constant expression evaluated
// during HIR lowering.
type ArrayType struct {
	Of   Type
	Size Expr
	Sp   Span
}

func (*ArrayType) typeNode()        {}
func (t *ArrayType) Span() Span     { return t.Sp }
func (t *ArrayType) String() string { return fmt.Sprintf("(%s)[%s]", t.Of, t.Size) }

// NameType refers to a user-declared struct or enum by name.
type NameType struct {
	Name string
	Sp   Span
}

func (*NameType) typeNode()        {}
func (t *NameType) Span() Span     { return t.Sp }
func (t *NameType) String() string { return t.Name }
