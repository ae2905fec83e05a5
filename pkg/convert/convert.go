// Package convert implements the implicit-conversion lattice and the
// integer/pointer merge rule used by binary operators, plus a separate,
// more permissive lattice for explicit casts.
package convert

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/hir"
)

// Kind classifies how a conversion is realized in emitted code.
type Kind int

const (
	NoOp Kind = iota
	ZeroExtend
	SignExtend
	Truncate
	ArrayDecay
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case ZeroExtend:
		return "zero-extend"
	case SignExtend:
		return "sign-extend"
	case Truncate:
		return "truncate"
	case ArrayDecay:
		return "array-decay"
	default:
		return "unknown"
	}
}

// Conversion is the result of classifying one From->To conversion.
// FromWidth/ToWidth/ToSigned are only meaningful for the Kinds that
// need them (ZeroExtend/SignExtend read FromWidth; Truncate reads
// ToWidth and ToSigned), so the code generator never has to re-derive
// a type's width itself.
type Conversion struct {
	Kind      Kind
	From      hir.Type
	To        hir.Type
	FromWidth uint64
	ToWidth   uint64
	ToSigned  bool
}

// Classify decides whether an implicit conversion from From to To is
// allowed and, if so, how the code generator should realize it. On
// failure the returned error's message is exactly "implicit conversion
// failed" plus the offending types.
func Classify(from, to hir.Type) (*Conversion, error) {
	if hir.Equal(from, to) {
		return &Conversion{Kind: NoOp, From: from, To: to}, nil
	}

	switch f := from.(type) {
	case *hir.BuiltinType:
		t, ok := to.(*hir.BuiltinType)
		if !ok {
			return nil, failf(from, to)
		}
		// Void/Char/Bool convert only to themselves; the Equal check
		// above already handled the identical case.
		if !f.IsInteger() || !t.IsInteger() {
			return nil, failf(from, to)
		}
		fw := builtinWidth(f.Kind)
		tw := builtinWidth(t.Kind)
		if fw == tw {
			return &Conversion{Kind: NoOp, From: from, To: to}, nil
		}
		if tw < fw {
			return nil, failf(from, to)
		}
		// Unsigned 32-bit writes implicitly zero the upper 32 bits on
		// x86-64, so uint32 -> 64-bit-wide is a no-op, not a zero-extend.
		if f.Kind == ast.UInt32 && tw == 8 {
			return &Conversion{Kind: NoOp, From: from, To: to}, nil
		}
		if f.IsSigned() {
			return &Conversion{Kind: SignExtend, From: from, To: to, FromWidth: fw}, nil
		}
		return &Conversion{Kind: ZeroExtend, From: from, To: to, FromWidth: fw}, nil

	case *hir.PointerType:
		t, ok := to.(*hir.PointerType)
		if !ok {
			return nil, failf(from, to)
		}
		if hir.Equal(f.Of, t.Of) {
			return &Conversion{Kind: NoOp, From: from, To: to}, nil
		}
		if isVoid(f.Of) {
			return &Conversion{Kind: NoOp, From: from, To: to}, nil
		}
		return nil, failf(from, to)

	case *hir.ArrayType:
		if t, ok := to.(*hir.ArrayType); ok {
			if hir.Equal(f, t) {
				return &Conversion{Kind: NoOp, From: from, To: to}, nil
			}
			return nil, failf(from, to)
		}
		if t, ok := to.(*hir.PointerType); ok && hir.Equal(f.Of, t.Of) {
			return &Conversion{Kind: ArrayDecay, From: from, To: to}, nil
		}
		return nil, failf(from, to)

	default: // NameType: only identical, already handled above
		return nil, failf(from, to)
	}
}

// ClassifyCast decides whether an explicit cast from From to To is
// allowed and how the code generator should realize it. Unlike
// Classify, a cast may narrow (Truncate), may convert freely between
// an enum and any integer width (an enum value is carried as a plain
// 8-byte unsigned discriminant), and may reinterpret between any two
// pointer types regardless of pointee. A cast touching a struct-typed
// operand is always rejected, since a struct lives in memory by
// address, not in the scalar slot a cast operates on. On failure the
// returned error's message is exactly "bad cast" plus the offending
// types, matching the implicit-conversion failure's distinct wording.
func ClassifyCast(from, to hir.Type, structs map[string]*hir.StructDecl) (*Conversion, error) {
	if hir.Equal(from, to) {
		return &Conversion{Kind: NoOp, From: from, To: to}, nil
	}

	if _, ok := from.(*hir.PointerType); ok {
		if _, ok := to.(*hir.PointerType); ok {
			return &Conversion{Kind: NoOp, From: from, To: to}, nil
		}
	}

	fw, fSigned, fOK := castScalarWidth(from, structs)
	tw, tSigned, tOK := castScalarWidth(to, structs)
	if !fOK || !tOK {
		return nil, castFailf(from, to)
	}
	switch {
	case tw == fw:
		return &Conversion{Kind: NoOp, From: from, To: to}, nil
	case tw > fw:
		if fSigned {
			return &Conversion{Kind: SignExtend, From: from, To: to, FromWidth: fw}, nil
		}
		return &Conversion{Kind: ZeroExtend, From: from, To: to, FromWidth: fw}, nil
	default:
		return &Conversion{Kind: Truncate, From: from, To: to, ToWidth: tw, ToSigned: tSigned}, nil
	}
}

// castScalarWidth reports the byte width and signedness a type
// contributes to the cast lattice. Only scalar types participate: any
// BuiltinType (Void excluded — it carries no value), a pointer (always
// 8, unsigned), and an enum NameType (a name absent from structs,
// always an 8-byte unsigned discriminant). A struct NameType, array, or
// void reports ok=false.
func castScalarWidth(t hir.Type, structs map[string]*hir.StructDecl) (width uint64, signed bool, ok bool) {
	switch tt := t.(type) {
	case *hir.BuiltinType:
		if tt.Kind == ast.Void {
			return 0, false, false
		}
		if tt.IsInteger() {
			return builtinWidth(tt.Kind), tt.IsSigned(), true
		}
		// Bool and Char are single unsigned bytes for cast purposes.
		return 1, false, true
	case *hir.PointerType:
		return 8, false, true
	case *hir.NameType:
		if _, isStruct := structs[tt.Name]; isStruct {
			return 0, false, false
		}
		return 8, false, true
	default:
		return 0, false, false
	}
}

// Merge implements the integer-promotion rule for binary arithmetic:
// given operand types L and R, picks the common type both sides widen
// to.
func Merge(l, r hir.Type) (hir.Type, error) {
	lb, lIsBuiltin := l.(*hir.BuiltinType)
	rb, rIsBuiltin := r.(*hir.BuiltinType)
	if lIsBuiltin && rIsBuiltin && lb.IsInteger() && rb.IsInteger() {
		lw, rw := builtinWidth(lb.Kind), builtinWidth(rb.Kind)
		switch {
		case lw > rw:
			return l, nil
		case rw > lw:
			return r, nil
		case lb.Kind == rb.Kind:
			return l, nil
		case !lb.IsSigned():
			return l, nil
		default:
			return r, nil
		}
	}

	lp, lIsPtr := l.(*hir.PointerType)
	rp, rIsPtr := r.(*hir.PointerType)
	if lIsPtr && rIsPtr {
		if hir.Equal(lp.Of, rp.Of) {
			return l, nil
		}
		if isVoid(lp.Of) {
			return r, nil
		}
		if isVoid(rp.Of) {
			return l, nil
		}
		return nil, fmt.Errorf("cannot merge pointer types %s and %s", l, r)
	}

	return nil, fmt.Errorf("cannot merge types %s and %s", l, r)
}

func isVoid(t hir.Type) bool {
	b, ok := t.(*hir.BuiltinType)
	return ok && b.Kind == ast.Void
}

func builtinWidth(k ast.BuiltinKind) uint64 {
	switch k {
	case ast.Int8, ast.UInt8:
		return 1
	case ast.Int16, ast.UInt16:
		return 2
	case ast.Int32, ast.UInt32:
		return 4
	case ast.Int64, ast.UInt64, ast.ISize, ast.USize:
		return 8
	default:
		return 0
	}
}

func failf(from, to hir.Type) error {
	return fmt.Errorf("implicit conversion failed: cannot convert %s to %s", from, to)
}

func castFailf(from, to hir.Type) error {
	return fmt.Errorf("bad cast: cannot cast %s to %s", from, to)
}
