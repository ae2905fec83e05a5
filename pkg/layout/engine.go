// Package layout computes sizes, alignments, and field offsets for HIR
// types. It is the one place struct shape is pinned down before code
// generation needs it.
package layout

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/hir"
)

// FieldOffset is one field's resolved position within a struct.
type FieldOffset struct {
	Name   string
	Type   hir.Type
	Offset uint64
}

// StructLayout is a fully resolved struct shape.
type StructLayout struct {
	Size   uint64
	Align  uint64
	Fields []FieldOffset
}

type entryState int

const (
	unlaidOut entryState = iota
	laying
	laidOut
)

type structEntry struct {
	decl   *hir.StructDecl
	state  entryState
	layout *StructLayout
}

// Engine resolves sizes/alignments/offsets for a fixed set of struct
// declarations, memoizing each struct's layout the first time it is
// computed. A struct in the process of laying itself out (a cycle with
// no pointer indirection) is reported as an error rather than recursed
// into forever.
type Engine struct {
	structs map[string]*structEntry
}

// NewEngine builds an Engine over the given struct declarations,
// indexed by name.
func NewEngine(structs []*hir.StructDecl) *Engine {
	e := &Engine{structs: make(map[string]*structEntry, len(structs))}
	for _, s := range structs {
		e.structs[s.Name] = &structEntry{decl: s}
	}
	return e
}

// SizeOf returns the size, in bytes, of t.
func (e *Engine) SizeOf(t hir.Type) (uint64, error) {
	switch tt := t.(type) {
	case *hir.BuiltinType:
		return builtinSize(tt.Kind)
	case *hir.PointerType:
		return 8, nil
	case *hir.ArrayType:
		elem, err := e.SizeOf(tt.Of)
		if err != nil {
			return 0, err
		}
		return tt.Size * elem, nil
	case *hir.NameType:
		if !e.isStruct(tt.Name) {
			return 8, nil // enum: encoded as u64
		}
		layout, err := e.LayoutStruct(tt.Name)
		if err != nil {
			return 0, err
		}
		return layout.Size, nil
	default:
		return 0, fmt.Errorf("layout: unhandled type %T", t)
	}
}

// AlignOf returns the alignment, in bytes, required by t.
func (e *Engine) AlignOf(t hir.Type) (uint64, error) {
	switch tt := t.(type) {
	case *hir.BuiltinType:
		return builtinSize(tt.Kind)
	case *hir.PointerType:
		return 8, nil
	case *hir.ArrayType:
		return e.AlignOf(tt.Of)
	case *hir.NameType:
		if !e.isStruct(tt.Name) {
			return 8, nil // enum
		}
		layout, err := e.LayoutStruct(tt.Name)
		if err != nil {
			return 0, err
		}
		return layout.Align, nil
	default:
		return 0, fmt.Errorf("layout: unhandled type %T", t)
	}
}

func (e *Engine) isStruct(name string) bool {
	_, ok := e.structs[name]
	return ok
}

// LayoutStruct computes (or returns the memoized) layout of the named
// struct: each field's offset, aligned up to its own alignment; the
// struct's total size rounded up to its own alignment; and the
// struct's alignment, the max of its field alignments (minimum 1).
func (e *Engine) LayoutStruct(name string) (*StructLayout, error) {
	entry, ok := e.structs[name]
	if !ok {
		return nil, fmt.Errorf("layout: unknown struct %q", name)
	}
	switch entry.state {
	case laidOut:
		return entry.layout, nil
	case laying:
		return nil, fmt.Errorf("layout: cycle detected while computing layout of struct %q (missing pointer indirection)", name)
	}

	entry.state = laying
	var offset uint64
	var maxAlign uint64 = 1
	fields := make([]FieldOffset, 0, len(entry.decl.Fields))
	for _, f := range entry.decl.Fields {
		align, err := e.AlignOf(f.Type)
		if err != nil {
			entry.state = unlaidOut
			return nil, err
		}
		size, err := e.SizeOf(f.Type)
		if err != nil {
			entry.state = unlaidOut
			return nil, err
		}
		offset = alignUp(offset, align)
		fields = append(fields, FieldOffset{Name: f.Name, Type: f.Type, Offset: offset})
		offset += size
		if align > maxAlign {
			maxAlign = align
		}
	}
	total := alignUp(offset, maxAlign)

	layout := &StructLayout{Size: total, Align: maxAlign, Fields: fields}
	entry.layout = layout
	entry.state = laidOut
	return layout, nil
}

// FieldOffsetOf looks up a single field's offset and type within a
// struct's layout, as used by the code generator's Access emitter.
func (e *Engine) FieldOffsetOf(structName, field string) (FieldOffset, error) {
	layout, err := e.LayoutStruct(structName)
	if err != nil {
		return FieldOffset{}, err
	}
	for _, f := range layout.Fields {
		if f.Name == field {
			return f, nil
		}
	}
	return FieldOffset{}, fmt.Errorf("layout: struct %q has no field %q", structName, field)
}

func alignUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func builtinSize(k ast.BuiltinKind) (uint64, error) {
	switch k {
	case ast.Void:
		return 0, fmt.Errorf("layout: void has no size")
	case ast.Bool, ast.Char, ast.Int8, ast.UInt8:
		return 1, nil
	case ast.Int16, ast.UInt16:
		return 2, nil
	case ast.Int32, ast.UInt32:
		return 4, nil
	case ast.Int64, ast.UInt64, ast.ISize, ast.USize:
		return 8, nil
	default:
		return 0, fmt.Errorf("layout: unknown builtin kind %v", k)
	}
}
