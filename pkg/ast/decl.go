package ast

import (
	"fmt"
	"strings"
)

// Decl is implemented by every top-level declaration node.
type Decl interface {
	declNode()
	Span() Span
	String() string
}

// Param is one function parameter.
type Param struct {
	Name string
	Type Type
}

// FunctionDecl is `function name(params) [-> type] { body }`. Body is nil
// for an extern (imported) function declaration.
type FunctionDecl struct {
	Name   string
	Params []Param
	Ret    Type // nil means Void
	Body   *BlockStmt
	Sp     Span
}

func (*FunctionDecl) declNode()    {}
func (d *FunctionDecl) Span() Span { return d.Sp }
func (d *FunctionDecl) String() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	ret := "void"
	if d.Ret != nil {
		ret = d.Ret.String()
	}
	return fmt.Sprintf("function %s(%s) -> %s", d.Name, strings.Join(parts, ", "), ret)
}

// StructField is one `name: type` entry inside a struct declaration.
type StructField struct {
	Name string
	Type Type
}

// StructDecl is `struct name { field: type, ... }`.
type StructDecl struct {
	Name   string
	Fields []StructField
	Sp     Span
}

func (*StructDecl) declNode()    {}
func (d *StructDecl) Span() Span { return d.Sp }
func (d *StructDecl) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return fmt.Sprintf("struct %s { %s }", d.Name, strings.Join(parts, ", "))
}

// EnumField is one `name [= expr]` entry inside an enum declaration.
type EnumField struct {
	Name string
	Init Expr // may be nil
}

// EnumDecl is `enum name { name [= expr], ... }`.
type EnumDecl struct {
	Name   string
	Fields []EnumField
	Sp     Span
}

func (*EnumDecl) declNode()    {}
func (d *EnumDecl) Span() Span { return d.Sp }
func (d *EnumDecl) String() string {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		if f.Init != nil {
			parts[i] = fmt.Sprintf("%s = %s", f.Name, f.Init)
		} else {
			parts[i] = f.Name
		}
	}
	return fmt.Sprintf("enum %s { %s }", d.Name, strings.Join(parts, ", "))
}

// ImportDecl is `import { a, b } from path.a.b;`.
type ImportDecl struct {
	Items []string
	Path  []string
	Sp    Span
}

func (*ImportDecl) declNode()    {}
func (d *ImportDecl) Span() Span { return d.Sp }
func (d *ImportDecl) String() string {
	return fmt.Sprintf("import { %s } from %s;", strings.Join(d.Items, ", "), strings.Join(d.Path, "."))
}
