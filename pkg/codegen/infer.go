package codegen

import (
	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/convert"
	"github.com/pogyomo/mini/pkg/hir"
)

// inferType computes e's static type without emitting any code. It is
// used wherever a type is needed but the expression itself must not
// execute — most notably `sizeof(e)`, whose operand is lowered but
// never evaluated for its value, and array-literal element-type
// inference.
func (c *Context) inferType(e hir.Expr) hir.Type {
	switch ex := e.(type) {
	case *hir.IntegerExpr:
		return &hir.BuiltinType{Kind: ast.Int32}
	case *hir.BoolExpr:
		return &hir.BuiltinType{Kind: ast.Bool}
	case *hir.CharExpr:
		return &hir.BuiltinType{Kind: ast.Char}
	case *hir.NullPtrExpr:
		return &hir.PointerType{Of: &hir.BuiltinType{Kind: ast.Void}}
	case *hir.StringExpr:
		return &hir.PointerType{Of: &hir.BuiltinType{Kind: ast.Char}}
	case *hir.VariableExpr:
		if lv, ok := c.locals[ex.Name]; ok {
			return lv.typ
		}
		if fn, ok := c.funcs[ex.Name]; ok {
			return fn.Ret
		}
		c.panicf("unknown variable %q in type inference", ex.Name)
		return nil
	case *hir.UnaryExpr:
		switch ex.Op {
		case ast.Ref:
			return &hir.PointerType{Of: c.inferType(ex.Operand)}
		case ast.Deref:
			pt, ok := c.inferType(ex.Operand).(*hir.PointerType)
			if !ok {
				c.panicf("cannot dereference non-pointer in type inference")
			}
			return pt.Of
		case ast.Minus:
			bt, _ := c.inferType(ex.Operand).(*hir.BuiltinType)
			if bt == nil {
				return c.inferType(ex.Operand)
			}
			return &hir.BuiltinType{Kind: signedKindOfWidth(bt.Kind)}
		default:
			return c.inferType(ex.Operand)
		}
	case *hir.InfixExpr:
		if ex.Op.IsComparison() || ex.Op.IsLogical() {
			return &hir.BuiltinType{Kind: ast.Bool}
		}
		if ex.Op == ast.Assign {
			return c.inferType(ex.Lhs)
		}
		lt, rt := c.inferType(ex.Lhs), c.inferType(ex.Rhs)
		if lp, ok := lt.(*hir.PointerType); ok {
			return lp
		}
		if merged, err := convert.Merge(lt, rt); err == nil {
			return merged
		}
		return lt
	case *hir.IndexExpr:
		switch tt := c.inferType(ex.Target).(type) {
		case *hir.ArrayType:
			return tt.Of
		case *hir.PointerType:
			return tt.Of
		default:
			c.panicf("cannot index non-array, non-pointer type in type inference")
			return nil
		}
	case *hir.AccessExpr:
		structName := ""
		switch tt := c.inferType(ex.Target).(type) {
		case *hir.NameType:
			structName = tt.Name
		case *hir.PointerType:
			if nt, ok := tt.Of.(*hir.NameType); ok {
				structName = nt.Name
			}
		}
		fo, err := c.engine.FieldOffsetOf(structName, ex.Field)
		if err != nil {
			c.panicf("%v", err)
		}
		return fo.Type
	case *hir.CallExpr:
		name, _ := calleeName(ex.Callee)
		if fn, ok := c.funcs[name]; ok {
			return fn.Ret
		}
		c.panicf("call to unknown function %q in type inference", name)
		return nil
	case *hir.CastExpr:
		return ex.To
	case *hir.ESizeofExpr, *hir.TSizeofExpr:
		return &hir.BuiltinType{Kind: ast.USize}
	case *hir.EnumSelectExpr:
		return &hir.NameType{Name: ex.EnumName}
	case *hir.StructExpr:
		return &hir.NameType{Name: ex.Name}
	case *hir.ArrayExpr:
		if len(ex.Elements) == 0 {
			c.panicf("empty array literal has no inferrable element type")
		}
		return &hir.ArrayType{Of: c.inferType(ex.Elements[0]), Size: uint64(len(ex.Elements))}
	default:
		c.panicf("unhandled expression kind %T in type inference", e)
		return nil
	}
}
