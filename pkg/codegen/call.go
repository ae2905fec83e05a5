package codegen

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/hir"
)

// genCall emits a call expression: register-bound arguments are
// evaluated and popped directly into their assigned registers;
// stack-bound arguments (beyond the six integer registers) are
// evaluated last, in reverse, and pushed immediately before the call.
// This skips allocating a separate argument block ahead of time since
// nothing between evaluation and the call depends on its address.
func (c *Context) genCall(ex *hir.CallExpr) hir.Type {
	name, ok := calleeName(ex.Callee)
	if !ok {
		c.panicf("call target is not a callable name")
	}
	fn, ok := c.funcs[name]
	if !ok {
		c.panicf("call to unknown function %q", name)
	}

	retType := fn.Ret
	returnByPtr := c.isFat(retType) && c.sizeOf(retType) > 8
	regIdx := 0

	if returnByPtr {
		size := c.sizeOf(retType)
		frameNeeded := int64(alignUp64(size, 16))
		c.line("  subq $%d, %%rsp", frameNeeded)
		c.calleeSize += frameNeeded
		c.line("  movq %%rsp, %%rdi")
		regIdx = 1
	}

	var stackArgs []hir.Expr
	var stackParamTypes []hir.Type
	for i, arg := range ex.Args {
		var paramType hir.Type
		if i < len(fn.Params) {
			paramType = fn.Params[i].Type
		}
		if regIdx < len(argRegs8) {
			at := c.genExpr(arg)
			if paramType != nil {
				c.convertTop(at, paramType)
			}
			c.pop8(argRegs8[regIdx])
			regIdx++
		} else {
			stackArgs = append(stackArgs, arg)
			stackParamTypes = append(stackParamTypes, paramType)
		}
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		at := c.genExpr(stackArgs[i])
		if stackParamTypes[i] != nil {
			c.convertTop(at, stackParamTypes[i])
		}
	}

	c.line("  movb $0, %%al") // no floating-point args
	if fn.Body == nil {
		c.line("  callq %s@PLT", name)
	} else {
		c.line("  callq %s", name)
	}
	if len(stackArgs) > 0 {
		n := int64(8 * len(stackArgs))
		c.line("  addq $%d, %%rsp", n)
		c.calleeSize -= n
	}

	if returnByPtr {
		c.line("  movq %%rsp, %%rax")
		c.push8()
		return retType
	}
	c.line("  pushq %%rax")
	c.calleeSize += 8
	return retType
}

func calleeName(e hir.Expr) (string, bool) {
	v, ok := e.(*hir.VariableExpr)
	if !ok {
		return "", false
	}
	return v.Name, true
}

func alignUp64(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// genStructLiteral materializes a `Name { field: expr, ... }` literal
// into a freshly allocated stack slot and leaves its address on top.
func (c *Context) genStructLiteral(ex *hir.StructExpr) hir.Type {
	layout, err := c.engine.LayoutStruct(ex.Name)
	if err != nil {
		c.panicf("%v", err)
	}
	frameNeeded := int64(alignUp64(layout.Size, 16))
	if frameNeeded == 0 {
		frameNeeded = 16
	}
	c.line("  subq $%d, %%rsp", frameNeeded)
	c.calleeSize += frameNeeded

	for _, fi := range ex.Inits {
		fo, err := c.engine.FieldOffsetOf(ex.Name, fi.Name)
		if err != nil {
			c.panicf("%v", err)
		}
		save := c.calleeSize
		t := c.genExpr(fi.Init)
		c.convertTop(t, fo.Type)
		if c.isFat(fo.Type) {
			c.pop8("%rax") // address of the fat value
			c.line("  leaq %d(%%rsp), %%rbx", fo.Offset)
			c.emitByteCopy("%rbx", "%rax", c.sizeOf(fo.Type))
		} else {
			c.pop8("%rax")
			c.storeSized(offsetOperand(fo.Offset), "%rax", c.sizeOf(fo.Type))
		}
		c.calleeSize = save
	}

	c.line("  movq %%rsp, %%rax")
	c.push8()
	return &hir.NameType{Name: ex.Name}
}

// offsetOperand formats a non-negative byte offset from the current
// %rsp, as used while filling a freshly allocated struct/array buffer.
func offsetOperand(off uint64) string {
	return fmt.Sprintf("%d(%%rsp)", off)
}

// genArrayLiteral materializes a `{ e1, e2, ... }` literal into a
// freshly allocated stack slot and leaves its address on top. The
// element type is inferred statically from the first element, then
// every element is evaluated directly into its final slot in the
// buffer — allocating the buffer first means no scratch copy-down is
// needed.
func (c *Context) genArrayLiteral(ex *hir.ArrayExpr) hir.Type {
	if len(ex.Elements) == 0 {
		c.panicf("empty array literal has no inferrable element type")
	}

	elem := c.inferType(ex.Elements[0])
	elemSize := c.sizeOf(elem)
	total := elemSize * uint64(len(ex.Elements))
	frameNeeded := int64(alignUp64(total, 16))
	if frameNeeded == 0 {
		frameNeeded = 16
	}

	c.line("  subq $%d, %%rsp", frameNeeded)
	c.calleeSize += frameNeeded

	fat := c.isFat(elem)
	for i, el := range ex.Elements {
		save := c.calleeSize
		t := c.genExpr(el)
		c.convertTop(t, elem)
		c.pop8("%rax")
		if fat {
			c.line("  leaq %d(%%rsp), %%rbx", i*int(elemSize))
			c.emitByteCopy("%rbx", "%rax", elemSize)
		} else {
			c.storeSized(offsetOperand(uint64(i)*elemSize), "%rax", elemSize)
		}
		c.calleeSize = save
	}

	c.line("  movq %%rsp, %%rax")
	c.push8()
	return &hir.ArrayType{Of: elem, Size: uint64(len(ex.Elements))}
}
