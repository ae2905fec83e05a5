package codegen

import "github.com/pogyomo/mini/pkg/hir"

// genFunction builds the local-variable table, emits the prologue,
// the body, and the epilogue.
func (c *Context) genFunction(fn *hir.FunctionDecl) {
	c.curFunc = fn.Name
	c.labelCounter = 0
	c.loopStack = nil
	c.calleeSize = 0
	c.returnType = fn.Ret
	c.returnByPtr = c.isFat(fn.Ret) && c.sizeOf(fn.Ret) > 8

	c.locals = make(map[string]localVar)
	var offset int64

	// Hidden return-pointer slot, if the callee must be handed a
	// caller-allocated destination for an aggregate >8 bytes.
	if c.returnByPtr {
		offset -= 8
		c.locals["$retptr"] = localVar{offset: offset, typ: &hir.PointerType{Of: fn.Ret}}
	}

	// Parameters occupy the first slots, in declaration order, each
	// spilled from its incoming register (or argument-block slot).
	for _, p := range fn.Params {
		size := int64(c.sizeOf(p.Type))
		if size < 8 {
			size = 8
		}
		align := int64(c.alignOf(p.Type))
		offset = alignDown(offset-size, align)
		c.locals[p.Name] = localVar{offset: offset, typ: p.Type}
	}

	// Hoisted locals follow, in declaration order.
	for _, d := range fn.Decls {
		size := int64(c.sizeOf(d.Type))
		align := int64(c.alignOf(d.Type))
		offset = alignDown(offset-size, align)
		c.locals[d.Name] = localVar{offset: offset, typ: d.Type}
	}

	frame := -offset
	frame = (frame + 15) / 16 * 16
	c.frameSize = frame

	c.line(".type %s, @function", fn.Name)
	c.line(".global %s", fn.Name)
	c.label(fn.Name)
	c.line("  pushq %%rbp")
	c.line("  movq %%rsp, %%rbp")
	if frame > 0 {
		c.line("  subq $%d, %%rsp", frame)
	}

	c.spillParams(fn)

	for _, s := range fn.Body {
		c.genStmt(s)
	}

	c.label(fn.Name + ".END")
	c.line("  movq %%rbp, %%rsp")
	c.line("  popq %%rbp")
	c.line("  retq")
}

// spillParams stores each register-passed parameter into its stack
// slot at function entry, and copies stack-passed parameters (the 7th
// argument onward) down from the incoming argument block.
func (c *Context) spillParams(fn *hir.FunctionDecl) {
	regIdx := 0
	if c.returnByPtr {
		c.line("  movq %%rdi, %d(%%rbp)", c.locals["$retptr"].offset)
		regIdx = 1
	}
	stackArgOffset := int64(16) // return address + saved rbp
	for _, p := range fn.Params {
		lv := c.locals[p.Name]
		fat := c.isFat(p.Type)
		size := c.sizeOf(p.Type)
		if fat && size > 8 {
			// Large aggregates arrive by caller-managed reference; the
			// register/stack slot carries a pointer, not the value.
			if regIdx < len(argRegs8) {
				c.line("  movq %s, %d(%%rbp)", argRegs8[regIdx], lv.offset)
				regIdx++
			} else {
				c.line("  movq %d(%%rbp), %%rax", stackArgOffset)
				c.line("  movq %%rax, %d(%%rbp)", lv.offset)
				stackArgOffset += 8
			}
			continue
		}
		if regIdx < len(argRegs8) {
			c.line("  movq %s, %d(%%rbp)", argRegs8[regIdx], lv.offset)
			regIdx++
		} else {
			c.line("  movq %d(%%rbp), %%rax", stackArgOffset)
			c.line("  movq %%rax, %d(%%rbp)", lv.offset)
			stackArgOffset += 8
		}
	}
}

func alignDown(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	if n >= 0 {
		return n / align * align
	}
	return -((-n + align - 1) / align * align)
}
