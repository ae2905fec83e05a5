package codegen

import (
	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/convert"
	"github.com/pogyomo/mini/pkg/hir"
)

// genExpr emits e in rvalue mode: the result is left on top of the
// stack (an 8-byte slot for non-fat values, the address of a
// materialized aggregate for fat ones). It returns e's inferred type.
func (c *Context) genExpr(e hir.Expr) hir.Type {
	switch ex := e.(type) {
	case *hir.IntegerExpr:
		c.line("  movq $%d, %%rax", ex.Value)
		c.push8()
		return &hir.BuiltinType{Kind: ast.Int32}

	case *hir.BoolExpr:
		v := 0
		if ex.Value {
			v = 1
		}
		c.line("  movq $%d, %%rax", v)
		c.push8()
		return &hir.BuiltinType{Kind: ast.Bool}

	case *hir.CharExpr:
		c.line("  movq $%d, %%rax", ex.Value)
		c.push8()
		return &hir.BuiltinType{Kind: ast.Char}

	case *hir.NullPtrExpr:
		c.line("  pushq $0")
		c.calleeSize += 8
		return &hir.PointerType{Of: &hir.BuiltinType{Kind: ast.Void}}

	case *hir.StringExpr:
		c.line("  leaq %s(%%rip), %%rax", ex.Symbol)
		c.push8()
		return &hir.PointerType{Of: &hir.BuiltinType{Kind: ast.Char}}

	case *hir.VariableExpr:
		t := c.genAddress(ex)
		return c.loadFromAddressOnTop(t)

	case *hir.UnaryExpr:
		return c.genUnary(ex)

	case *hir.InfixExpr:
		return c.genInfix(ex)

	case *hir.IndexExpr:
		t := c.genAddress(ex)
		return c.loadFromAddressOnTop(t)

	case *hir.AccessExpr:
		t := c.genAddress(ex)
		return c.loadFromAddressOnTop(t)

	case *hir.CastExpr:
		from := c.genExpr(ex.Operand)
		c.convertTopCast(from, ex.To)
		return ex.To

	case *hir.ESizeofExpr:
		// The operand is never evaluated: only its static type feeds
		// the layout engine.
		t := c.inferType(ex.Operand)
		c.line("  movq $%d, %%rax", c.sizeOf(t))
		c.push8()
		return &hir.BuiltinType{Kind: ast.USize}

	case *hir.TSizeofExpr:
		c.line("  movq $%d, %%rax", c.sizeOf(ex.Of))
		c.push8()
		return &hir.BuiltinType{Kind: ast.USize}

	case *hir.EnumSelectExpr:
		ed, ok := c.enums[ex.EnumName]
		if !ok {
			c.panicf("unknown enum %q", ex.EnumName)
		}
		for _, v := range ed.Variants {
			if v.Name == ex.VariantName {
				c.line("  movq $%d, %%rax", v.Value)
				c.push8()
				return &hir.NameType{Name: ex.EnumName}
			}
		}
		c.panicf("enum %q has no variant %q", ex.EnumName, ex.VariantName)
		return nil

	case *hir.CallExpr:
		return c.genCall(ex)

	case *hir.StructExpr:
		return c.genStructLiteral(ex)

	case *hir.ArrayExpr:
		return c.genArrayLiteral(ex)

	default:
		c.panicf("unhandled expression kind %T", e)
		return nil
	}
}

// genAddress emits e in lvalue mode: the address of the designated
// storage is left on top of the stack. Valid only for Variable, Deref,
// Index, and Access.
func (c *Context) genAddress(e hir.Expr) hir.Type {
	switch ex := e.(type) {
	case *hir.VariableExpr:
		lv, ok := c.locals[ex.Name]
		if !ok {
			c.panicf("unknown local %q", ex.Name)
		}
		c.line("  leaq %d(%%rbp), %%rax", lv.offset)
		c.push8()
		return lv.typ

	case *hir.UnaryExpr:
		if ex.Op != ast.Deref {
			c.panicf("non-lvalue unary operator %s in address context", ex.Op)
		}
		ptrType := c.genExpr(ex.Operand)
		pt, ok := ptrType.(*hir.PointerType)
		if !ok {
			c.panicf("cannot dereference non-pointer type %s", ptrType)
		}
		return pt.Of // address of pointee already on top (pointer value itself)

	case *hir.IndexExpr:
		return c.genIndexAddress(ex)

	case *hir.AccessExpr:
		return c.genAccessAddress(ex)

	default:
		c.panicf("%T is not a valid lvalue", e)
		return nil
	}
}

// loadFromAddressOnTop consumes the address left on top of the stack
// by genAddress and, if t is non-fat, dereferences it in place; fat
// values keep their address.
func (c *Context) loadFromAddressOnTop(t hir.Type) hir.Type {
	if c.isFat(t) {
		return t
	}
	size := c.sizeOf(t)
	c.pop8("%rax")
	c.loadSized("(%rax)", "%rax", size)
	c.push8()
	return t
}

func (c *Context) genUnary(ex *hir.UnaryExpr) hir.Type {
	switch ex.Op {
	case ast.Ref:
		t := c.genAddress(ex.Operand)
		return &hir.PointerType{Of: t}
	case ast.Deref:
		ptrType := c.genExpr(ex.Operand)
		pt, ok := ptrType.(*hir.PointerType)
		if !ok {
			c.panicf("cannot dereference non-pointer type %s", ptrType)
		}
		if c.isFat(pt.Of) {
			return pt.Of
		}
		c.pop8("%rax")
		c.loadSized("(%rax)", "%rax", c.sizeOf(pt.Of))
		c.push8()
		return pt.Of
	case ast.Minus:
		t := c.genExpr(ex.Operand)
		bt, ok := t.(*hir.BuiltinType)
		if !ok || !bt.IsInteger() {
			c.panicf("unary - requires an integer operand, got %s", t)
		}
		c.pop8("%rax")
		c.line("  negq %%rax")
		c.push8()
		return &hir.BuiltinType{Kind: signedKindOfWidth(bt.Kind)}
	case ast.Inv:
		t := c.genExpr(ex.Operand)
		c.pop8("%rax")
		c.line("  notq %%rax")
		c.push8()
		return t
	case ast.Neg:
		t := c.genExpr(ex.Operand)
		c.pop8("%rax")
		c.line("  xorq $1, %%rax")
		c.push8()
		return t
	default:
		c.panicf("unhandled unary operator %s", ex.Op)
		return nil
	}
}

// signedKindOfWidth flips an integer kind's signedness to signed,
// keeping its width. Unary minus on an unsigned operand still yields
// a signed result.
func signedKindOfWidth(k ast.BuiltinKind) ast.BuiltinKind {
	switch k {
	case ast.UInt8:
		return ast.Int8
	case ast.UInt16:
		return ast.Int16
	case ast.UInt32:
		return ast.Int32
	case ast.UInt64:
		return ast.Int64
	case ast.USize:
		return ast.ISize
	default:
		return k
	}
}

func (c *Context) genInfix(ex *hir.InfixExpr) hir.Type {
	if ex.Op == ast.Assign {
		return c.genAssign(ex)
	}
	if ex.Op.IsLogical() {
		return c.genLogical(ex)
	}

	lt := c.genExpr(ex.Lhs)
	save := c.calleeSize
	rt := c.genExpr(ex.Rhs)

	// Pointer arithmetic: Add/Sub with one pointer side and one usize side.
	if lp, ok := lt.(*hir.PointerType); ok && ex.Op != ast.EQ && ex.Op != ast.NE {
		c.convertTop(rt, &hir.BuiltinType{Kind: ast.USize})
		c.pop8("%rbx")
		elemSize := c.sizeOf(lp.Of)
		c.line("  imulq $%d, %%rbx", elemSize)
		c.pop8("%rax")
		if ex.Op == ast.Sub {
			c.line("  subq %%rbx, %%rax")
		} else {
			c.line("  addq %%rbx, %%rax")
		}
		c.push8()
		c.calleeSize = save
		return lt
	}

	if ex.Op.IsComparison() {
		merged, err := convert.Merge(lt, rt)
		if err != nil {
			c.reporter.Errorf(ex.Sp, "%v", err)
			merged = lt
		}
		c.convertTopAt(save, rt, merged)
		c.convertTopBelow(lt, merged)
		c.pop8("%rbx")
		c.pop8("%rax")
		if ex.Op == ast.GT || ex.Op == ast.GE {
			// a > b is b < a (and a >= b is b <= a): swap the operands
			// so setl/setle serve both directions.
			c.line("  cmpq %%rax, %%rbx")
		} else {
			c.line("  cmpq %%rbx, %%rax")
		}
		set := setccFor(ex.Op)
		c.line("  %s %%al", set)
		c.line("  movzbq %%al, %%rax")
		c.push8()
		c.calleeSize = save
		return &hir.BuiltinType{Kind: ast.Bool}
	}

	merged, err := convert.Merge(lt, rt)
	if err != nil {
		c.reporter.Errorf(ex.Sp, "%v", err)
		merged = lt
	}
	c.convertTopAt(save, rt, merged)
	c.convertTopBelow(lt, merged)
	c.pop8("%rbx")
	c.line("  movq (%%rsp), %%rax")
	switch ex.Op {
	case ast.Add:
		c.line("  addq %%rbx, %%rax")
	case ast.Sub:
		c.line("  subq %%rbx, %%rax")
	case ast.Mul:
		c.line("  imulq %%rbx, %%rax")
	case ast.Div:
		c.line("  cqto")
		c.line("  idivq %%rbx")
	case ast.Mod:
		c.line("  cqto")
		c.line("  idivq %%rbx")
		c.line("  movq %%rdx, %%rax")
	case ast.BitAnd:
		c.line("  andq %%rbx, %%rax")
	case ast.BitOr:
		c.line("  orq %%rbx, %%rax")
	case ast.BitXor:
		c.line("  xorq %%rbx, %%rax")
	case ast.LShift:
		c.line("  movq %%rbx, %%rcx")
		c.line("  shlq %%cl, %%rax")
	case ast.RShift:
		c.line("  movq %%rbx, %%rcx")
		if bt, ok := merged.(*hir.BuiltinType); ok && bt.IsSigned() {
			c.line("  sarq %%cl, %%rax")
		} else {
			c.line("  shrq %%cl, %%rax")
		}
	default:
		c.panicf("unhandled infix operator %s", ex.Op)
	}
	c.line("  movq %%rax, (%%rsp)")
	return merged
}

func setccFor(op ast.InfixOp) string {
	switch op {
	case ast.EQ:
		return "sete"
	case ast.NE:
		return "setne"
	case ast.LT, ast.GT:
		return "setl"
	case ast.LE, ast.GE:
		return "setle"
	default:
		return "sete"
	}
}

func (c *Context) genLogical(ex *hir.InfixExpr) hir.Type {
	c.genExpr(ex.Lhs)
	c.genExpr(ex.Rhs)
	c.pop8("%rbx")
	c.pop8("%rax")
	if ex.Op == ast.And {
		c.line("  andb %%bl, %%al")
	} else {
		c.line("  orb %%bl, %%al")
	}
	c.line("  movzbq %%al, %%rax")
	c.push8()
	return &hir.BuiltinType{Kind: ast.Bool}
}

// genAssign emits `lhs = rhs`, returning the assignment's result type.
func (c *Context) genAssign(ex *hir.InfixExpr) hir.Type {
	lvType := c.genAddress(ex.Lhs)
	save := c.calleeSize
	rt := c.genExpr(ex.Rhs)
	c.convertTopAt(save, rt, lvType)

	// %rax: rhs value, or rhs address when fat. %rbx: lhs address,
	// read from its saved slot without popping it.
	c.pop8("%rax")
	c.line("  movq %d(%%rsp), %%rbx", c.calleeSize-save)
	if c.isFat(lvType) {
		c.emitByteCopy("%rbx", "%rax", c.sizeOf(lvType))
	} else {
		c.storeSized("(%rbx)", "%rax", c.sizeOf(lvType))
	}
	// Release any rhs temporaries above the saved slot; the lhs address
	// stays on top as the result.
	c.freeTo(save)
	return lvType
}

// emitByteCopy copies n bytes from [src] to [dst] using a greedy
// descent through 8/4/2/1-byte moves staged in %r11, so src and dst
// may be any other registers.
func (c *Context) emitByteCopy(dst, src string, n uint64) {
	scratch := map[uint64]string{8: "%r11", 4: "%r11d", 2: "%r11w", 1: "%r11b"}
	off := uint64(0)
	for _, width := range []uint64{8, 4, 2, 1} {
		for n-off >= width {
			_, mov := regForWidth(width)
			reg := scratch[width]
			c.line("  mov%s %d(%s), %s", mov, off, src, reg)
			c.line("  mov%s %s, %d(%s)", mov, reg, off, dst)
			off += width
		}
	}
}

func regForWidth(w uint64) (reg, suffix string) {
	switch w {
	case 8:
		return "%rax", "q"
	case 4:
		return "%eax", "l"
	case 2:
		return "%ax", "w"
	default:
		return "%al", "b"
	}
}

func (c *Context) genIndexAddress(ex *hir.IndexExpr) hir.Type {
	targetType := c.genExpr(ex.Target)
	save := c.calleeSize

	var elem hir.Type
	switch tt := targetType.(type) {
	case *hir.ArrayType:
		elem = tt.Of
	case *hir.PointerType:
		elem = tt.Of
	default:
		c.panicf("cannot index non-array, non-pointer type %s", targetType)
	}

	it := c.genExpr(ex.Index)
	c.convertTopAt(save, it, &hir.BuiltinType{Kind: ast.USize})
	c.pop8("%rbx")
	c.line("  imulq $%d, %%rbx", c.sizeOf(elem))
	c.calleeSize = save
	c.pop8("%rax")
	c.line("  addq %%rbx, %%rax")
	c.push8()
	return elem
}

func (c *Context) genAccessAddress(ex *hir.AccessExpr) hir.Type {
	targetType := c.genExpr(ex.Target)
	structName, isPtr := "", false
	switch tt := targetType.(type) {
	case *hir.NameType:
		structName = tt.Name
	case *hir.PointerType:
		nt, ok := tt.Of.(*hir.NameType)
		if !ok {
			c.panicf("invalid struct access through pointer to %s", tt.Of)
		}
		structName = nt.Name
		isPtr = true
	default:
		c.panicf("invalid struct access on type %s", targetType)
	}

	if !isPtr {
		// targetType is a fat struct value: address already on top.
	} else {
		// target was a pointer rvalue: its value IS the struct address.
	}

	fo, err := c.engine.FieldOffsetOf(structName, ex.Field)
	if err != nil {
		c.panicf("%v", err)
	}
	c.pop8("%rax")
	c.line("  addq $%d, %%rax", fo.Offset)
	c.push8()
	return fo.Type
}

// push8/pop8 track callee_size alongside the literal stack push/pop.
func (c *Context) push8() {
	c.line("  pushq %%rax")
	c.calleeSize += 8
}

func (c *Context) pop8(reg string) {
	c.line("  popq %s", reg)
	c.calleeSize -= 8
}

// freeTo pops the stack back down to the given callee_size checkpoint,
// reclaiming abandoned temporaries in one instruction.
func (c *Context) freeTo(checkpoint int64) {
	n := c.calleeSize - checkpoint
	if n > 0 {
		c.line("  addq $%d, %%rsp", n)
	}
	c.calleeSize = checkpoint
}

func (c *Context) loadSized(src, dstReg64 string, size uint64) {
	_ = dstReg64
	width := clampWidth(size)
	if width == 8 {
		c.line("  movq %s, %%rax", src)
		return
	}
	c.extendToRax(src, width, false)
}

func (c *Context) storeSized(dst, srcReg64 string, size uint64) {
	reg, suffix := regForWidth(clampWidth(size))
	_ = srcReg64
	c.line("  mov%s %s, %s", suffix, reg, dst)
}

func clampWidth(size uint64) uint64 {
	switch {
	case size >= 8:
		return 8
	case size >= 4:
		return 4
	case size >= 2:
		return 2
	default:
		return 1
	}
}

// extendToRax sign- or zero-extends the width-byte value read from src
// into the full 64-bit %rax, picking the movsx/movzx variant (or,
// for a 4-byte zero-extend, the implicit top-half clear a 32-bit
// write already gives on x86-64) that matches width exactly, rather
// than always treating src as a single byte.
func (c *Context) extendToRax(src string, width uint64, signed bool) {
	switch width {
	case 1:
		if signed {
			c.line("  movsbq %s, %%rax", src)
		} else {
			c.line("  movzbq %s, %%rax", src)
		}
	case 2:
		if signed {
			c.line("  movswq %s, %%rax", src)
		} else {
			c.line("  movzwq %s, %%rax", src)
		}
	case 4:
		if signed {
			c.line("  movslq %s, %%rax", src)
		} else {
			c.line("  movl %s, %%eax", src)
		}
	default:
		c.line("  movq %s, %%rax", src)
	}
}

// convertTop classifies and emits an in-place conversion for the value
// currently on top of the stack.
func (c *Context) convertTop(from, to hir.Type) {
	conv, err := convert.Classify(from, to)
	if err != nil {
		c.panicf("%v", err)
	}
	c.emitConversion(conv)
}

// convertTopCast is convertTop's counterpart for an explicit Cast
// expression: it uses the cast lattice (narrowing, enum<->integer,
// pointer reinterpretation) instead of the implicit one.
func (c *Context) convertTopCast(from, to hir.Type) {
	conv, err := convert.ClassifyCast(from, to, c.structs)
	if err != nil {
		c.panicf("%v", err)
	}
	c.emitConversion(conv)
}

// convertTopAt converts the value at the given callee_size checkpoint
// (the top of the stack when that value was pushed, before any sibling
// evaluation happened afterward) in place.
func (c *Context) convertTopAt(checkpoint int64, from, to hir.Type) {
	_ = checkpoint
	c.convertTop(from, to)
}

// convertTopBelow converts the slot just below the current top (used
// by comparison/arithmetic to widen the lhs operand after the rhs has
// already been evaluated on top of it).
func (c *Context) convertTopBelow(from, to hir.Type) {
	conv, err := convert.Classify(from, to)
	if err != nil {
		c.panicf("%v", err)
	}
	switch conv.Kind {
	case convert.NoOp:
		return
	case convert.ZeroExtend:
		c.extendToRax("8(%rsp)", conv.FromWidth, false)
		c.line("  movq %%rax, 8(%%rsp)")
	case convert.SignExtend:
		c.extendToRax("8(%rsp)", conv.FromWidth, true)
		c.line("  movq %%rax, 8(%%rsp)")
	}
}

func (c *Context) emitConversion(conv *convert.Conversion) {
	switch conv.Kind {
	case convert.NoOp, convert.ArrayDecay:
		return
	case convert.ZeroExtend:
		c.extendToRax("(%rsp)", conv.FromWidth, false)
		c.line("  movq %%rax, (%%rsp)")
	case convert.SignExtend:
		c.extendToRax("(%rsp)", conv.FromWidth, true)
		c.line("  movq %%rax, (%%rsp)")
	case convert.Truncate:
		c.extendToRax("(%rsp)", conv.ToWidth, conv.ToSigned)
		c.line("  movq %%rax, (%%rsp)")
	}
}
