package codegen

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/hir"
)

// genStmt emits one HIR statement: loops, control flow, conditionals,
// returns, and bare expression statements.
func (c *Context) genStmt(s hir.Stmt) {
	switch st := s.(type) {
	case *hir.ExprStmt:
		// Save callee_size, evaluate, restore: the statement's result
		// (if any) is never copied out.
		save := c.calleeSize
		c.genExpr(st.Expr)
		c.freeTo(save)

	case *hir.ReturnStmt:
		c.genReturn(st)

	case *hir.BreakStmt:
		cur, ok := c.currentLoop()
		if !ok {
			c.panicf("break used outside any loop")
		}
		c.line("  jmp %s", cur.end)

	case *hir.ContinueStmt:
		cur, ok := c.currentLoop()
		if !ok {
			c.panicf("continue used outside any loop")
		}
		c.line("  jmp %s", cur.start)

	case *hir.WhileStmt:
		c.genWhile(st)

	case *hir.IfStmt:
		c.genIf(st)

	case *hir.BlockStmt:
		for _, item := range st.Items {
			c.genStmt(item)
		}

	case *hir.AsmStmt:
		c.line("  %s", st.Instruction)

	default:
		c.panicf("unhandled statement kind %T", s)
	}
}

// genWhile lowers `while (cond) body` to:
//
//	L.START.i:
//	  <cond> -> bool -> test -> je L.END.i
//	  <body>
//	  jmp L.START.i
//	L.END.i:
func (c *Context) genWhile(st *hir.WhileStmt) {
	id := c.labelCounter
	c.labelCounter++
	start := fmt.Sprintf("%s.START.%d", c.curFunc, id)
	end := fmt.Sprintf("%s.END.%d", c.curFunc, id)
	c.pushLoop(start, end)

	c.label(start)
	save := c.calleeSize
	ct := c.genExpr(st.Cond)
	c.convertTop(ct, &hir.BuiltinType{Kind: ast.Bool})
	c.pop8("%rax")
	c.line("  testb $1, %%al")
	c.line("  je %s", end)
	c.calleeSize = save

	c.genStmt(st.Body)
	c.line("  jmp %s", start)
	c.label(end)

	c.popLoop()
}

// genIf lowers `if (cond) then [else elseBranch]` to:
//
//	<cond> -> bool -> test -> je L.ELSE.i
//	<then>
//	jmp L.END.i
//	L.ELSE.i:
//	  <else>
//	L.END.i:
func (c *Context) genIf(st *hir.IfStmt) {
	id := c.labelCounter
	c.labelCounter++
	elseLabel := fmt.Sprintf("%s.ELSE.%d", c.curFunc, id)
	endLabel := fmt.Sprintf("%s.END.%d", c.curFunc, id)

	save := c.calleeSize
	ct := c.genExpr(st.Cond)
	c.convertTop(ct, &hir.BuiltinType{Kind: ast.Bool})
	c.pop8("%rax")
	c.line("  testb $1, %%al")
	c.line("  je %s", elseLabel)
	c.calleeSize = save

	c.genStmt(st.Then)
	c.line("  jmp %s", endLabel)
	c.label(elseLabel)
	if st.Else != nil {
		c.genStmt(st.Else)
	}
	c.label(endLabel)
}

// genReturn evaluates the return value (if any), converts it to the
// function's declared return type, and hands it back per the ABI:
// large aggregates are byte-copied through the hidden pointer slot,
// everything else is popped into %rax.
func (c *Context) genReturn(st *hir.ReturnStmt) {
	if st.Expr == nil {
		if bt, ok := c.returnType.(*hir.BuiltinType); !ok || bt.Kind != ast.Void {
			c.panicf("bare return in function with non-void return type")
		}
		c.line("  jmp %s.END", c.curFunc)
		return
	}

	save := c.calleeSize
	rt := c.genExpr(st.Expr)
	c.convertTopAt(save, rt, c.returnType)

	if c.returnByPtr {
		c.pop8("%rax") // address of the returned value
		c.line("  movq %d(%%rbp), %%rdi", c.locals["$retptr"].offset)
		c.emitByteCopy("%rdi", "%rax", c.sizeOf(c.returnType))
		c.line("  movq %d(%%rbp), %%rax", c.locals["$retptr"].offset)
	} else {
		c.pop8("%rax")
	}
	c.line("  jmp %s.END", c.curFunc)
}
