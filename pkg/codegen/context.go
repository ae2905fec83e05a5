// Package codegen lowers HIR into GAS x86-64 System V assembly: the
// stack-based code generator at the core of the compiler. Its
// emitter (line/comment emission, label counter, loop stack) follows
// a familiar shape, generalized from accumulator-register emission to
// stack-slot rvalue/lvalue emission.
package codegen

import (
	"fmt"
	"strings"

	"github.com/pogyomo/mini/pkg/ast"
	"github.com/pogyomo/mini/pkg/diag"
	"github.com/pogyomo/mini/pkg/hir"
	"github.com/pogyomo/mini/pkg/layout"
)

// argRegs8 is the System V integer/pointer argument register order.
var argRegs8 = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// loopLabel is one nested loop's jump targets.
type loopLabel struct {
	start string
	end   string
}

// localVar is one local's resolved frame slot.
type localVar struct {
	offset int64 // negative, relative to %rbp
	typ    hir.Type
}

// Context threads emitter state, the label counter, the loop stack,
// and the per-function local-variable table through code generation.
// The callee_size counter is the only implicit mutable state shared
// across nested evaluator calls: it must be saved before and restored
// after any subexpression whose temporaries should be reclaimed.
type Context struct {
	out      strings.Builder
	reporter *diag.Reporter

	structs map[string]*hir.StructDecl
	enums   map[string]*hir.EnumDecl
	funcs   map[string]*hir.FunctionDecl
	engine  *layout.Engine
	strtab  *hir.StringTable

	labelCounter int
	loopStack    []loopLabel

	curFunc      string
	locals       map[string]localVar
	frameSize    int64
	calleeSize   int64
	returnType   hir.Type
	returnByPtr  bool // return type >8 bytes: callee receives dest in %rdi
}

// NewContext builds a Context over one compilation unit's lowered
// program.
func NewContext(prog *hir.Program, reporter *diag.Reporter) *Context {
	structs := make(map[string]*hir.StructDecl, len(prog.Structs))
	for _, s := range prog.Structs {
		structs[s.Name] = s
	}
	enums := make(map[string]*hir.EnumDecl, len(prog.Enums))
	for _, e := range prog.Enums {
		enums[e.Name] = e
	}
	funcs := make(map[string]*hir.FunctionDecl, len(prog.Functions))
	for _, f := range prog.Functions {
		funcs[f.Name] = f
	}
	return &Context{
		reporter: reporter,
		structs:  structs,
		enums:    enums,
		funcs:    funcs,
		engine:   layout.NewEngine(prog.Structs),
		strtab:   prog.Strings,
	}
}

func (c *Context) line(format string, args ...any) {
	fmt.Fprintf(&c.out, format+"\n", args...)
}

func (c *Context) comment(format string, args ...any) {
	c.line("  # "+format, args...)
}

func (c *Context) label(l string) {
	c.line("%s:", l)
}

func (c *Context) newLabel(prefix string) string {
	l := fmt.Sprintf("%s.%s.%d", c.curFunc, prefix, c.labelCounter)
	c.labelCounter++
	return l
}

// pushLoop/popLoop/currentLoop manage the loop-label stack that Break
// and Continue consult.
func (c *Context) pushLoop(start, end string) {
	c.loopStack = append(c.loopStack, loopLabel{start: start, end: end})
}

func (c *Context) popLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Context) currentLoop() (loopLabel, bool) {
	if len(c.loopStack) == 0 {
		return loopLabel{}, false
	}
	return c.loopStack[len(c.loopStack)-1], true
}

// isFat reports whether t is represented on the stack by address
// (array or named struct) rather than by value.
func (c *Context) isFat(t hir.Type) bool {
	return hir.IsFat(t, c.structs)
}

func (c *Context) sizeOf(t hir.Type) uint64 {
	size, err := c.engine.SizeOf(t)
	if err != nil {
		c.panicf("%v", err)
	}
	return size
}

func (c *Context) alignOf(t hir.Type) uint64 {
	align, err := c.engine.AlignOf(t)
	if err != nil {
		c.panicf("%v", err)
	}
	return align
}

// panicf reports a fatal internal invariant violation with a
// source-level assertion message — reserved for states that
// well-formed, already semantically checked HIR should never produce.
func (c *Context) panicf(format string, args ...any) {
	panic(fmt.Sprintf("codegen: "+format, args...))
}

// Output returns the full emitted assembly text for the compilation
// unit processed so far.
func (c *Context) Output() string {
	return c.out.String()
}

// Emit generates assembly for every function and the read-only string
// table in prog, returning the full GAS source text.
func Emit(prog *hir.Program, reporter *diag.Reporter) string {
	c := NewContext(prog, reporter)
	c.line(".text")
	for _, fn := range prog.Functions {
		if fn.Body == nil {
			continue // extern: nothing to emit, linker resolves it
		}
		c.genFunction(fn)
	}
	c.emitStringTable()
	return c.Output()
}

func (c *Context) emitStringTable() {
	entries := c.strtab.Entries()
	if len(entries) == 0 {
		return
	}
	c.line(".section .rodata")
	for _, e := range entries {
		sym := e[0].(string)
		val := e[1].([]byte)
		c.label(sym)
		c.line("  .asciz %q", asciiEscape(val))
	}
}

func asciiEscape(b []byte) string {
	return string(b)
}

func builtinKindOf(t hir.Type) (ast.BuiltinKind, bool) {
	b, ok := t.(*hir.BuiltinType)
	if !ok {
		return 0, false
	}
	return b.Kind, true
}
