// Command mini is the CLI entry point for the compiler: a thin flag
// parser that hands off to pkg/driver.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pogyomo/mini/pkg/driver"
)

func main() {
	outPath := flag.String("o", "", "output path")
	emitObject := flag.Bool("c", false, "emit object file instead of linking an executable")
	emitAsm := flag.Bool("S", false, "emit assembly instead of linking an executable")
	emitHIR := flag.Bool("emit-hir", false, "emit a HIR pretty-print instead of compiling")
	asmBlocks := flag.Bool("fasm-blocks", false, "allow asm(\"...\") extension statements")
	profilePath := flag.String("profile", "", "write a CPU profile of this run to the given path")
	disasm := flag.Bool("disasm", false, "disassemble the produced object/executable after building it")
	flag.Usage = usage
	flag.Parse()

	// flag.Parse stops at the first non-flag argument; keep parsing after
	// each positional one so flags may also follow the input path.
	var args []string
	for flag.NArg() > 0 {
		args = append(args, flag.Arg(0))
		flag.CommandLine.Parse(flag.Args()[1:])
	}

	if len(args) != 1 {
		usage()
		os.Exit(2)
	}
	input := args[0]

	set := 0
	emit := driver.EmitExecutable
	if *emitHIR {
		emit = driver.EmitHIR
		set++
	}
	if *emitAsm {
		emit = driver.EmitAssembly
		set++
	}
	if *emitObject {
		emit = driver.EmitObject
		set++
	}
	if set > 1 {
		fmt.Fprintln(os.Stderr, "mini: at most one of --emit-hir, -S, -c may be given")
		os.Exit(2)
	}

	err := driver.Run(driver.Options{
		InputPath:   input,
		OutputPath:  *outPath,
		Emit:        emit,
		AsmBlocks:   *asmBlocks,
		ProfilePath: *profilePath,
		Disasm:      *disasm,
	})
	if err != nil {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mini <input> [-o <output>] [-c] [-S] [--emit-hir] [-h]")
	flag.PrintDefaults()
}
