package driver

import (
	"debug/elf"
	"fmt"
	"io"

	"golang.org/x/arch/x86/x86asm"

	"github.com/pogyomo/mini/pkg/diag"
)

// disasmFile re-opens an ELF object or executable produced by assemble
// or link and prints an address-annotated disassembly of its .text
// section, using golang.org/x/arch/x86/x86asm — the same decoder
// family cmd/objdump uses for x86. ELF parsing itself uses the
// standard library.
func disasmFile(w io.Writer, path string, cache *diag.SourceCache) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("disasm: %w", err)
	}
	defer f.Close()

	text := f.Section(".text")
	if text == nil {
		return fmt.Errorf("disasm: no .text section in %s", path)
	}
	code, err := text.Data()
	if err != nil {
		return fmt.Errorf("disasm: %w", err)
	}

	fmt.Fprintf(w, "disassembly of %s (.text, %d bytes):\n", path, len(code))
	addr := text.Addr
	for i := 0; i < len(code); {
		inst, err := x86asm.Decode(code[i:], 64)
		if err != nil || inst.Len == 0 {
			// Resynchronize past an undecodable byte rather than
			// aborting the whole disassembly.
			fmt.Fprintf(w, "  %08x: (bad)\n", addr+uint64(i))
			i++
			continue
		}
		fmt.Fprintf(w, "  %08x: %s\n", addr+uint64(i), x86asm.GNUSyntax(inst, addr+uint64(i), nil))
		i += inst.Len
	}
	return nil
}
