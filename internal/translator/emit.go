package translator

import (
	"fmt"

	"github.com/retroenv/sm83translate/internal/assembler"
	"github.com/retroenv/sm83translate/internal/program"
)

// Emit hands the translated program to the assembler. The runtime routines
// are declared as externals before the code is emitted.
func Emit(prg *program.Program, asm assembler.Assembler) error {
	if cw, ok := asm.(assembler.CommentWriter); ok {
		if err := cw.WriteCommentHeader(prg); err != nil {
			return fmt.Errorf("writing comment header: %w", err)
		}
	}

	for _, name := range prg.ExternalNames() {
		if err := asm.DeclareExternal(name); err != nil {
			return fmt.Errorf("declaring external '%s': %w", name, err)
		}
	}

	for i, ins := range prg.Code {
		if err := asm.Emit(ins); err != nil {
			return fmt.Errorf("emitting instruction %d '%s': %w", i, ins, err)
		}
	}

	if err := asm.Finish(); err != nil {
		return fmt.Errorf("finishing assembly: %w", err)
	}
	return nil
}
