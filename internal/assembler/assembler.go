// Package assembler defines the contract of the host assembly service that
// encodes the translated code.
package assembler

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/program"
)

// Assembler encodes symbolic host instructions. Encoding failures are
// reported by the implementation.
type Assembler interface {
	// DeclareExternal declares a label that is defined outside of the translated code.
	DeclareExternal(name string) error
	// Emit appends an instruction or label definition.
	Emit(ins amd64.Instruction) error
	// Finish completes the output and checks that all referenced labels are known.
	Finish() error
}

// CommentWriter is implemented by assemblers that can output a descriptive
// header for a program.
type CommentWriter interface {
	WriteCommentHeader(prg *program.Program) error
}
