// Package options contains the translator options.
package options

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/binding"
	"github.com/retroenv/sm83translate/internal/translate"
)

// DefaultWritableStart is the first address of the video RAM. Code that is
// located at or above it can be modified at run time.
const DefaultWritableStart = 0x8000

// Translator defines options to control the translator.
type Translator struct {
	MemoryBase    amd64.Register // host register holding the address of the source address space
	LockupLabel   string         // runtime routine that handles a stopped CPU
	DispatchLabel string         // runtime routine that maps a source address in RSI to translated code

	WritableStart int // first address that can not contain translated code

	FollowCalls bool // translate the code following a call instruction
}

// NewTranslator returns a new options instance with default options.
func NewTranslator() Translator {
	return Translator{
		MemoryBase:    binding.DefaultMemoryBase,
		LockupLabel:   translate.DefaultLockupLabel,
		DispatchLabel: translate.DefaultDispatchLabel,
		WritableStart: DefaultWritableStart,

		FollowCalls: true,
	}
}
