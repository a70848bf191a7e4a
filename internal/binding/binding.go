// Package binding maps the source registers to the host registers that hold
// them for the whole lifetime of the translated code.
package binding

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

// Host registers that are reserved by the translated code and never bound to a
// source register.
const (
	// AddressIndex holds the zero extended 16-bit source address of a memory
	// access. It has to be a legacy register to be combinable with high byte registers.
	AddressIndex = amd64.RSI

	// DefaultMemoryBase holds the host address of the source address space.
	DefaultMemoryBase = amd64.RBP
)

// Scratch registers for multi instruction sequences. They require a REX prefix
// and can therefore never be used together with a high byte register.
var Scratch = [...]amd64.Register{amd64.R8, amd64.R9, amd64.R10, amd64.R11}

var registers = [...]amd64.Register{
	sm83.A: amd64.AL,
	sm83.F: amd64.AH,
	sm83.B: amd64.BH,
	sm83.C: amd64.BL,
	sm83.D: amd64.CH,
	sm83.E: amd64.CL,
	sm83.H: amd64.DH,
	sm83.L: amd64.DL,
}

var pairs = [...]amd64.Register{
	sm83.BC: amd64.BX,
	sm83.DE: amd64.CX,
	sm83.HL: amd64.DX,
	sm83.SP: amd64.DI,
}

// Register returns the host register that a source register is bound to. The
// [HL] pseudo register is a memory operand and has no binding.
func Register(r sm83.Register) (amd64.Register, bool) {
	if int(r) >= len(registers) {
		return amd64.NoRegister, false
	}
	reg := registers[r]
	return reg, reg != amd64.NoRegister
}

// Pair returns the 16-bit host register that a source pair is bound to. AF has
// no binding as the flags are kept in the host flags register.
func Pair(p sm83.Pair) (amd64.Register, bool) {
	if int(p) >= len(pairs) {
		return amd64.NoRegister, false
	}
	return pairs[p], true
}

// IsBound returns whether any view of the physical host register holds source state.
func IsBound(reg amd64.Register) bool {
	physical := reg.Physical()
	for _, r := range registers {
		if r != amd64.NoRegister && r.Physical() == physical {
			return true
		}
	}
	for _, r := range pairs {
		if r.Physical() == physical {
			return true
		}
	}
	return false
}

// IsReserved returns whether the physical host register is reserved for the
// translated code.
func IsReserved(reg amd64.Register) bool {
	physical := reg.Physical()
	if physical == AddressIndex || physical == amd64.RSP {
		return true
	}
	for _, r := range Scratch {
		if r == physical {
			return true
		}
	}
	return false
}
