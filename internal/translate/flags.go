package translate

import (
	"github.com/retroenv/retrogolib/arch/cpu/x86"
	"github.com/retroenv/sm83translate/internal/arch/amd64"
)

// The Z, H and C flags live in the host flags register as ZF, AF and CF. N has
// no host equivalent and is kept as a shadow byte in AH, the register that F is
// bound to. AH is also used by LAHF and SAHF to stage the host flags, every
// sequence that does so restores the shadow afterwards using a MOV, which does
// not modify any flags.
const (
	hostCF = 1 << x86.FlagCarry
	hostAF = 1 << x86.FlagAuxCarry
	hostZF = 1 << x86.FlagZero

	shadowN = 0x40 // value of AH when N is set
)

// Bit positions of the flags in the F register.
const (
	flagZ = 0x80
	flagN = 0x40
	flagH = 0x20
	flagC = 0x10
)

var (
	regAF   = mustView(regA, 2) // A in the low and the N shadow in the high byte
	regAF32 = mustView(regA, 4)
)

// setN writes the N shadow.
func (e *emitter) setN(set bool) {
	var value uint8
	if set {
		value = shadowN
	}
	e.emit(amd64.Mov, amd64.Reg(regF), imm8(value))
}

// maskFlags keeps the host flags of the mask, sets the host flags of set and
// clears all others. The N shadow is destroyed.
func (e *emitter) maskFlags(mask, set uint8) {
	e.emit(amd64.Lahf)
	if mask != 0xff {
		e.emit(amd64.And, amd64.Reg(regF), imm8(mask))
	}
	if set != 0 {
		e.emit(amd64.Or, amd64.Reg(regF), imm8(set))
	}
	e.emit(amd64.Sahf)
}

// saveCarry stores the carry flag shifted to the position of CF in the
// flags image of AX in the first scratch register. It modifies the flags.
func (e *emitter) saveCarry() {
	e.emit(amd64.Setc, amd64.Reg(s0b))
	e.emit(amd64.Movzx, amd64.Reg(s0d), amd64.Reg(s0b))
	e.emit(amd64.Shl, amd64.Reg(s0d), imm8(8))
}

// zeroWithCarry sets ZF from the last result, clears the other flags and
// restores the carry saved by saveCarry. set contains flags that are set
// additionally.
func (e *emitter) zeroWithCarry(set uint8) {
	e.emit(amd64.Lahf)
	e.emit(amd64.And, amd64.Reg(regF), imm8(hostZF))
	if set != 0 {
		e.emit(amd64.Or, amd64.Reg(regF), imm8(set))
	}
	e.emit(amd64.Or, amd64.Reg(regAF), amd64.Reg(s0w))
	e.emit(amd64.Sahf)
}
