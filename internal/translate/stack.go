package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

// pushWord decrements SP by two and stores a 16-bit operand at the new SP.
func (e *emitter) pushWord(value amd64.Operand) {
	e.adjust16(spReg, -2)
	e.loadAddress(spReg)
	e.emit(amd64.Mov, e.memory(2), value)
}

func (e *emitter) push(p sm83.Pair) {
	if p == sm83.AF {
		e.pushAF()
		return
	}
	e.pushWord(amd64.Reg(mustPair(p)))
}

func (e *emitter) pop(p sm83.Pair) {
	if p == sm83.AF {
		e.popAF()
		return
	}
	e.loadAddress(spReg)
	e.emit(amd64.Mov, amd64.Reg(mustPair(p)), e.memory(2))
	e.adjust16(spReg, 2)
}

// pushAF packs the host flags and the N shadow into the F byte and pushes it
// together with A.
func (e *emitter) pushAF() {
	// s1: host flags image in the low byte, s2: A and the N shadow
	e.emit(amd64.Mov, amd64.Reg(s2d), amd64.Reg(regAF32))
	e.emit(amd64.Lahf)
	e.emit(amd64.Mov, amd64.Reg(s1d), amd64.Reg(regAF32))
	e.emit(amd64.Shr, amd64.Reg(s1d), imm8(8))

	// s0: F byte
	e.moveFlag(s0d, s0d, s1d, hostZF, flagZ)
	e.moveFlag(s0d, s3d, s1d, hostAF, flagH)
	e.moveFlag(s0d, s3d, s1d, hostCF, flagC)
	e.emit(amd64.Mov, amd64.Reg(s3d), amd64.Reg(s2d))
	e.emit(amd64.Shr, amd64.Reg(s3d), imm8(8))
	e.emit(amd64.And, amd64.Reg(s3d), imm32(shadowN))
	e.emit(amd64.Or, amd64.Reg(s0d), amd64.Reg(s3d))

	// A is the high byte of the pushed word
	e.emit(amd64.Movzx, amd64.Reg(s3d), amd64.Reg(s2b))
	e.emit(amd64.Shl, amd64.Reg(s3d), imm8(8))
	e.emit(amd64.Or, amd64.Reg(s0d), amd64.Reg(s3d))
	e.pushWord(amd64.Reg(s0w))

	e.emit(amd64.Shl, amd64.Reg(s1d), imm8(8))
	e.emit(amd64.Mov, amd64.Reg(regAF), amd64.Reg(s1w))
	e.emit(amd64.Sahf)
	e.emit(amd64.Mov, amd64.Reg(regAF), amd64.Reg(s2w))
}

// popAF pops A and the F byte and unpacks F into the host flags and the N shadow.
func (e *emitter) popAF() {
	e.loadAddress(spReg)
	e.emit(amd64.Movzx, amd64.Reg(s0d), e.memory(2))
	e.adjust16(spReg, 2)

	// s1: host flags image
	e.moveFlag(s1d, s1d, s0d, flagZ, hostZF)
	e.moveFlag(s1d, s2d, s0d, flagH, hostAF)
	e.moveFlag(s1d, s2d, s0d, flagC, hostCF)

	// s2: N shadow
	e.emit(amd64.Mov, amd64.Reg(s2d), amd64.Reg(s0d))
	e.emit(amd64.And, amd64.Reg(s2d), imm32(flagN))

	// combine both with A in the low byte
	e.emit(amd64.Shr, amd64.Reg(s0d), imm8(8))
	e.emit(amd64.Shl, amd64.Reg(s1d), imm8(8))
	e.emit(amd64.Or, amd64.Reg(s1d), amd64.Reg(s0d))
	e.emit(amd64.Shl, amd64.Reg(s2d), imm8(8))
	e.emit(amd64.Or, amd64.Reg(s2d), amd64.Reg(s0d))

	e.emit(amd64.Mov, amd64.Reg(regAF), amd64.Reg(s1w))
	e.emit(amd64.Sahf)
	e.emit(amd64.Mov, amd64.Reg(regAF), amd64.Reg(s2w))
}

// moveFlag copies the bit from of src to the bit position to using tmp and
// merges it into dst. If tmp is dst, dst receives only the bit. The flags
// are modified.
func (e *emitter) moveFlag(dst, tmp, src amd64.Register, from, to uint8) {
	e.emit(amd64.Mov, amd64.Reg(tmp), amd64.Reg(src))
	e.emit(amd64.And, amd64.Reg(tmp), imm32(int64(from)))
	switch {
	case from > to:
		e.emit(amd64.Shr, amd64.Reg(tmp), imm8(shiftBetween(to, from)))
	case from < to:
		e.emit(amd64.Shl, amd64.Reg(tmp), imm8(shiftBetween(from, to)))
	}
	if tmp != dst {
		e.emit(amd64.Or, amd64.Reg(dst), amd64.Reg(tmp))
	}
}

// shiftBetween returns the distance between two single bit masks.
func shiftBetween(low, high uint8) uint8 {
	var n uint8
	for low < high {
		low <<= 1
		n++
	}
	return n
}
