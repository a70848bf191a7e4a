package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

var aluOps = [...]amd64.Mnemonic{
	sm83.AluAdd: amd64.Add,
	sm83.AluAdc: amd64.Adc,
	sm83.AluSub: amd64.Sub,
	sm83.AluSbc: amd64.Sbb,
	sm83.AluAnd: amd64.And,
	sm83.AluXor: amd64.Xor,
	sm83.AluOr:  amd64.Or,
	sm83.AluCp:  amd64.Cmp,
}

func (e *emitter) alu(i sm83.Alu) {
	var src amd64.Operand
	if i.Operand.Immediate {
		src = imm8(i.Operand.Imm)
	} else {
		src = e.operand8(i.Operand.Reg)
	}

	e.emit(aluOps[i.Op], amd64.Reg(regA), src)

	switch i.Op {
	case sm83.AluAdd, sm83.AluAdc:
		// ZF, AF and CF match Z, H and C
		e.setN(false)

	case sm83.AluSub, sm83.AluSbc, sm83.AluCp:
		e.setN(true)

	case sm83.AluAnd:
		// H is always set, CF is already cleared
		e.maskFlags(0xff, hostAF)
		e.setN(false)

	default:
		e.maskFlags(^uint8(hostAF), 0)
		e.setN(false)
	}
}

// inc increments a register, INC does not modify CF.
func (e *emitter) inc(r sm83.Register) {
	e.emit(amd64.Inc, e.operand8(r))
	e.setN(false)
}

// dec decrements a register, DEC does not modify CF.
func (e *emitter) dec(r sm83.Register) {
	e.emit(amd64.Dec, e.operand8(r))
	e.setN(true)
}

// addHL adds a pair to HL. Z is kept, H is the carry from bit 11 and C the
// carry from bit 15.
func (e *emitter) addHL(i sm83.AddHL) {
	e.emit(amd64.Lahf)
	e.emit(amd64.Movzx, amd64.Reg(s0d), amd64.Reg(hlReg))
	e.emit(amd64.Movzx, amd64.Reg(s1d), amd64.Reg(mustPair(i.Pair)))
	e.emit(amd64.Lea, amd64.Reg(s2d), amd64.Mem(0, s0d.Physical(), s1d.Physical(), 0))
	e.emit(amd64.Mov, amd64.Reg(hlReg), amd64.Reg(s2w))

	// the carry into every bit is a^b^sum, bit 12 and bit 16 are the carries
	// out of bit 11 and bit 15
	e.emit(amd64.Xor, amd64.Reg(s0d), amd64.Reg(s1d))
	e.emit(amd64.Xor, amd64.Reg(s0d), amd64.Reg(s2d))
	e.emit(amd64.Mov, amd64.Reg(s1d), amd64.Reg(s0d))
	e.emit(amd64.And, amd64.Reg(s1d), imm32(hostAF<<8))
	e.emit(amd64.Shr, amd64.Reg(s0d), imm8(8))
	e.emit(amd64.And, amd64.Reg(s0d), imm32(hostCF<<8))
	e.emit(amd64.Or, amd64.Reg(s0d), amd64.Reg(s1d))

	e.emit(amd64.And, amd64.Reg(regF), imm8(hostZF))
	e.emit(amd64.Or, amd64.Reg(regAF), amd64.Reg(s0w))
	e.emit(amd64.Sahf)
	e.setN(false)
}

// addSP adds a signed byte to SP and stores the result in dst. Z is cleared, H
// and C are the carries out of bit 3 and bit 7 of the unsigned low byte addition.
func (e *emitter) addSP(offset int8, dst amd64.Register) {
	e.emit(amd64.Mov, amd64.Reg(s1d), amd64.Reg(spReg32))
	e.emit(amd64.Add, amd64.Reg(s1b), imm8(uint8(offset)))
	e.maskFlags(hostAF|hostCF, 0)
	e.emit(amd64.Lea, amd64.Reg(dst), amd64.Mem(0, spReg.Physical(), amd64.NoRegister, int32(offset)))
	e.setN(false)
}

// daa decimal adjusts A after an addition or subtraction. The host DAA and DAS
// instructions are not available in 64-bit mode.
func (e *emitter) daa() {
	sub := e.localLabel("daa_sub")
	low := e.localLabel("daa_low")
	high := e.localLabel("daa_high")
	carry := e.localLabel("daa_carry")
	apply := e.localLabel("daa_apply")
	subHigh := e.localLabel("daa_sub_high")
	subApply := e.localLabel("daa_sub_apply")
	done := e.localLabel("daa_done")

	// s1: N shadow, s2: flags image, s3: correction
	e.emit(amd64.Mov, amd64.Reg(s1d), amd64.Reg(regAF32))
	e.emit(amd64.Lahf)
	e.emit(amd64.Mov, amd64.Reg(s2d), amd64.Reg(regAF32))
	e.emit(amd64.Xor, amd64.Reg(s3d), amd64.Reg(s3d))
	e.emit(amd64.Test, amd64.Reg(s1d), imm32(shadowN<<8))
	e.jumpTo(amd64.Jnz, sub)

	e.emit(amd64.Test, amd64.Reg(s2d), imm32(hostAF<<8))
	e.jumpTo(amd64.Jnz, low)
	e.emit(amd64.Mov, amd64.Reg(s0d), amd64.Reg(regAF32))
	e.emit(amd64.And, amd64.Reg(s0d), imm32(0x0f))
	e.emit(amd64.Cmp, amd64.Reg(s0d), imm32(0x09))
	e.jumpTo(amd64.Jbe, high)
	e.label(low)
	e.emit(amd64.Or, amd64.Reg(s3d), imm32(0x06))
	e.label(high)
	e.emit(amd64.Test, amd64.Reg(s2d), imm32(hostCF<<8))
	e.jumpTo(amd64.Jnz, carry)
	e.emit(amd64.Cmp, amd64.Reg(regA), imm8(0x99))
	e.jumpTo(amd64.Jbe, apply)
	e.label(carry)
	e.emit(amd64.Or, amd64.Reg(s3d), imm32(0x60))
	e.emit(amd64.Or, amd64.Reg(s2d), imm32(hostCF<<8))
	e.label(apply)
	e.emit(amd64.Add, amd64.Reg(regA), amd64.Reg(s3b))
	e.jumpTo(amd64.Jmp, done)

	e.label(sub)
	e.emit(amd64.Test, amd64.Reg(s2d), imm32(hostAF<<8))
	e.jumpTo(amd64.Jz, subHigh)
	e.emit(amd64.Or, amd64.Reg(s3d), imm32(0x06))
	e.label(subHigh)
	e.emit(amd64.Test, amd64.Reg(s2d), imm32(hostCF<<8))
	e.jumpTo(amd64.Jz, subApply)
	e.emit(amd64.Or, amd64.Reg(s3d), imm32(0x60))
	e.label(subApply)
	e.emit(amd64.Sub, amd64.Reg(regA), amd64.Reg(s3b))

	// Z from the result, H cleared, C from the flags image, N kept
	e.label(done)
	e.emit(amd64.And, amd64.Reg(s1d), imm32(shadowN<<8))
	e.emit(amd64.Movzx, amd64.Reg(s0d), amd64.Reg(regA))
	e.emit(amd64.Or, amd64.Reg(s1d), amd64.Reg(s0d))
	e.emit(amd64.Test, amd64.Reg(regA), amd64.Reg(regA))
	e.emit(amd64.Lahf)
	e.emit(amd64.And, amd64.Reg(regF), imm8(hostZF))
	e.emit(amd64.And, amd64.Reg(s2d), imm32(hostCF<<8))
	e.emit(amd64.Or, amd64.Reg(regAF), amd64.Reg(s2w))
	e.emit(amd64.Sahf)
	e.emit(amd64.Mov, amd64.Reg(regAF), amd64.Reg(s1w))
}

// cpl complements A and sets N and H.
func (e *emitter) cpl() {
	e.emit(amd64.Not, amd64.Reg(regA))
	e.maskFlags(0xff, hostAF)
	e.setN(true)
}

// scf sets C and clears N and H.
func (e *emitter) scf() {
	e.maskFlags(hostZF, hostCF)
	e.setN(false)
}

// ccf complements C and clears N and H.
func (e *emitter) ccf() {
	e.emit(amd64.Cmc)
	e.maskFlags(hostZF|hostCF, 0)
	e.setN(false)
}

// rotateA rotates A by one bit. The host rotates set CF like the source but do
// not modify ZF, Z is always cleared.
func (e *emitter) rotateA(op amd64.Mnemonic) {
	e.emit(op, amd64.Reg(regA), imm8(1))
	e.maskFlags(hostCF, 0)
	e.setN(false)
}
