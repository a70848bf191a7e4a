package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

func (e *emitter) ld(i sm83.Ld) {
	// only one side can be [HL], LD [HL],[HL] is HALT
	dst := e.operand8(i.Dst)
	src := e.operand8(i.Src)
	e.emit(amd64.Mov, dst, src)
}

func (e *emitter) ldImm(i sm83.LdImm) {
	e.emit(amd64.Mov, e.operand8(i.Reg), imm8(i.Value))
}

func (e *emitter) ldPairImm(i sm83.LdPairImm) {
	e.emit(amd64.Mov, amd64.Reg(mustPair(i.Pair)), imm16(i.Value))
}

func (e *emitter) ldPairMemA(i sm83.LdPairMemA) {
	e.loadAddress(mustPair(i.Pair))
	e.emit(amd64.Mov, e.memory(1), amd64.Reg(regA))
}

func (e *emitter) ldAPairMem(i sm83.LdAPairMem) {
	e.loadAddress(mustPair(i.Pair))
	e.emit(amd64.Mov, amd64.Reg(regA), e.memory(1))
}

// ldHLPostA stores A at [HL] and adjusts HL afterwards.
func (e *emitter) ldHLPostA(delta int32) {
	e.loadAddress(hlReg)
	e.emit(amd64.Mov, e.memory(1), amd64.Reg(regA))
	e.adjust16(hlReg, delta)
}

// ldAHLPost loads A from [HL] and adjusts HL afterwards.
func (e *emitter) ldAHLPost(delta int32) {
	e.loadAddress(hlReg)
	e.emit(amd64.Mov, amd64.Reg(regA), e.memory(1))
	e.adjust16(hlReg, delta)
}

func (e *emitter) ldAbsoluteA(address int32) {
	e.emit(amd64.Mov, e.absolute(1, address), amd64.Reg(regA))
}

func (e *emitter) ldAAbsolute(address int32) {
	e.emit(amd64.Mov, amd64.Reg(regA), e.absolute(1, address))
}

func (e *emitter) ldhCA() {
	e.emit(amd64.Movzx, amd64.Reg(addressIndex32), amd64.Reg(regC))
	e.emit(amd64.Mov, amd64.Mem(1, e.memBase, addressIndex64, highPage), amd64.Reg(regA))
}

func (e *emitter) ldhAC() {
	e.emit(amd64.Movzx, amd64.Reg(addressIndex32), amd64.Reg(regC))
	e.emit(amd64.Mov, amd64.Reg(regA), amd64.Mem(1, e.memBase, addressIndex64, highPage))
}

// ldMemSP stores SP little endian at an absolute address. A store at $FFFF
// writes its high byte into the padding after the address space.
func (e *emitter) ldMemSP(i sm83.LdMemSP) {
	e.emit(amd64.Mov, e.absolute(2, int32(i.Addr)), amd64.Reg(spReg))
}

// adjustPair increments or decrements a pair without modifying the flags.
func (e *emitter) adjustPair(p sm83.Pair, delta int32) {
	e.adjust16(mustPair(p), delta)
}
