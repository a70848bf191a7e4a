package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

var rotates = [...]amd64.Mnemonic{
	sm83.Rlc: amd64.Rol,
	sm83.Rrc: amd64.Ror,
	sm83.Rl:  amd64.Rcl,
	sm83.Rr:  amd64.Rcr,
}

var shifts = [...]amd64.Mnemonic{
	sm83.Sla: amd64.Shl,
	sm83.Sra: amd64.Sar,
	sm83.Srl: amd64.Shr,
}

func (e *emitter) prefix(i sm83.Prefix) {
	target := e.operand8(i.Reg)
	mask := imm8(1 << i.Bit)

	switch i.Op {
	case sm83.Rlc, sm83.Rrc, sm83.Rl, sm83.Rr:
		// host rotates do not modify ZF
		e.emit(rotates[i.Op], target, imm8(1))
		e.saveCarry()
		e.testZero(target)
		e.zeroWithCarry(0)
		e.setN(false)

	case sm83.Sla, sm83.Sra, sm83.Srl:
		e.emit(shifts[i.Op], target, imm8(1))
		e.maskFlags(hostZF|hostCF, 0)
		e.setN(false)

	case sm83.Swap:
		e.emit(amd64.Rol, target, imm8(4))
		e.testZero(target)
		e.maskFlags(hostZF, 0)
		e.setN(false)

	case sm83.Bit:
		e.saveCarry()
		e.emit(amd64.Test, target, mask)
		e.zeroWithCarry(hostAF)
		e.setN(false)

	case sm83.Res:
		e.emit(amd64.Pushfq)
		e.emit(amd64.And, target, imm8(^uint8(1<<i.Bit)))
		e.emit(amd64.Popfq)

	case sm83.Set:
		e.emit(amd64.Pushfq)
		e.emit(amd64.Or, target, mask)
		e.emit(amd64.Popfq)
	}
}

// testZero sets ZF for the value of the operand and clears CF.
func (e *emitter) testZero(op amd64.Operand) {
	if op.Kind == amd64.MemoryOperand {
		e.emit(amd64.Cmp, op, imm8(0))
		return
	}
	e.emit(amd64.Test, op, op)
}
