package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
	"github.com/retroenv/sm83translate/internal/binding"
)

// highPage is the base address of the LDH memory accesses.
const highPage = 0xff00

var (
	regA    = mustRegister(sm83.A)
	regF    = mustRegister(sm83.F)
	regC    = mustRegister(sm83.C)
	hlReg   = mustPair(sm83.HL)
	spReg   = mustPair(sm83.SP)
	spReg32 = mustView(spReg, 4)

	addressIndex32 = amd64.ESI
	addressIndex64 = binding.AddressIndex
)

// scratch register views, they can not be combined with high byte registers.
var (
	s0b, s0w, s0d = amd64.R8B, amd64.R8W, amd64.R8D
	s1b, s1w, s1d = amd64.R9B, amd64.R9W, amd64.R9D
	s2b, s2w, s2d = amd64.R10B, amd64.R10W, amd64.R10D
	s3b, s3d      = amd64.R11B, amd64.R11D
)

// emitter collects the host instructions of a single source instruction.
type emitter struct {
	*Translator

	pc   uint16 // address of the translated instruction
	next uint16 // address of the following instruction
	code []amd64.Instruction
	disp Disposition
}

func (e *emitter) emit(op amd64.Mnemonic, args ...amd64.Operand) {
	e.code = append(e.code, amd64.New(op, args...))
}

// jumpTo emits a jump to a label and returns the index of the jump.
func (e *emitter) jumpTo(op amd64.Mnemonic, target string) int {
	e.code = append(e.code, amd64.Jump(op, target))
	return len(e.code) - 1
}

func (e *emitter) label(name string) {
	e.code = append(e.code, amd64.DefineLabel(name))
}

func (e *emitter) localLabel(kind string) string {
	return localLabel(kind, e.pc)
}

// memory returns a memory operand for the source address held in the address index.
func (e *emitter) memory(size int) amd64.Operand {
	return amd64.Mem(size, e.memBase, addressIndex64, 0)
}

// absolute returns a memory operand for a constant source address.
func (e *emitter) absolute(size int, address int32) amd64.Operand {
	return amd64.Mem(size, e.memBase, amd64.NoRegister, address)
}

// loadAddress zero extends a 16-bit host register into the address index.
func (e *emitter) loadAddress(reg amd64.Register) {
	e.emit(amd64.Movzx, amd64.Reg(addressIndex32), amd64.Reg(reg))
}

// operand8 returns the host operand of an 8-bit source register. For [HL] the
// address is loaded into the address index first.
func (e *emitter) operand8(r sm83.Register) amd64.Operand {
	if r == sm83.HLInd {
		e.loadAddress(hlReg)
		return e.memory(1)
	}
	return amd64.Reg(mustRegister(r))
}

// adjust16 adds a constant to a 16-bit host register without modifying the flags.
func (e *emitter) adjust16(reg amd64.Register, delta int32) {
	e.emit(amd64.Lea, amd64.Reg(reg), amd64.Mem(0, reg.Physical(), amd64.NoRegister, delta))
}

func imm8(v uint8) amd64.Operand {
	return amd64.Imm(int64(v), 1)
}

func imm16(v uint16) amd64.Operand {
	return amd64.Imm(int64(v), 2)
}

func imm32(v int64) amd64.Operand {
	return amd64.Imm(v, 4)
}

func mustRegister(r sm83.Register) amd64.Register {
	reg, ok := binding.Register(r)
	if !ok {
		panic("register " + r.String() + " is not bound")
	}
	return reg
}

func mustPair(p sm83.Pair) amd64.Register {
	reg, ok := binding.Pair(p)
	if !ok {
		panic("pair " + p.String() + " is not bound")
	}
	return reg
}

func mustView(reg amd64.Register, size int) amd64.Register {
	view, ok := reg.View(size)
	if !ok {
		panic("register " + reg.String() + " has no view of size")
	}
	return view
}
