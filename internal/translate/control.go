package translate

import (
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

// jumps maps a source condition to the host jump that is taken when it holds.
var jumps = [...]amd64.Mnemonic{
	sm83.NZ: amd64.Jnz,
	sm83.Z:  amd64.Jz,
	sm83.NC: amd64.Jnb,
	sm83.CY: amd64.Jb,
}

func (e *emitter) jump(target uint16) {
	index := e.jumpTo(amd64.Jmp, Label(target))
	e.disp = Disposition{Kind: Jump, Target: target, PatchIndex: index}
}

func (e *emitter) branch(cond sm83.Condition, target uint16) {
	index := e.jumpTo(jumps[cond], Label(target))
	e.disp = Disposition{
		Kind:        Branch,
		Conditional: true,
		Cond:        cond,
		Target:      target,
		PatchIndex:  index,
	}
}

// call pushes the address of the next instruction and jumps to the target.
func (e *emitter) call(target uint16) {
	e.pushWord(imm16(e.next))
	e.jump(target)
	e.disp.Call = true
	e.disp.Return = e.next
}

// callCond skips the call sequence if the condition does not hold.
func (e *emitter) callCond(cond sm83.Condition, target uint16) {
	skip := e.localLabel("call")
	e.jumpTo(jumps[cond.Not()], skip)
	e.call(target)
	e.label(skip)

	e.disp.Kind = Branch
	e.disp.Conditional = true
	e.disp.Cond = cond
}

// ret pops the return address into the address index and continues in the
// runtime dispatcher, which maps it to the translated code.
func (e *emitter) ret() {
	e.loadAddress(spReg)
	e.emit(amd64.Movzx, amd64.Reg(addressIndex32), e.memory(2))
	e.adjust16(spReg, 2)
	e.dispatchIndex()
}

func (e *emitter) retCond(cond sm83.Condition) {
	skip := e.localLabel("ret")
	e.jumpTo(jumps[cond.Not()], skip)
	e.ret()
	e.label(skip)

	e.disp.Conditional = true
	e.disp.Cond = cond
}

// dispatchIndex jumps to the runtime dispatcher with the source address in the
// address index.
func (e *emitter) dispatchIndex() {
	e.jumpTo(amd64.Jmp, e.dispatch)
	e.disp = Disposition{Kind: Dispatch, PatchIndex: -1}
}

// lockupHere jumps to the runtime lockup routine with the address of the
// stopping instruction in the address index.
func (e *emitter) lockupHere() {
	e.emit(amd64.Mov, amd64.Reg(addressIndex32), imm32(int64(e.pc)))
	e.jumpTo(amd64.Jmp, e.lockup)
	e.disp = Disposition{Kind: Lockup, PatchIndex: -1}
}
