// Package translate converts single decoded SM83 instructions into sequences of
// symbolic amd64 instructions that operate on the bound host registers.
package translate

import (
	"errors"
	"fmt"

	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
	"github.com/retroenv/sm83translate/internal/binding"
)

var (
	// ErrUnsupportedInstruction is returned for an instruction type that has no translation.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	// ErrInvalidMemoryBase is returned for a memory base register that is bound,
	// reserved or requires a REX prefix.
	ErrInvalidMemoryBase = errors.New("invalid memory base register")
)

// Names of the runtime routines that translated code jumps to.
const (
	DefaultLockupLabel   = "sm83_lockup"
	DefaultDispatchLabel = "sm83_dispatch"
)

const (
	labelNaming      = "sm83_%04x"
	localLabelNaming = ".L%s_%04x"
)

// Label returns the name of the label that marks the translation of the
// instruction at the given source address.
func Label(address uint16) string {
	return fmt.Sprintf(labelNaming, address)
}

func localLabel(kind string, pc uint16) string {
	return fmt.Sprintf(localLabelNaming, kind, pc)
}

// Kind describes how an instruction affects the control flow.
type Kind uint8

const (
	// Ok continues with the next instruction.
	Ok Kind = iota
	// Branch conditionally transfers control to Target, otherwise execution continues.
	Branch
	// Jump unconditionally transfers control to Target.
	Jump
	// Dispatch transfers control to an address that is only known at run time.
	Dispatch
	// Lockup stops the CPU.
	Lockup
)

var kindNames = [...]string{"ok", "branch", "jump", "dispatch", "lockup"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Disposition is the control flow effect of a translated instruction.
type Disposition struct {
	Kind        Kind
	Conditional bool
	Cond        sm83.Condition
	Target      uint16 // source address of a branch or jump destination
	PatchIndex  int    // index of the instruction in the sequence that references Target, -1 if none

	Call   bool   // the transfer is a subroutine call
	Return uint16 // return address of a call
}

// EndsBlock returns whether execution never falls through to the next instruction.
func (d Disposition) EndsBlock() bool {
	switch d.Kind {
	case Jump, Lockup:
		return true
	case Dispatch:
		return !d.Conditional
	default:
		return false
	}
}

// HasTarget returns whether the disposition references a source address that
// needs to be translated.
func (d Disposition) HasTarget() bool {
	return d.Kind == Branch || d.Kind == Jump
}

// Translator translates instructions for a fixed memory base register and fixed
// runtime routine labels.
//
// The memory base points to a buffer that holds the address space followed by
// two padding bytes. 16-bit accesses do not wrap, a word access at $FFFF uses
// the first padding byte as its high byte. The runtime keeps the padding a
// mirror of $0000-$0001 to match the source CPU.
type Translator struct {
	memBase  amd64.Register
	lockup   string
	dispatch string
}

// New returns a new translator. The memory base needs to be the 64-bit view of a
// legacy register that is neither bound to a source register nor reserved.
func New(memBase amd64.Register, lockupLabel, dispatchLabel string) (*Translator, error) {
	if err := ValidateMemoryBase(memBase); err != nil {
		return nil, err
	}
	return &Translator{
		memBase:  memBase,
		lockup:   lockupLabel,
		dispatch: dispatchLabel,
	}, nil
}

// ValidateMemoryBase checks that the register can be used as memory base.
func ValidateMemoryBase(reg amd64.Register) error {
	switch {
	case reg.Size() != 8:
		return fmt.Errorf("%w: %s is not a 64-bit register", ErrInvalidMemoryBase, reg)
	case !reg.IsLegacy():
		return fmt.Errorf("%w: %s requires a REX prefix", ErrInvalidMemoryBase, reg)
	case binding.IsBound(reg):
		return fmt.Errorf("%w: %s holds source registers", ErrInvalidMemoryBase, reg)
	case binding.IsReserved(reg):
		return fmt.Errorf("%w: %s is reserved", ErrInvalidMemoryBase, reg)
	}
	return nil
}

// Translate translates a single instruction at the given source address using
// the default runtime routine labels.
func Translate(ins sm83.Instruction, memBase amd64.Register, pc uint16) ([]amd64.Instruction, Disposition, error) {
	t, err := New(memBase, DefaultLockupLabel, DefaultDispatchLabel)
	if err != nil {
		return nil, Disposition{}, err
	}
	return t.Translate(ins, pc)
}

// Translate translates a single instruction at the given source address.
func (t *Translator) Translate(ins sm83.Instruction, pc uint16) ([]amd64.Instruction, Disposition, error) {
	e := &emitter{
		Translator: t,
		pc:         pc,
		next:       pc + ins.Len(),
		disp:       Disposition{Kind: Ok, PatchIndex: -1},
	}

	if err := e.translate(ins); err != nil {
		return nil, Disposition{}, err
	}
	return e.code, e.disp, nil
}

func (e *emitter) translate(ins sm83.Instruction) error {
	switch i := ins.(type) {
	case sm83.Nop, sm83.Di, sm83.Ei:
		// interrupts are not emulated

	case sm83.Stop, sm83.Halt, sm83.Invalid:
		e.lockupHere()

	case sm83.Ld:
		e.ld(i)
	case sm83.LdImm:
		e.ldImm(i)
	case sm83.LdPairImm:
		e.ldPairImm(i)
	case sm83.LdPairMemA:
		e.ldPairMemA(i)
	case sm83.LdAPairMem:
		e.ldAPairMem(i)
	case sm83.LdHLIncA:
		e.ldHLPostA(1)
	case sm83.LdHLDecA:
		e.ldHLPostA(-1)
	case sm83.LdAHLInc:
		e.ldAHLPost(1)
	case sm83.LdAHLDec:
		e.ldAHLPost(-1)
	case sm83.LdMemA:
		e.ldAbsoluteA(int32(i.Addr))
	case sm83.LdAMem:
		e.ldAAbsolute(int32(i.Addr))
	case sm83.LdhMemA:
		e.ldAbsoluteA(highPage + int32(i.Offset))
	case sm83.LdhAMem:
		e.ldAAbsolute(highPage + int32(i.Offset))
	case sm83.LdhCA:
		e.ldhCA()
	case sm83.LdhAC:
		e.ldhAC()
	case sm83.LdMemSP:
		e.ldMemSP(i)
	case sm83.LdSPHL:
		e.emit(amd64.Mov, amd64.Reg(spReg), amd64.Reg(hlReg))

	case sm83.IncPair:
		e.adjustPair(i.Pair, 1)
	case sm83.DecPair:
		e.adjustPair(i.Pair, -1)
	case sm83.Inc:
		e.inc(i.Reg)
	case sm83.Dec:
		e.dec(i.Reg)
	case sm83.AddHL:
		e.addHL(i)
	case sm83.AddSP:
		e.addSP(i.Offset, spReg)
	case sm83.LdHLSP:
		e.addSP(i.Offset, hlReg)
	case sm83.Alu:
		e.alu(i)
	case sm83.Daa:
		e.daa()
	case sm83.Cpl:
		e.cpl()
	case sm83.Scf:
		e.scf()
	case sm83.Ccf:
		e.ccf()
	case sm83.Rlca:
		e.rotateA(amd64.Rol)
	case sm83.Rrca:
		e.rotateA(amd64.Ror)
	case sm83.Rla:
		e.rotateA(amd64.Rcl)
	case sm83.Rra:
		e.rotateA(amd64.Rcr)
	case sm83.Prefix:
		e.prefix(i)

	case sm83.Push:
		e.push(i.Pair)
	case sm83.Pop:
		e.pop(i.Pair)

	case sm83.Jp:
		e.jump(i.Addr)
	case sm83.JpCond:
		e.branch(i.Cond, i.Addr)
	case sm83.Jr:
		e.jump(relativeTarget(e.pc, i.Offset))
	case sm83.JrCond:
		e.branch(i.Cond, relativeTarget(e.pc, i.Offset))
	case sm83.JpHL:
		e.emit(amd64.Movzx, amd64.Reg(addressIndex32), amd64.Reg(hlReg))
		e.dispatchIndex()
	case sm83.Call:
		e.call(i.Addr)
	case sm83.CallCond:
		e.callCond(i.Cond, i.Addr)
	case sm83.Rst:
		e.call(uint16(i.Vector))
	case sm83.Ret, sm83.Reti:
		e.ret()
	case sm83.RetCond:
		e.retCond(i.Cond)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedInstruction, ins)
	}
	return nil
}

// relativeTarget returns the absolute destination of a relative jump, the
// signed displacement is added to the address of the jump itself and wraps
// around at 16 bits.
func relativeTarget(pc uint16, offset int8) uint16 {
	return pc + uint16(offset)
}
