package amd64

import (
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/x86"
)

// ErrHighByteREX is returned for an instruction that combines a high byte register
// with an operand that can only be encoded using a REX prefix.
var ErrHighByteREX = errors.New("high byte register combined with REX operand")

// Mnemonic is the Intel syntax name of an instruction.
type Mnemonic string

// Instructions that the translator uses. Label is a pseudo instruction that defines
// the label named by the instruction target at its position.
const (
	Label Mnemonic = "label"

	Adc   = Mnemonic(x86.AdcName)
	Add   = Mnemonic(x86.AddName)
	And   = Mnemonic(x86.AndName)
	Cmc   = Mnemonic(x86.CmcName)
	Cmp   = Mnemonic(x86.CmpName)
	Dec   = Mnemonic(x86.DecName)
	Inc   = Mnemonic(x86.IncName)
	Lea   = Mnemonic(x86.LeaName)
	Mov   = Mnemonic(x86.MovName)
	Movzx = Mnemonic(x86.MovzxName)
	Or    = Mnemonic(x86.OrName)
	Rcl   = Mnemonic(x86.RclName)
	Rcr   = Mnemonic(x86.RcrName)
	Rol   = Mnemonic(x86.RolName)
	Ror   = Mnemonic(x86.RorName)
	Sar   = Mnemonic(x86.SarName)
	Sbb   = Mnemonic(x86.SbbName)
	Shl   = Mnemonic(x86.ShlName)
	Shr   = Mnemonic(x86.ShrName)
	Sub   = Mnemonic(x86.SubName)
	Test  = Mnemonic(x86.TestName)
	Xor   = Mnemonic(x86.XorName)

	Jmp = Mnemonic(x86.JmpName)
	Jb  = Mnemonic(x86.JbName)
	Jbe = Mnemonic(x86.JbeName)
	Jnb = Mnemonic(x86.JnbName)
	Jz  = Mnemonic(x86.JzName)
	Jnz = Mnemonic(x86.JnzName)
)

// Instructions that have no name constant in the x86 package, most of them
// are flag transfers of the 64-bit mode.
const (
	Lahf   Mnemonic = "lahf"
	Not    Mnemonic = "not"
	Popfq  Mnemonic = "popfq"
	Pushfq Mnemonic = "pushfq"
	Sahf   Mnemonic = "sahf"
	Setc   Mnemonic = "setc"
)

// IsJump returns whether the mnemonic transfers control to a label.
func (m Mnemonic) IsJump() bool {
	return x86.BranchingInstructions.Contains(string(m))
}

// OperandKind defines the kind of an instruction operand.
type OperandKind uint8

// Operand kinds.
const (
	RegisterOperand OperandKind = iota
	ImmediateOperand
	MemoryOperand
)

// Operand is a register, an immediate value or a memory reference.
type Operand struct {
	Kind OperandKind
	Reg  Register
	Imm  int64
	Size int // operand size in bytes for immediates and memory references

	Base  Register
	Index Register
	Disp  int32
}

// Reg returns a register operand.
func Reg(r Register) Operand {
	return Operand{Kind: RegisterOperand, Reg: r, Size: r.Size()}
}

// Imm returns an immediate operand of the given size in bytes.
func Imm(value int64, size int) Operand {
	return Operand{Kind: ImmediateOperand, Imm: value, Size: size}
}

// Mem returns a memory operand that references [base+index+disp].
func Mem(size int, base, index Register, disp int32) Operand {
	return Operand{Kind: MemoryOperand, Size: size, Base: base, Index: index, Disp: disp}
}

var memorySizes = map[int]string{
	1: "byte",
	2: "word",
	4: "dword",
	8: "qword",
}

// String returns the Intel syntax representation of the operand.
func (o Operand) String() string {
	switch o.Kind {
	case RegisterOperand:
		return o.Reg.String()

	case ImmediateOperand:
		if o.Imm < 0 {
			return fmt.Sprintf("-0x%x", -o.Imm)
		}
		return fmt.Sprintf("0x%x", o.Imm)

	case MemoryOperand:
		var sb strings.Builder
		if name, ok := memorySizes[o.Size]; ok {
			sb.WriteString(name)
			sb.WriteString(" ptr ")
		}
		sb.WriteByte('[')
		sep := ""
		if o.Base != NoRegister {
			sb.WriteString(o.Base.String())
			sep = "+"
		}
		if o.Index != NoRegister {
			sb.WriteString(sep)
			sb.WriteString(o.Index.String())
			sep = "+"
		}
		switch {
		case o.Disp < 0:
			fmt.Fprintf(&sb, "-0x%x", -int64(o.Disp))
		case o.Disp > 0 || sep == "":
			fmt.Fprintf(&sb, "%s0x%x", sep, o.Disp)
		}
		sb.WriteByte(']')
		return sb.String()

	default:
		return fmt.Sprintf("Operand(%d)", o.Kind)
	}
}

// registers returns all registers that are used to encode the operand.
func (o Operand) registers() []Register {
	switch o.Kind {
	case RegisterOperand:
		return []Register{o.Reg}
	case MemoryOperand:
		var regs []Register
		if o.Base != NoRegister {
			regs = append(regs, o.Base)
		}
		if o.Index != NoRegister {
			regs = append(regs, o.Index)
		}
		return regs
	default:
		return nil
	}
}

// Instruction is a symbolic host instruction. Target names the label of a jump
// or the label that a Label pseudo instruction defines.
type Instruction struct {
	Op     Mnemonic
	Args   []Operand
	Target string
}

// New returns an instruction with the given operands.
func New(op Mnemonic, args ...Operand) Instruction {
	return Instruction{Op: op, Args: args}
}

// Jump returns a jump instruction to the given label.
func Jump(op Mnemonic, target string) Instruction {
	return Instruction{Op: op, Target: target}
}

// DefineLabel returns a pseudo instruction that defines a label.
func DefineLabel(name string) Instruction {
	return Instruction{Op: Label, Target: name}
}

// IsLabel returns whether the instruction is a label definition.
func (i Instruction) IsLabel() bool {
	return i.Op == Label
}

// String returns the Intel syntax representation of the instruction.
func (i Instruction) String() string {
	if i.Op == Label {
		return i.Target + ":"
	}
	if i.Op.IsJump() {
		return fmt.Sprintf("%s %s", i.Op, i.Target)
	}
	if len(i.Args) == 0 {
		return string(i.Op)
	}

	args := make([]string, len(i.Args))
	for j, arg := range i.Args {
		args[j] = arg.String()
	}
	return fmt.Sprintf("%s %s", i.Op, strings.Join(args, ", "))
}

// Validate checks that the instruction can be encoded. A high byte register can
// not be encoded in an instruction that carries a REX prefix.
func (i Instruction) Validate() error {
	var high, rex Register
	for _, arg := range i.Args {
		if arg.Kind == RegisterOperand && arg.Reg.Size() == 8 {
			rex = arg.Reg // REX.W
		}
		for _, reg := range arg.registers() {
			if reg.IsHighByte() {
				high = reg
			}
			if reg.NeedsREX() {
				rex = reg
			}
		}
	}

	if high != NoRegister && rex != NoRegister {
		return fmt.Errorf("%w: '%s' uses %s and %s", ErrHighByteREX, i, high, rex)
	}
	return nil
}
