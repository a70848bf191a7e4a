package sm83

import "fmt"

// Instruction is a decoded SM83 instruction. The set of implementations is closed,
// every opcode family of the CPU is represented by exactly one variant type.
type Instruction interface {
	fmt.Stringer

	// Len returns the encoded length of the instruction in bytes.
	Len() uint16

	instruction()
}

// AluOp is the operation of the single operand arithmetic block that operates
// on the accumulator.
type AluOp uint8

// ALU operations in the order of their encoding field.
const (
	AluAdd AluOp = iota
	AluAdc
	AluSub
	AluSbc
	AluAnd
	AluXor
	AluOr
	AluCp
)

var aluOpNames = [...]string{"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP"}

func (op AluOp) String() string {
	if int(op) < len(aluOpNames) {
		return aluOpNames[op]
	}
	return fmt.Sprintf("AluOp(%d)", uint8(op))
}

// Operand is the second operand of an ALU block instruction, either a register
// or an immediate byte.
type Operand struct {
	Reg       Register
	Imm       uint8
	Immediate bool
}

// RegOperand returns a register operand.
func RegOperand(r Register) Operand {
	return Operand{Reg: r}
}

// ImmOperand returns an immediate byte operand.
func ImmOperand(v uint8) Operand {
	return Operand{Imm: v, Immediate: true}
}

func (o Operand) String() string {
	if o.Immediate {
		return fmt.Sprintf("$%02X", o.Imm)
	}
	return o.Reg.String()
}

// PrefixOp is an operation of the 0xCB prefixed sub table.
type PrefixOp uint8

// Prefixed operations, the rotate and shift operations are in encoding order.
const (
	Rlc PrefixOp = iota
	Rrc
	Rl
	Rr
	Sla
	Sra
	Swap
	Srl
	Bit
	Res
	Set
)

var prefixOpNames = [...]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL", "BIT", "RES", "SET"}

func (op PrefixOp) String() string {
	if int(op) < len(prefixOpNames) {
		return prefixOpNames[op]
	}
	return fmt.Sprintf("PrefixOp(%d)", uint8(op))
}

// Nop does nothing. Opcode 0x00.
type Nop struct{}

// LdMemSP stores the stack pointer at an absolute address. Opcode 0x08.
type LdMemSP struct{ Addr uint16 }

// Stop enters the low power mode. Opcode 0x10.
type Stop struct{ Arg uint8 }

// Jr jumps relative to the following instruction. Opcode 0x18.
type Jr struct{ Offset int8 }

// JrCond jumps relative to the following instruction if the condition holds.
type JrCond struct {
	Cond   Condition
	Offset int8
}

// LdPairImm loads a 16-bit immediate into a pair.
type LdPairImm struct {
	Pair  Pair
	Value uint16
}

// AddHL adds a pair to HL.
type AddHL struct{ Pair Pair }

// LdPairMemA stores A at the address held by BC or DE.
type LdPairMemA struct{ Pair Pair }

// LdAPairMem loads A from the address held by BC or DE.
type LdAPairMem struct{ Pair Pair }

// LdHLIncA stores A at the address held by HL and increments HL. Opcode 0x22.
type LdHLIncA struct{}

// LdAHLInc loads A from the address held by HL and increments HL. Opcode 0x2A.
type LdAHLInc struct{}

// LdHLDecA stores A at the address held by HL and decrements HL. Opcode 0x32.
type LdHLDecA struct{}

// LdAHLDec loads A from the address held by HL and decrements HL. Opcode 0x3A.
type LdAHLDec struct{}

// IncPair increments a pair.
type IncPair struct{ Pair Pair }

// DecPair decrements a pair.
type DecPair struct{ Pair Pair }

// Inc increments a register.
type Inc struct{ Reg Register }

// Dec decrements a register.
type Dec struct{ Reg Register }

// LdImm loads an immediate byte into a register.
type LdImm struct {
	Reg   Register
	Value uint8
}

// Rlca rotates A left. Opcode 0x07.
type Rlca struct{}

// Rrca rotates A right. Opcode 0x0F.
type Rrca struct{}

// Rla rotates A left through the carry. Opcode 0x17.
type Rla struct{}

// Rra rotates A right through the carry. Opcode 0x1F.
type Rra struct{}

// Daa decimal adjusts A. Opcode 0x27.
type Daa struct{}

// Cpl complements A. Opcode 0x2F.
type Cpl struct{}

// Scf sets the carry flag. Opcode 0x37.
type Scf struct{}

// Ccf complements the carry flag. Opcode 0x3F.
type Ccf struct{}

// Halt halts the CPU until an interrupt occurs. Opcode 0x76.
type Halt struct{}

// Ld copies a register to another register.
type Ld struct{ Dst, Src Register }

// Alu is one of the eight accumulator operations of the arithmetic block.
type Alu struct {
	Op      AluOp
	Operand Operand
}

// RetCond returns from a call if the condition holds.
type RetCond struct{ Cond Condition }

// LdhMemA stores A in the high memory page. Opcode 0xE0.
type LdhMemA struct{ Offset uint8 }

// AddSP adds a signed displacement to the stack pointer. Opcode 0xE8.
type AddSP struct{ Offset int8 }

// LdhAMem loads A from the high memory page. Opcode 0xF0.
type LdhAMem struct{ Offset uint8 }

// LdHLSP loads the stack pointer plus a signed displacement into HL. Opcode 0xF8.
type LdHLSP struct{ Offset int8 }

// Pop pops a pair from the stack.
type Pop struct{ Pair Pair }

// Ret returns from a call. Opcode 0xC9.
type Ret struct{}

// Reti returns from an interrupt handler. Opcode 0xD9.
type Reti struct{}

// JpHL jumps to the address held by HL. Opcode 0xE9.
type JpHL struct{}

// LdSPHL copies HL to the stack pointer. Opcode 0xF9.
type LdSPHL struct{}

// JpCond jumps to an absolute address if the condition holds.
type JpCond struct {
	Cond Condition
	Addr uint16
}

// LdhCA stores A in the high memory page indexed by C. Opcode 0xE2.
type LdhCA struct{}

// LdMemA stores A at an absolute address. Opcode 0xEA.
type LdMemA struct{ Addr uint16 }

// LdhAC loads A from the high memory page indexed by C. Opcode 0xF2.
type LdhAC struct{}

// LdAMem loads A from an absolute address. Opcode 0xFA.
type LdAMem struct{ Addr uint16 }

// Jp jumps to an absolute address. Opcode 0xC3.
type Jp struct{ Addr uint16 }

// Prefix is an operation of the 0xCB prefixed sub table. Bit is only used by
// the BIT, RES and SET operations.
type Prefix struct {
	Op  PrefixOp
	Bit uint8
	Reg Register
}

// Invalid is an opcode that the CPU does not define, executing it locks up the CPU.
type Invalid struct{ Opcode uint8 }

// Di disables interrupts. Opcode 0xF3.
type Di struct{}

// Ei enables interrupts. Opcode 0xFB.
type Ei struct{}

// CallCond calls an absolute address if the condition holds.
type CallCond struct {
	Cond Condition
	Addr uint16
}

// Push pushes a pair on the stack.
type Push struct{ Pair Pair }

// Call calls an absolute address. Opcode 0xCD.
type Call struct{ Addr uint16 }

// Rst calls one of the eight restart vectors.
type Rst struct{ Vector uint8 }

func (Nop) instruction()        {}
func (LdMemSP) instruction()    {}
func (Stop) instruction()       {}
func (Jr) instruction()         {}
func (JrCond) instruction()     {}
func (LdPairImm) instruction()  {}
func (AddHL) instruction()      {}
func (LdPairMemA) instruction() {}
func (LdAPairMem) instruction() {}
func (LdHLIncA) instruction()   {}
func (LdAHLInc) instruction()   {}
func (LdHLDecA) instruction()   {}
func (LdAHLDec) instruction()   {}
func (IncPair) instruction()    {}
func (DecPair) instruction()    {}
func (Inc) instruction()        {}
func (Dec) instruction()        {}
func (LdImm) instruction()      {}
func (Rlca) instruction()       {}
func (Rrca) instruction()       {}
func (Rla) instruction()        {}
func (Rra) instruction()        {}
func (Daa) instruction()        {}
func (Cpl) instruction()        {}
func (Scf) instruction()        {}
func (Ccf) instruction()        {}
func (Halt) instruction()       {}
func (Ld) instruction()         {}
func (Alu) instruction()        {}
func (RetCond) instruction()    {}
func (LdhMemA) instruction()    {}
func (AddSP) instruction()      {}
func (LdhAMem) instruction()    {}
func (LdHLSP) instruction()     {}
func (Pop) instruction()        {}
func (Ret) instruction()        {}
func (Reti) instruction()       {}
func (JpHL) instruction()       {}
func (LdSPHL) instruction()     {}
func (JpCond) instruction()     {}
func (LdhCA) instruction()      {}
func (LdMemA) instruction()     {}
func (LdhAC) instruction()      {}
func (LdAMem) instruction()     {}
func (Jp) instruction()         {}
func (Prefix) instruction()     {}
func (Invalid) instruction()    {}
func (Di) instruction()         {}
func (Ei) instruction()         {}
func (CallCond) instruction()   {}
func (Push) instruction()       {}
func (Call) instruction()       {}
func (Rst) instruction()        {}

func (Nop) Len() uint16        { return 1 }
func (LdMemSP) Len() uint16    { return 3 }
func (Stop) Len() uint16       { return 2 }
func (Jr) Len() uint16         { return 2 }
func (JrCond) Len() uint16     { return 2 }
func (LdPairImm) Len() uint16  { return 3 }
func (AddHL) Len() uint16      { return 1 }
func (LdPairMemA) Len() uint16 { return 1 }
func (LdAPairMem) Len() uint16 { return 1 }
func (LdHLIncA) Len() uint16   { return 1 }
func (LdAHLInc) Len() uint16   { return 1 }
func (LdHLDecA) Len() uint16   { return 1 }
func (LdAHLDec) Len() uint16   { return 1 }
func (IncPair) Len() uint16    { return 1 }
func (DecPair) Len() uint16    { return 1 }
func (Inc) Len() uint16        { return 1 }
func (Dec) Len() uint16        { return 1 }
func (LdImm) Len() uint16      { return 2 }
func (Rlca) Len() uint16       { return 1 }
func (Rrca) Len() uint16       { return 1 }
func (Rla) Len() uint16        { return 1 }
func (Rra) Len() uint16        { return 1 }
func (Daa) Len() uint16        { return 1 }
func (Cpl) Len() uint16        { return 1 }
func (Scf) Len() uint16        { return 1 }
func (Ccf) Len() uint16        { return 1 }
func (Halt) Len() uint16       { return 1 }
func (Ld) Len() uint16         { return 1 }
func (RetCond) Len() uint16    { return 1 }
func (LdhMemA) Len() uint16    { return 2 }
func (AddSP) Len() uint16      { return 2 }
func (LdhAMem) Len() uint16    { return 2 }
func (LdHLSP) Len() uint16     { return 2 }
func (Pop) Len() uint16        { return 1 }
func (Ret) Len() uint16        { return 1 }
func (Reti) Len() uint16       { return 1 }
func (JpHL) Len() uint16       { return 1 }
func (LdSPHL) Len() uint16     { return 1 }
func (JpCond) Len() uint16     { return 3 }
func (LdhCA) Len() uint16      { return 1 }
func (LdMemA) Len() uint16     { return 3 }
func (LdhAC) Len() uint16      { return 1 }
func (LdAMem) Len() uint16     { return 3 }
func (Jp) Len() uint16         { return 3 }
func (Prefix) Len() uint16     { return 2 }
func (Invalid) Len() uint16    { return 1 }
func (Di) Len() uint16         { return 1 }
func (Ei) Len() uint16         { return 1 }
func (CallCond) Len() uint16   { return 3 }
func (Push) Len() uint16       { return 1 }
func (Call) Len() uint16       { return 3 }
func (Rst) Len() uint16        { return 1 }

// Len returns 2 for the immediate form and 1 for the register form.
func (i Alu) Len() uint16 {
	if i.Operand.Immediate {
		return 2
	}
	return 1
}

func (Nop) String() string       { return "NOP" }
func (i LdMemSP) String() string { return fmt.Sprintf("LD ($%04X),SP", i.Addr) }
func (Stop) String() string      { return "STOP" }
func (i Jr) String() string      { return fmt.Sprintf("JR %d", i.Offset) }
func (i JrCond) String() string  { return fmt.Sprintf("JR %s,%d", i.Cond, i.Offset) }
func (i LdPairImm) String() string {
	return fmt.Sprintf("LD %s,$%04X", i.Pair, i.Value)
}
func (i AddHL) String() string      { return "ADD HL," + i.Pair.String() }
func (i LdPairMemA) String() string { return fmt.Sprintf("LD (%s),A", i.Pair) }
func (i LdAPairMem) String() string { return fmt.Sprintf("LD A,(%s)", i.Pair) }
func (LdHLIncA) String() string     { return "LD (HL+),A" }
func (LdAHLInc) String() string     { return "LD A,(HL+)" }
func (LdHLDecA) String() string     { return "LD (HL-),A" }
func (LdAHLDec) String() string     { return "LD A,(HL-)" }
func (i IncPair) String() string    { return "INC " + i.Pair.String() }
func (i DecPair) String() string    { return "DEC " + i.Pair.String() }
func (i Inc) String() string        { return "INC " + i.Reg.String() }
func (i Dec) String() string        { return "DEC " + i.Reg.String() }
func (i LdImm) String() string      { return fmt.Sprintf("LD %s,$%02X", i.Reg, i.Value) }
func (Rlca) String() string         { return "RLCA" }
func (Rrca) String() string         { return "RRCA" }
func (Rla) String() string          { return "RLA" }
func (Rra) String() string          { return "RRA" }
func (Daa) String() string          { return "DAA" }
func (Cpl) String() string          { return "CPL" }
func (Scf) String() string          { return "SCF" }
func (Ccf) String() string          { return "CCF" }
func (Halt) String() string         { return "HALT" }
func (i Ld) String() string         { return fmt.Sprintf("LD %s,%s", i.Dst, i.Src) }
func (i Alu) String() string        { return fmt.Sprintf("%s A,%s", i.Op, i.Operand) }
func (i RetCond) String() string    { return "RET " + i.Cond.String() }
func (i LdhMemA) String() string    { return fmt.Sprintf("LDH ($%02X),A", i.Offset) }
func (i AddSP) String() string      { return fmt.Sprintf("ADD SP,%d", i.Offset) }
func (i LdhAMem) String() string    { return fmt.Sprintf("LDH A,($%02X)", i.Offset) }
func (i LdHLSP) String() string     { return fmt.Sprintf("LD HL,SP%+d", i.Offset) }
func (i Pop) String() string        { return "POP " + i.Pair.String() }
func (Ret) String() string          { return "RET" }
func (Reti) String() string         { return "RETI" }
func (JpHL) String() string         { return "JP HL" }
func (LdSPHL) String() string       { return "LD SP,HL" }
func (i JpCond) String() string     { return fmt.Sprintf("JP %s,$%04X", i.Cond, i.Addr) }
func (LdhCA) String() string        { return "LD (C),A" }
func (i LdMemA) String() string     { return fmt.Sprintf("LD ($%04X),A", i.Addr) }
func (LdhAC) String() string        { return "LD A,(C)" }
func (i LdAMem) String() string     { return fmt.Sprintf("LD A,($%04X)", i.Addr) }
func (i Jp) String() string         { return fmt.Sprintf("JP $%04X", i.Addr) }
func (i Invalid) String() string    { return fmt.Sprintf("INVALID $%02X", i.Opcode) }
func (Di) String() string           { return "DI" }
func (Ei) String() string           { return "EI" }
func (i CallCond) String() string   { return fmt.Sprintf("CALL %s,$%04X", i.Cond, i.Addr) }
func (i Push) String() string       { return "PUSH " + i.Pair.String() }
func (i Call) String() string       { return fmt.Sprintf("CALL $%04X", i.Addr) }
func (i Rst) String() string        { return fmt.Sprintf("RST $%02X", i.Vector) }

func (i Prefix) String() string {
	switch i.Op {
	case Bit, Res, Set:
		return fmt.Sprintf("%s %d,%s", i.Op, i.Bit, i.Reg)
	default:
		return fmt.Sprintf("%s %s", i.Op, i.Reg)
	}
}
