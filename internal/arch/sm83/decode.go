package sm83

// PrefixOpcode is the first byte of the two byte bit operation sub table.
const PrefixOpcode = 0xCB

// MaxInstructionLen is the longest encoding of an instruction in bytes.
const MaxInstructionLen = 3

// invalidOpcodes is the set of first bytes that the CPU does not define.
var invalidOpcodes = [256]bool{
	0xD3: true, 0xDB: true, 0xDD: true,
	0xE3: true, 0xE4: true, 0xEB: true, 0xEC: true, 0xED: true,
	0xF4: true, 0xFC: true, 0xFD: true,
}

// IsInvalidOpcode returns whether the first byte of an instruction is not defined by the CPU.
func IsInvalidOpcode(opcode byte) bool {
	return invalidOpcodes[opcode]
}

// fields contains the operand fields that are extracted from the first byte.
// The encoding is best read as octal: the column digit (bits 3-5) and the row
// digit (bits 0-2) each select a register.
type fields struct {
	r1   Register  // bits 3-5
	r2   Register  // bits 0-2
	rr   Pair      // bits 4-5, BC/DE/HL/SP group
	qq   Pair      // bits 4-5, BC/DE/HL/AF group
	cond Condition // bits 3-4
}

func extractFields(op byte) fields {
	return fields{
		r1:   mustRegister(op >> 3 & 7),
		r2:   mustRegister(op & 7),
		rr:   mustPair(PairByNum(op >> 4 & 3)),
		qq:   mustPair(StackPairByNum(op >> 4 & 3)),
		cond: mustCondition(op >> 3 & 3),
	}
}

// Decode decodes the instruction that starts with the first byte of b. Unused
// trailing bytes are ignored. Decode is total, every byte pattern results in
// an instruction.
func Decode(b [MaxInstructionLen]byte) Instruction {
	op := b[0]
	d8 := b[1]
	d16 := uint16(b[1]) | uint16(b[2])<<8
	r8 := int8(b[1])
	f := extractFields(op)

	if invalidOpcodes[op] {
		return Invalid{Opcode: op}
	}

	switch {
	case op == 0o166:
		return Halt{}
	case op >= 0o100 && op <= 0o177:
		return Ld{Dst: f.r1, Src: f.r2}
	case op >= 0o200 && op <= 0o277:
		return Alu{Op: AluOp(op >> 3 & 7), Operand: RegOperand(f.r2)}
	case op < 0o100:
		return decodeBlock0(op, f, d8, d16, r8)
	default:
		return decodeBlock3(op, f, b[1], d8, d16, r8)
	}
}

// decodeBlock0 decodes the opcodes 0o000 - 0o077.
func decodeBlock0(op byte, f fields, d8 uint8, d16 uint16, r8 int8) Instruction {
	switch op & 7 {
	case 0:
		switch op {
		case 0o000:
			return Nop{}
		case 0o010:
			return LdMemSP{Addr: d16}
		case 0o020:
			return Stop{Arg: d8}
		case 0o030:
			return Jr{Offset: r8}
		default:
			return JrCond{Cond: f.cond, Offset: r8}
		}

	case 1:
		if op&0o010 == 0 {
			return LdPairImm{Pair: f.rr, Value: d16}
		}
		return AddHL{Pair: f.rr}

	case 2:
		switch op {
		case 0o002, 0o022:
			return LdPairMemA{Pair: f.rr}
		case 0o012, 0o032:
			return LdAPairMem{Pair: f.rr}
		case 0o042:
			return LdHLIncA{}
		case 0o052:
			return LdAHLInc{}
		case 0o062:
			return LdHLDecA{}
		default:
			return LdAHLDec{}
		}

	case 3:
		if op&0o010 == 0 {
			return IncPair{Pair: f.rr}
		}
		return DecPair{Pair: f.rr}

	case 4:
		return Inc{Reg: f.r1}

	case 5:
		return Dec{Reg: f.r1}

	case 6:
		return LdImm{Reg: f.r1, Value: d8}

	default:
		return [...]Instruction{Rlca{}, Rrca{}, Rla{}, Rra{}, Daa{}, Cpl{}, Scf{}, Ccf{}}[op>>3&7]
	}
}

// decodeBlock3 decodes the opcodes 0o300 - 0o377.
func decodeBlock3(op byte, f fields, prefixed byte, d8 uint8, d16 uint16, r8 int8) Instruction {
	switch op & 7 {
	case 0:
		switch op {
		case 0o340:
			return LdhMemA{Offset: d8}
		case 0o350:
			return AddSP{Offset: r8}
		case 0o360:
			return LdhAMem{Offset: d8}
		case 0o370:
			return LdHLSP{Offset: r8}
		default:
			return RetCond{Cond: f.cond}
		}

	case 1:
		switch op {
		case 0o311:
			return Ret{}
		case 0o331:
			return Reti{}
		case 0o351:
			return JpHL{}
		case 0o371:
			return LdSPHL{}
		default:
			return Pop{Pair: f.qq}
		}

	case 2:
		switch op {
		case 0o342:
			return LdhCA{}
		case 0o352:
			return LdMemA{Addr: d16}
		case 0o362:
			return LdhAC{}
		case 0o372:
			return LdAMem{Addr: d16}
		default:
			return JpCond{Cond: f.cond, Addr: d16}
		}

	case 3:
		switch op {
		case 0o303:
			return Jp{Addr: d16}
		case PrefixOpcode:
			return DecodePrefixed(prefixed)
		case 0o363:
			return Di{}
		default:
			return Ei{}
		}

	case 4:
		return CallCond{Cond: f.cond, Addr: d16}

	case 5:
		if op == 0o315 {
			return Call{Addr: d16}
		}
		return Push{Pair: f.qq}

	case 6:
		return Alu{Op: AluOp(op >> 3 & 7), Operand: ImmOperand(d8)}

	default:
		return Rst{Vector: op & 0o070}
	}
}

// DecodePrefixed decodes the second byte of a 0xCB prefixed instruction.
func DecodePrefixed(op byte) Instruction {
	reg := mustRegister(op & 7)
	bit := op >> 3 & 7

	switch op >> 6 {
	case 0:
		return Prefix{Op: PrefixOp(bit), Reg: reg}
	case 1:
		return Prefix{Op: Bit, Bit: bit, Reg: reg}
	case 2:
		return Prefix{Op: Res, Bit: bit, Reg: reg}
	default:
		return Prefix{Op: Set, Bit: bit, Reg: reg}
	}
}

// Fetch returns the instruction window at the given address of a memory buffer
// that is at least MaxInstructionLen-1 bytes larger than the address space.
func Fetch(memory []byte, address uint16) [MaxInstructionLen]byte {
	var b [MaxInstructionLen]byte
	copy(b[:], memory[address:])
	return b
}

// Disassemble decodes the instruction at the given address and returns it
// together with its encoded bytes.
func Disassemble(memory []byte, address uint16) (Instruction, []byte) {
	ins := Decode(Fetch(memory, address))
	end := min(int(address)+int(ins.Len()), len(memory))
	return ins, memory[address:end]
}

func mustRegister(n uint8) Register {
	r, err := RegisterByNum(n)
	if err != nil {
		panic(err)
	}
	return r
}

func mustPair(p Pair, err error) Pair {
	if err != nil {
		panic(err)
	}
	return p
}

func mustCondition(n uint8) Condition {
	c, err := ConditionByNum(n)
	if err != nil {
		panic(err)
	}
	return c
}
