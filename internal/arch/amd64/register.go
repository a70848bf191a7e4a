// Package amd64 contains a symbolic model of the amd64 instructions that the
// translator emits. Encoding into machine code is left to an assembler.
package amd64

import "fmt"

// Register is a view of one of the 16 general purpose registers.
type Register uint8

// Registers grouped by view size. Inside every group the registers are ordered
// by their hardware number, the high byte registers follow last.
const (
	NoRegister Register = iota

	RAX
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	EAX
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D

	AX
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	R8W
	R9W
	R10W
	R11W
	R12W
	R13W
	R14W
	R15W

	AL
	CL
	DL
	BL
	SPL
	BPL
	SIL
	DIL
	R8B
	R9B
	R10B
	R11B
	R12B
	R13B
	R14B
	R15B

	AH
	CH
	DH
	BH
)

const registersPerView = 16

var names64 = [registersPerView]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

var names32 = [registersPerView]string{
	"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi",
	"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
}

var names16 = [registersPerView]string{
	"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
	"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
}

var names8 = [registersPerView]string{
	"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil",
	"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
}

var namesHigh = [4]string{"ah", "ch", "dh", "bh"}

// viewSizes contains the operand size in bytes of every view group.
var viewSizes = [...]int{8, 4, 2, 1, 1}

func (r Register) valid() bool {
	return r > NoRegister && r <= BH
}

func (r Register) group() int {
	return int(r-1) / registersPerView
}

// number returns the hardware number of the physical register.
func (r Register) number() int {
	if r.IsHighByte() {
		return int(r - AH)
	}
	return int(r-1) % registersPerView
}

// String returns the Intel syntax name of the register.
func (r Register) String() string {
	if !r.valid() {
		return fmt.Sprintf("Register(%d)", uint8(r))
	}

	n := r.number()
	switch r.group() {
	case 0:
		return names64[n]
	case 1:
		return names32[n]
	case 2:
		return names16[n]
	case 3:
		return names8[n]
	default:
		return namesHigh[n]
	}
}

// Size returns the size of the register view in bytes.
func (r Register) Size() int {
	if !r.valid() {
		return 0
	}
	return viewSizes[r.group()]
}

// IsHighByte returns whether the register is one of AH, CH, DH or BH.
func (r Register) IsHighByte() bool {
	return r >= AH && r <= BH
}

// Physical returns the 64-bit view of the register.
func (r Register) Physical() Register {
	if !r.valid() {
		return NoRegister
	}
	return RAX + Register(r.number())
}

// NeedsREX returns whether encoding the register requires a REX prefix. This is
// the case for R8-R15 in every view and for the low byte views of RSP, RBP, RSI
// and RDI.
func (r Register) NeedsREX() bool {
	if !r.valid() || r.IsHighByte() {
		return false
	}
	n := r.number()
	if n >= 8 {
		return true
	}
	return r.group() == 3 && n >= 4
}

// IsLegacy returns whether the register can be encoded without a REX prefix
// for its 64-bit view.
func (r Register) IsLegacy() bool {
	return r.valid() && r.number() < 8
}

// View returns the view of the physical register with the given size in bytes.
// The high byte registers are only returned by HighByte.
func (r Register) View(size int) (Register, bool) {
	if !r.valid() {
		return NoRegister, false
	}

	n := Register(r.number())
	switch size {
	case 8:
		return RAX + n, true
	case 4:
		return EAX + n, true
	case 2:
		return AX + n, true
	case 1:
		return AL + n, true
	default:
		return NoRegister, false
	}
}

// HighByte returns the register that addresses bits 8-15 of the physical
// register. Only RAX, RCX, RDX and RBX have one.
func (r Register) HighByte() (Register, bool) {
	if !r.valid() {
		return NoRegister, false
	}
	n := r.number()
	if n >= len(namesHigh) {
		return NoRegister, false
	}
	return AH + Register(n), true
}

// LowByte returns the register that addresses bits 0-7 of the physical register.
func (r Register) LowByte() (Register, bool) {
	return r.View(1)
}
