package translate

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/retroenv/sm83translate/internal/arch/amd64"
)

// Host flag bits in the image that LAHF loads into AH.
const (
	imageCF = 0x01
	imagePF = 0x04
	imageAF = 0x10
	imageZF = 0x40
	imageSF = 0x80
)

// hostMachine executes the subset of amd64 instructions that the translated
// sequences consist of. Flags that the host CPU leaves undefined are set, a
// sequence that reads them produces wrong results.
type hostMachine struct {
	regs [16]uint64
	mem  []byte

	cf, pf, af, zf, sf bool
	flagStack          []uint8

	exit string // label outside of the sequence that execution jumped to
}

// cpuState is the source CPU state that is compared after execution.
type cpuState struct {
	A, F, B, C, D, E, H, L uint8
	SP                     uint16
}

func (s cpuState) String() string {
	return fmt.Sprintf("A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X",
		s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L, s.SP)
}

// newHostMachine loads the source state into the bound host registers. The
// unbound parts of every register contain garbage, the memory base is zero.
func newHostMachine(s cpuState, mem []byte) *hostMachine {
	m := &hostMachine{mem: mem}
	for i := range m.regs {
		m.regs[i] = 0x5a5aa5a5_c3c30000 | uint64(i)<<8 | uint64(i)
	}
	m.regs[regIndex(amd64.RBP)] = 0

	var shadow uint64
	if s.F&flagN != 0 {
		shadow = shadowN
	}
	m.setReg(amd64.AL, uint64(s.A))
	m.setReg(amd64.AH, shadow)
	m.setReg(amd64.BX, uint64(s.B)<<8|uint64(s.C))
	m.setReg(amd64.CX, uint64(s.D)<<8|uint64(s.E))
	m.setReg(amd64.DX, uint64(s.H)<<8|uint64(s.L))
	m.setReg(amd64.DI, uint64(s.SP))

	m.zf = s.F&flagZ != 0
	m.af = s.F&flagH != 0
	m.cf = s.F&flagC != 0
	m.pf, m.sf = true, true
	return m
}

// state reads the source state back from the bound host registers.
func (m *hostMachine) state(t *testing.T) cpuState {
	t.Helper()

	shadow := m.reg(amd64.AH)
	if shadow != 0 && shadow != shadowN {
		t.Fatalf("N shadow contains $%02X", shadow)
	}

	s := cpuState{
		A:  uint8(m.reg(amd64.AL)),
		B:  uint8(m.reg(amd64.BH)),
		C:  uint8(m.reg(amd64.BL)),
		D:  uint8(m.reg(amd64.CH)),
		E:  uint8(m.reg(amd64.CL)),
		H:  uint8(m.reg(amd64.DH)),
		L:  uint8(m.reg(amd64.DL)),
		SP: uint16(m.reg(amd64.DI)),
	}
	if m.zf {
		s.F |= flagZ
	}
	if shadow != 0 {
		s.F |= flagN
	}
	if m.af {
		s.F |= flagH
	}
	if m.cf {
		s.F |= flagC
	}
	return s
}

// run executes the code until its end or until a jump leaves it.
func (m *hostMachine) run(t *testing.T, code []amd64.Instruction) {
	t.Helper()

	labels := map[string]int{}
	for i, ins := range code {
		if ins.IsLabel() {
			labels[ins.Target] = i
		}
	}

	for pc := 0; pc < len(code); pc++ {
		ins := code[pc]
		switch {
		case ins.IsLabel():

		case ins.Op.IsJump():
			if !m.condition(t, ins.Op) {
				continue
			}
			target, ok := labels[ins.Target]
			if !ok {
				m.exit = ins.Target
				return
			}
			pc = target

		default:
			if err := ins.Validate(); err != nil {
				t.Fatalf("'%s' can not be encoded: %v", ins, err)
			}
			m.execute(t, ins)
		}
	}
}

func (m *hostMachine) condition(t *testing.T, op amd64.Mnemonic) bool {
	t.Helper()

	switch op {
	case amd64.Jmp:
		return true
	case amd64.Jz:
		return m.zf
	case amd64.Jnz:
		return !m.zf
	case amd64.Jb:
		return m.cf
	case amd64.Jnb:
		return !m.cf
	case amd64.Jbe:
		return m.cf || m.zf
	default:
		t.Fatalf("unsupported jump %s", op)
		return false
	}
}

func (m *hostMachine) execute(t *testing.T, ins amd64.Instruction) {
	t.Helper()

	var dst, src amd64.Operand
	if len(ins.Args) > 0 {
		dst = ins.Args[0]
	}
	if len(ins.Args) > 1 {
		src = ins.Args[1]
	}
	size := operandSize(dst)

	switch ins.Op {
	case amd64.Mov:
		m.write(dst, m.read(src, size))
	case amd64.Movzx:
		m.write(dst, m.read(src, operandSize(src)))
	case amd64.Lea:
		m.write(dst, m.address(src))

	case amd64.Add, amd64.Adc:
		a, b := m.read(dst, size), m.read(src, size)
		c := carryValue(ins.Op == amd64.Adc && m.cf)
		result := a + b + c
		m.arithmeticFlags(a, b, result, size)
		m.cf = result>>(8*size) != 0
		m.write(dst, result)

	case amd64.Sub, amd64.Sbb, amd64.Cmp:
		a, b := m.read(dst, size), m.read(src, size)
		c := carryValue(ins.Op == amd64.Sbb && m.cf)
		result := a - b - c
		m.arithmeticFlags(a, b, result, size)
		m.cf = a < b+c
		if ins.Op != amd64.Cmp {
			m.write(dst, result)
		}

	case amd64.Inc, amd64.Dec:
		a := m.read(dst, size)
		result := a + 1
		if ins.Op == amd64.Dec {
			result = a - 1
		}
		m.arithmeticFlags(a, 1, result, size)
		m.write(dst, result)

	case amd64.And, amd64.Or, amd64.Xor, amd64.Test:
		a, b := m.read(dst, size), m.read(src, size)
		var result uint64
		switch ins.Op {
		case amd64.Or:
			result = a | b
		case amd64.Xor:
			result = a ^ b
		default:
			result = a & b
		}
		m.resultFlags(result, size)
		m.cf = false
		m.af = true // undefined
		if ins.Op != amd64.Test {
			m.write(dst, result)
		}

	case amd64.Not:
		m.write(dst, ^m.read(dst, size))

	case amd64.Shl, amd64.Shr, amd64.Sar:
		m.shift(ins.Op, dst, size, m.read(src, 1)&0x1f)
	case amd64.Rol, amd64.Ror, amd64.Rcl, amd64.Rcr:
		m.rotate(ins.Op, dst, size, m.read(src, 1)&0x1f)

	case amd64.Lahf:
		m.setReg(amd64.AH, uint64(m.flagsImage()))
	case amd64.Sahf:
		m.setFlagsImage(uint8(m.reg(amd64.AH)))
	case amd64.Pushfq:
		m.flagStack = append(m.flagStack, m.flagsImage())
	case amd64.Popfq:
		n := len(m.flagStack) - 1
		if n < 0 {
			t.Fatal("popfq without pushfq")
		}
		m.setFlagsImage(m.flagStack[n])
		m.flagStack = m.flagStack[:n]
	case amd64.Setc:
		m.write(dst, carryValue(m.cf))
	case amd64.Cmc:
		m.cf = !m.cf

	default:
		t.Fatalf("unsupported host instruction '%s'", ins)
	}
}

func (m *hostMachine) shift(op amd64.Mnemonic, dst amd64.Operand, size int, count uint64) {
	if count == 0 {
		return
	}

	width := uint64(8 * size)
	a := m.read(dst, size)
	var result uint64
	switch op {
	case amd64.Shl:
		m.cf = a>>(width-count)&1 == 1
		result = a << count
	case amd64.Shr:
		m.cf = a>>(count-1)&1 == 1
		result = a >> count
	default:
		signed := int64(a<<(64-width)) >> (64 - width)
		m.cf = signed>>(count-1)&1 == 1
		result = uint64(signed >> count)
	}
	m.resultFlags(result, size)
	m.af = true // undefined
	m.write(dst, result)
}

func (m *hostMachine) rotate(op amd64.Mnemonic, dst amd64.Operand, size int, count uint64) {
	width := uint64(8 * size)
	mask := sizeMask(size)
	v := m.read(dst, size)

	for range count {
		msb := v>>(width-1)&1 == 1
		lsb := v&1 == 1
		switch op {
		case amd64.Rol:
			v = (v<<1 | carryValue(msb)) & mask
			m.cf = msb
		case amd64.Ror:
			v = v>>1 | carryValue(lsb)<<(width-1)
			m.cf = lsb
		case amd64.Rcl:
			v = (v<<1 | carryValue(m.cf)) & mask
			m.cf = msb
		default:
			v = v>>1 | carryValue(m.cf)<<(width-1)
			m.cf = lsb
		}
	}
	m.write(dst, v)
}

func (m *hostMachine) arithmeticFlags(a, b, result uint64, size int) {
	m.resultFlags(result, size)
	m.af = (a^b^result)&0x10 != 0
}

func (m *hostMachine) resultFlags(result uint64, size int) {
	result &= sizeMask(size)
	m.zf = result == 0
	m.sf = result>>(8*size-1)&1 == 1
	m.pf = bits.OnesCount8(uint8(result))%2 == 0
}

func (m *hostMachine) flagsImage() uint8 {
	image := uint8(0x02)
	for _, f := range []struct {
		set bool
		bit uint8
	}{
		{m.cf, imageCF}, {m.pf, imagePF}, {m.af, imageAF}, {m.zf, imageZF}, {m.sf, imageSF},
	} {
		if f.set {
			image |= f.bit
		}
	}
	return image
}

func (m *hostMachine) setFlagsImage(image uint8) {
	m.cf = image&imageCF != 0
	m.pf = image&imagePF != 0
	m.af = image&imageAF != 0
	m.zf = image&imageZF != 0
	m.sf = image&imageSF != 0
}

func regIndex(r amd64.Register) int {
	return int(r.Physical() - amd64.RAX)
}

func (m *hostMachine) reg(r amd64.Register) uint64 {
	v := m.regs[regIndex(r)]
	if r.IsHighByte() {
		return v >> 8 & 0xff
	}
	return v & sizeMask(r.Size())
}

// setReg writes a register view, a write to a 32-bit view clears the upper half.
func (m *hostMachine) setReg(r amd64.Register, v uint64) {
	i := regIndex(r)
	switch {
	case r.IsHighByte():
		m.regs[i] = m.regs[i]&^0xff00 | (v&0xff)<<8
	case r.Size() == 4:
		m.regs[i] = v & 0xffffffff
	default:
		mask := sizeMask(r.Size())
		m.regs[i] = m.regs[i]&^mask | v&mask
	}
}

func (m *hostMachine) address(o amd64.Operand) uint64 {
	var address uint64
	if o.Base != amd64.NoRegister {
		address += m.regs[regIndex(o.Base)]
	}
	if o.Index != amd64.NoRegister {
		address += m.regs[regIndex(o.Index)]
	}
	return address + uint64(int64(o.Disp))
}

func (m *hostMachine) read(o amd64.Operand, size int) uint64 {
	switch o.Kind {
	case amd64.RegisterOperand:
		return m.reg(o.Reg)
	case amd64.ImmediateOperand:
		return uint64(o.Imm) & sizeMask(size)
	default:
		address := m.address(o)
		var v uint64
		for i := range size {
			v |= uint64(m.mem[address+uint64(i)]) << (8 * i)
		}
		return v
	}
}

func (m *hostMachine) write(o amd64.Operand, v uint64) {
	if o.Kind == amd64.RegisterOperand {
		m.setReg(o.Reg, v)
		return
	}
	address := m.address(o)
	for i := range o.Size {
		m.mem[address+uint64(i)] = uint8(v >> (8 * i))
	}
}

func operandSize(o amd64.Operand) int {
	if o.Kind == amd64.RegisterOperand {
		return o.Reg.Size()
	}
	return o.Size
}

func sizeMask(size int) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return 1<<(8*size) - 1
}

func carryValue(set bool) uint64 {
	if set {
		return 1
	}
	return 0
}
