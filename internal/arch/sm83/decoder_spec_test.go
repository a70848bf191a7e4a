package sm83_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

var _ = Describe("Decoder", func() {
	var memory []byte

	BeforeEach(func() {
		memory = make([]byte, 0x10000+2)
	})

	Describe("16-bit immediates", func() {
		// LD BC,$1234 -> 01 34 12
		It("should decode little endian operands", func() {
			ins := sm83.Decode([3]byte{0x01, 0x34, 0x12})

			Expect(ins).To(Equal(sm83.LdPairImm{Pair: sm83.BC, Value: 0x1234}))
			Expect(ins.Len()).To(Equal(uint16(3)))
		})

		// JP $0200 -> C3 00 02
		It("should decode an absolute jump", func() {
			copy(memory[0x0150:], []byte{0xc3, 0x00, 0x02})

			ins, data := sm83.Disassemble(memory, 0x0150)

			Expect(ins).To(Equal(sm83.Jp{Addr: 0x0200}))
			Expect(data).To(Equal([]byte{0xc3, 0x00, 0x02}))
		})
	})

	Describe("Relative jumps", func() {
		It("should sign extend the displacement", func() {
			Expect(sm83.Decode([3]byte{0x18, 0xfe})).To(Equal(sm83.Jr{Offset: -2}))
			Expect(sm83.Decode([3]byte{0x18, 0x7f})).To(Equal(sm83.Jr{Offset: 127}))
		})

		It("should select the condition from bits 3 and 4", func() {
			Expect(sm83.Decode([3]byte{0x20})).To(Equal(sm83.JrCond{Cond: sm83.NZ}))
			Expect(sm83.Decode([3]byte{0x28})).To(Equal(sm83.JrCond{Cond: sm83.Z}))
			Expect(sm83.Decode([3]byte{0x30})).To(Equal(sm83.JrCond{Cond: sm83.NC}))
			Expect(sm83.Decode([3]byte{0x38})).To(Equal(sm83.JrCond{Cond: sm83.CY}))
		})
	})

	Describe("Stack operations", func() {
		It("should decode pop for the 0xC1 column", func() {
			Expect(sm83.Decode([3]byte{0xc1})).To(Equal(sm83.Pop{Pair: sm83.BC}))
			Expect(sm83.Decode([3]byte{0xd1})).To(Equal(sm83.Pop{Pair: sm83.DE}))
			Expect(sm83.Decode([3]byte{0xe1})).To(Equal(sm83.Pop{Pair: sm83.HL}))
			Expect(sm83.Decode([3]byte{0xf1})).To(Equal(sm83.Pop{Pair: sm83.AF}))
		})

		It("should decode push for the 0xC5 column", func() {
			Expect(sm83.Decode([3]byte{0xc5})).To(Equal(sm83.Push{Pair: sm83.BC}))
			Expect(sm83.Decode([3]byte{0xf5})).To(Equal(sm83.Push{Pair: sm83.AF}))
		})

		It("should decode restart vectors", func() {
			for vector := 0; vector < 0x40; vector += 8 {
				Expect(sm83.Decode([3]byte{byte(0xc7 + vector)})).To(Equal(sm83.Rst{Vector: uint8(vector)}))
			}
		})
	})

	Describe("Prefixed instructions", func() {
		It("should decode rotates and shifts", func() {
			Expect(sm83.Decode([3]byte{0xcb, 0x11})).To(Equal(sm83.Prefix{Op: sm83.Rl, Reg: sm83.C}))
			Expect(sm83.Decode([3]byte{0xcb, 0x2f})).To(Equal(sm83.Prefix{Op: sm83.Sra, Reg: sm83.A}))
		})

		It("should decode bit operations", func() {
			ins := sm83.Decode([3]byte{0xcb, 0x46})

			Expect(ins).To(Equal(sm83.Prefix{Op: sm83.Bit, Bit: 0, Reg: sm83.HLInd}))
			Expect(ins.Len()).To(Equal(uint16(2)))
			Expect(ins.String()).To(Equal("BIT 0,[HL]"))
		})
	})

	Describe("Undefined opcodes", func() {
		It("should decode every undefined opcode as invalid", func() {
			for _, op := range []byte{0xd3, 0xdb, 0xdd, 0xe3, 0xe4, 0xeb, 0xec, 0xed, 0xf4, 0xfc, 0xfd} {
				ins := sm83.Decode([3]byte{op, 0x00, 0x00})

				Expect(ins).To(Equal(sm83.Invalid{Opcode: op}))
				Expect(ins.Len()).To(Equal(uint16(1)))
			}
		})
	})
})
