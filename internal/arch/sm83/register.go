// Package sm83 contains the source instruction set model of the SM83 CPU used by the
// Game Boy: its register file, branch conditions, the decoded instruction variants and
// the decoder that produces them.
package sm83

import (
	"errors"
	"fmt"
)

// ErrDecodeGap is returned when an encoding field does not map to any operand.
// The decoder masks all fields, so this signals a programming error.
var ErrDecodeGap = errors.New("decode gap")

// Register is an 8-bit operand of the SM83 instruction encoding.
type Register uint8

// Registers in the order of their 3-bit encoding field. HLInd is a pseudo register
// that denotes the byte at the address held by the HL pair. F is not addressable
// by any 8-bit operand field.
const (
	B Register = iota
	C
	D
	E
	H
	L
	HLInd
	A
	F
)

// Pair is a 16-bit operand of the SM83 instruction encoding.
type Pair uint8

// Pairs in the order of their 2-bit encoding field, AF is only encoded by push and pop.
const (
	BC Pair = iota
	DE
	HL
	SP
	AF
)

var registerNames = [...]string{
	B:     "B",
	C:     "C",
	D:     "D",
	E:     "E",
	H:     "H",
	L:     "L",
	HLInd: "[HL]",
	A:     "A",
	F:     "F",
}

var pairNames = [...]string{
	BC: "BC",
	DE: "DE",
	HL: "HL",
	SP: "SP",
	AF: "AF",
}

type pairRef struct {
	pair  Pair
	valid bool
}

type pairParts struct {
	high, low Register
	valid     bool
}

// registerPairs maps each register to the pair that it is a part of.
var registerPairs = [...]pairRef{
	B:     {BC, true},
	C:     {BC, true},
	D:     {DE, true},
	E:     {DE, true},
	H:     {HL, true},
	L:     {HL, true},
	HLInd: {},
	A:     {AF, true},
	F:     {AF, true},
}

// partsOfPair maps each pair to its high and low byte registers.
var partsOfPair = [...]pairParts{
	BC: {B, C, true},
	DE: {D, E, true},
	HL: {H, L, true},
	SP: {},
	AF: {A, F, true},
}

// String returns the assembler name of the register.
func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// Pair returns the pair that the register is the high or low byte of.
func (r Register) Pair() (Pair, bool) {
	if int(r) >= len(registerPairs) {
		return 0, false
	}
	ref := registerPairs[r]
	return ref.pair, ref.valid
}

// IsHigh returns whether the register is the high byte of its pair.
func (r Register) IsHigh() bool {
	pair, ok := r.Pair()
	if !ok {
		return false
	}
	high, _, _ := pair.Parts()
	return high == r
}

// String returns the assembler name of the pair.
func (p Pair) String() string {
	if int(p) < len(pairNames) {
		return pairNames[p]
	}
	return fmt.Sprintf("Pair(%d)", uint8(p))
}

// Parts returns the high and low byte registers of the pair. The stack pointer
// is not byte addressable and returns false.
func (p Pair) Parts() (high, low Register, ok bool) {
	if int(p) >= len(partsOfPair) {
		return 0, 0, false
	}
	parts := partsOfPair[p]
	return parts.high, parts.low, parts.valid
}

// RegisterByNum returns the register for a 3-bit operand encoding field.
func RegisterByNum(n uint8) (Register, error) {
	if n > uint8(A) {
		return 0, fmt.Errorf("%w: register field %d", ErrDecodeGap, n)
	}
	return Register(n), nil
}

// PairByNum returns the pair for a 2-bit operand field of the BC/DE/HL/SP group.
func PairByNum(n uint8) (Pair, error) {
	if n > uint8(SP) {
		return 0, fmt.Errorf("%w: pair field %d", ErrDecodeGap, n)
	}
	return Pair(n), nil
}

// StackPairByNum returns the pair for a 2-bit operand field of the BC/DE/HL/AF group
// that is used by push and pop.
func StackPairByNum(n uint8) (Pair, error) {
	switch {
	case n == 3:
		return AF, nil
	case n < 3:
		return Pair(n), nil
	default:
		return 0, fmt.Errorf("%w: stack pair field %d", ErrDecodeGap, n)
	}
}
