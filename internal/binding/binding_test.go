package binding

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
)

func TestPairSiblings(t *testing.T) {
	for _, pair := range []sm83.Pair{sm83.BC, sm83.DE, sm83.HL} {
		host, ok := Pair(pair)
		assert.True(t, ok)
		assert.Equal(t, 2, host.Size())

		high, low, ok := pair.Parts()
		assert.True(t, ok)

		hostHigh, ok := Register(high)
		assert.True(t, ok)
		hostLow, ok := Register(low)
		assert.True(t, ok)

		expectedHigh, _ := host.HighByte()
		expectedLow, _ := host.LowByte()
		assert.Equal(t, expectedHigh, hostHigh, pair.String())
		assert.Equal(t, expectedLow, hostLow, pair.String())
	}
}

func TestRegister(t *testing.T) {
	reg, ok := Register(sm83.A)
	assert.True(t, ok)
	assert.Equal(t, amd64.AL, reg)

	reg, ok = Register(sm83.F)
	assert.True(t, ok)
	assert.Equal(t, amd64.AH, reg)

	_, ok = Register(sm83.HLInd)
	assert.False(t, ok)

	sp, ok := Pair(sm83.SP)
	assert.True(t, ok)
	assert.Equal(t, amd64.DI, sp)

	_, ok = Pair(sm83.AF)
	assert.False(t, ok)
}

func TestReservedRegistersAreNotBound(t *testing.T) {
	for _, reg := range []amd64.Register{AddressIndex, amd64.RSP, amd64.R8, amd64.R9, amd64.R10, amd64.R11} {
		assert.True(t, IsReserved(reg), reg.String())
		assert.False(t, IsBound(reg), reg.String())
	}

	assert.False(t, IsBound(DefaultMemoryBase))
	assert.False(t, IsReserved(DefaultMemoryBase))
	assert.True(t, IsBound(amd64.EDX))
	assert.True(t, IsBound(amd64.RDI))
}
