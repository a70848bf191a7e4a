package program

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestAddress_Type(t *testing.T) {
	addr := &Address{}

	addr.SetType(Entry)
	assert.True(t, addr.IsType(Entry))
	assert.False(t, addr.IsType(CallDestination))

	addr.SetType(CallDestination)
	assert.True(t, addr.IsType(Entry))
	assert.True(t, addr.IsType(CallDestination))

	addr.ClearType(Entry)
	assert.False(t, addr.IsType(Entry))
	assert.True(t, addr.IsType(CallDestination|ReturnAddress))
}

func TestProgram_DispatchTargets(t *testing.T) {
	prg := New()
	prg.AddAddress(0x0150, "sm83_0150").SetType(Entry)
	prg.AddAddress(0x0153, "sm83_0153")
	prg.AddAddress(0x0200, "sm83_0200").SetType(CallDestination)
	prg.AddAddress(0x0156, "sm83_0156").SetType(ReturnAddress)

	again := prg.AddAddress(0x0200, "ignored")
	assert.Equal(t, "sm83_0200", again.Label)

	assert.Equal(t, []uint16{0x0150, 0x0156, 0x0200}, prg.DispatchTargets())

	label, ok := prg.Label(0x0153)
	assert.True(t, ok)
	assert.Equal(t, "sm83_0153", label)
	_, ok = prg.Label(0x0154)
	assert.False(t, ok)
}
