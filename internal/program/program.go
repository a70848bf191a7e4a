// Package program represents a translated SM83 program.
package program

import (
	"maps"
	"slices"

	"github.com/retroenv/sm83translate/internal/arch/amd64"
)

// Address contains the translation details of a source address that starts a
// translated instruction.
type Address struct {
	Label string // host label of the translated instruction

	Type AddressType
}

// Block is a translated block of source instructions.
type Block struct {
	Start uint16
	End   int // address after the last instruction

	HostStart int // index of the first host instruction in Code
	HostEnd   int // index after the last host instruction in Code

	Fingerprint uint64 // hash of the source bytes
	Stitched    bool
}

// Externals defines the runtime routines that the translated code jumps to.
type Externals struct {
	Lockup   string
	Dispatch string
}

// Program defines a translated program.
type Program struct {
	Entries []uint16
	Blocks  []Block
	Code    []amd64.Instruction // host code of all blocks in translation order

	Addresses map[uint16]*Address
	Externals Externals

	Checksum uint64 // hash over the source bytes of all blocks in address order
}

// New creates a new empty program.
func New() *Program {
	return &Program{
		Addresses: map[uint16]*Address{},
	}
}

// AddAddress returns the address details of a source address, creating it if needed.
func (p *Program) AddAddress(address uint16, label string) *Address {
	addr, ok := p.Addresses[address]
	if !ok {
		addr = &Address{Label: label}
		p.Addresses[address] = addr
	}
	return addr
}

// Label returns the host label of a translated source address.
func (p *Program) Label(address uint16) (string, bool) {
	addr, ok := p.Addresses[address]
	if !ok {
		return "", false
	}
	return addr.Label, true
}

// DispatchTargets returns the sorted source addresses that the runtime dispatcher
// can transfer control to, these are all entries, jump and call destinations and
// return addresses.
func (p *Program) DispatchTargets() []uint16 {
	var targets []uint16
	for _, address := range slices.Sorted(maps.Keys(p.Addresses)) {
		if p.Addresses[address].IsType(Entry | JumpDestination | CallDestination | ReturnAddress) {
			targets = append(targets, address)
		}
	}
	return targets
}

// ExternalNames returns the names of all runtime routines.
func (p *Program) ExternalNames() []string {
	return []string{p.Externals.Lockup, p.Externals.Dispatch}
}
