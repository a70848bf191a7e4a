package program

// AddressType defines the roles of a translated source address.
type AddressType uint8

// address roles.
const (
	UnknownAddress  AddressType = 0
	Entry           AddressType = 1 << iota
	JumpDestination             // destination of a jump or branch
	CallDestination             // destination of a call, indicating a subroutine
	ReturnAddress               // instruction following a call
)

// IsType returns whether the address has any of the given types.
func (a *Address) IsType(typ AddressType) bool {
	return a.Type&typ != 0
}

// SetType sets the type of the address.
func (a *Address) SetType(typ AddressType) {
	a.Type |= typ
}

// ClearType unsets the type of the address.
func (a *Address) ClearType(typ AddressType) {
	a.Type &^= typ
}
