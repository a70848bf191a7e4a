package sm83

import "fmt"

// Condition is a branch predicate over the zero and carry flags.
type Condition uint8

// Conditions in the order of their 2-bit encoding field.
const (
	NZ Condition = iota
	Z
	NC
	CY // named CY to not collide with the C register
)

var conditionNames = [...]string{
	NZ: "NZ",
	Z:  "Z",
	NC: "NC",
	CY: "C",
}

// String returns the assembler name of the condition.
func (c Condition) String() string {
	if int(c) < len(conditionNames) {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", uint8(c))
}

// Not returns the logical negation of the condition.
func (c Condition) Not() Condition {
	return c ^ 1
}

// ConditionByNum returns the condition for a 2-bit encoding field.
func ConditionByNum(n uint8) (Condition, error) {
	if n > uint8(CY) {
		return 0, fmt.Errorf("%w: condition field %d", ErrDecodeGap, n)
	}
	return Condition(n), nil
}
