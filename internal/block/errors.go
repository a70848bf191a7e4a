package block

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrSelfModifyingCode is returned for code that is located in or decoded into
	// writable memory or that changed after it was translated.
	ErrSelfModifyingCode = errors.New("self-modifying code")
	// ErrMemorySize is returned for an address space buffer of the wrong size.
	ErrMemorySize = errors.New("invalid address space size")
)

// UnresolvedPatchError is returned for a jump target that was referenced by
// translated code but never translated.
type UnresolvedPatchError struct {
	Target  uint16
	Sources []uint16 // addresses of the referencing instructions
}

func (e *UnresolvedPatchError) Error() string {
	sources := make([]string, 0, len(e.Sources))
	for _, source := range slices.Sorted(slices.Values(e.Sources)) {
		sources = append(sources, fmt.Sprintf("$%04X", source))
	}
	return fmt.Sprintf("unresolved jump target $%04X referenced from %s", e.Target, strings.Join(sources, ", "))
}
