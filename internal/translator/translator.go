// Package translator implements a static translator that follows the execution
// flow of a SM83 program from its entry points and translates every reachable
// block to amd64 code.
package translator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/cespare/xxhash"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/sm83translate/internal/block"
	"github.com/retroenv/sm83translate/internal/options"
	"github.com/retroenv/sm83translate/internal/program"
	"github.com/retroenv/sm83translate/internal/translate"
)

// ErrNoEntryPoint is returned when processing is started without an entry point.
var ErrNoEntryPoint = errors.New("no entry point")

// Translator implements a translator of a complete program.
type Translator struct {
	logger  *log.Logger
	options options.Translator
	mem     []byte
	builder *block.Builder

	entries []uint16
	types   map[uint16]program.AddressType

	addressesToTranslate      []uint16
	addressesToTranslateAdded set.Set[uint16]

	returnsToTranslate      []uint16
	returnsToTranslateAdded set.Set[uint16]
}

// New creates a new translator for the given address space buffer, which has
// to be block.MemorySize bytes long.
func New(logger *log.Logger, mem []byte, opts options.Translator) (*Translator, error) {
	builder, err := block.New(logger, mem, opts)
	if err != nil {
		return nil, fmt.Errorf("creating block builder: %w", err)
	}

	return &Translator{
		logger:                    logger,
		options:                   opts,
		mem:                       mem,
		builder:                   builder,
		types:                     map[uint16]program.AddressType{},
		addressesToTranslateAdded: set.New[uint16](),
		returnsToTranslateAdded:   set.New[uint16](),
	}, nil
}

// Process translates all code that is reachable from the entry points and
// returns the translated program.
func (t *Translator) Process(ctx context.Context, entries ...uint16) (*program.Program, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntryPoint
	}

	for _, entry := range entries {
		if !slices.Contains(t.entries, entry) {
			t.entries = append(t.entries, entry)
		}
		t.types[entry] |= program.Entry
		t.addAddressToTranslate(entry, false)
	}

	if err := t.followExecutionFlow(ctx); err != nil {
		return nil, err
	}
	if err := t.builder.Finish(); err != nil {
		return nil, fmt.Errorf("resolving jump targets: %w", err)
	}

	return t.convertToProgram(), nil
}

// Builder returns the block builder that holds the translation state.
func (t *Translator) Builder() *block.Builder {
	return t.builder
}

func (t *Translator) followExecutionFlow(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("translation canceled: %w", err)
		}

		address, isReturn, ok := t.addressToTranslate()
		if !ok {
			return nil
		}
		if t.builder.State(address) == block.Sealed {
			continue
		}

		blk, err := t.builder.TranslateBlockAt(int(address))
		if err != nil {
			// the bytes following a call are not necessarily code, the runtime
			// dispatcher handles a return to an untranslated address.
			if isReturn {
				t.logger.Warn("Skipping code following a call",
					log.Hex("address", address),
					log.Err(err))
				continue
			}
			return fmt.Errorf("translating block at $%04X: %w", address, err)
		}

		t.processBlock(blk)
	}
}

// processBlock queues all addresses that are referenced by a translated block.
func (t *Translator) processBlock(blk *block.CodeBlock) {
	for _, ref := range blk.References {
		if ref.Call {
			t.types[ref.Target] |= program.CallDestination
		} else {
			t.types[ref.Target] |= program.JumpDestination
		}
		t.addAddressToTranslate(ref.Target, false)
	}

	for _, address := range blk.Calls {
		t.types[address] |= program.ReturnAddress
		if t.options.FollowCalls {
			t.addAddressToTranslate(address, true)
		}
	}
}

// addressToTranslate returns the next address to translate. Return addresses
// of calls have the lowest priority, a jump to such an address moves it to
// the regular queue.
func (t *Translator) addressToTranslate() (uint16, bool, bool) {
	if len(t.addressesToTranslate) > 0 {
		address := t.addressesToTranslate[0]
		t.addressesToTranslate = t.addressesToTranslate[1:]
		return address, false, true
	}

	for len(t.returnsToTranslate) > 0 {
		address := t.returnsToTranslate[0]
		t.returnsToTranslate = t.returnsToTranslate[1:]

		// a removed set entry marks the address as moved to the regular queue
		if !t.returnsToTranslateAdded.Contains(address) {
			continue
		}
		delete(t.returnsToTranslateAdded, address)
		return address, true, true
	}

	return 0, false, false
}

// addAddressToTranslate adds an address to the queue if it has not been added yet.
func (t *Translator) addAddressToTranslate(address uint16, isReturn bool) {
	if t.addressesToTranslateAdded.Contains(address) {
		return
	}

	if isReturn {
		if !t.returnsToTranslateAdded.Contains(address) {
			t.returnsToTranslate = append(t.returnsToTranslate, address)
			t.returnsToTranslateAdded.Add(address)
		}
		return
	}

	delete(t.returnsToTranslateAdded, address)
	t.addressesToTranslateAdded.Add(address)
	t.addressesToTranslate = append(t.addressesToTranslate, address)
}

func (t *Translator) convertToProgram() *program.Program {
	prg := program.New()
	prg.Entries = slices.Clone(t.entries)
	prg.Code = t.builder.Code()
	prg.Externals = program.Externals{
		Lockup:   t.options.LockupLabel,
		Dispatch: t.options.DispatchLabel,
	}

	blocks := t.builder.Blocks()
	for _, blk := range blocks {
		prg.Blocks = append(prg.Blocks, program.Block{
			Start:       blk.Start,
			End:         blk.End,
			HostStart:   blk.HostStart,
			HostEnd:     blk.HostEnd,
			Fingerprint: blk.Fingerprint,
			Stitched:    blk.Stitched,
		})

		for _, address := range blk.Instructions {
			addr := prg.AddAddress(address, translate.Label(address))
			addr.SetType(t.types[address])
		}
	}

	prg.Checksum = t.checksum(blocks)
	return prg
}

// checksum hashes the source bytes of all blocks in address order.
func (t *Translator) checksum(blocks []*block.CodeBlock) uint64 {
	sorted := slices.Clone(blocks)
	slices.SortFunc(sorted, func(a, b *block.CodeBlock) int {
		return int(a.Start) - int(b.Start)
	})

	var data []byte
	for _, blk := range sorted {
		data = append(data, t.mem[blk.Start:blk.End]...)
	}
	return xxhash.Sum64(data)
}
