// Package block builds translated code blocks. A block is a linear run of
// source instructions that starts at a jump target and ends at the first
// instruction that never falls through.
package block

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash"
	"github.com/hashicorp/go-multierror"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/arch/sm83"
	"github.com/retroenv/sm83translate/internal/options"
	"github.com/retroenv/sm83translate/internal/translate"
)

// AddressSpace is the number of addressable source bytes.
const AddressSpace = 0x10000

// MemorySize is the size of the address space buffer. The extra bytes allow
// fetching a complete instruction window at the last address. The translated
// code accesses 16-bit words at the address without wrapping, so a word access
// at $FFFF reads or writes its high byte at $10000. A runtime that executes the
// code has to keep $10000-$10001 a mirror of $0000-$0001 to match the wrapping
// of the source CPU.
const MemorySize = AddressSpace + sm83.MaxInstructionLen - 1

// State is the translation state of a source address that starts an instruction.
type State uint8

// Address states.
const (
	Unseen State = iota // not translated
	Open                // part of the block that is currently built
	Sealed              // part of a finished block
)

// Patch is a host jump whose source address target was not translated yet
// when the jump was emitted.
type Patch struct {
	Source uint16 // address of the jumping source instruction
	Index  int    // index of the jump in the host code stream
	Target uint16
	Call   bool // the jump is part of a subroutine call
}

// CodeBlock is a translated block of source instructions.
type CodeBlock struct {
	Start uint16
	End   int // address after the last instruction

	HostStart int // index of the first host instruction in the code stream
	HostEnd   int // index after the last host instruction

	Instructions []uint16 // addresses of the translated source instructions
	References   []Patch  // all jumps to source addresses, resolved or not
	Calls        []uint16 // return addresses of the contained calls
	Fingerprint  uint64   // hash of the source bytes

	Stitched bool // ends with a jump into previously translated code
}

// Contains returns whether the source address is part of the block.
func (b *CodeBlock) Contains(address uint16) bool {
	return int(address) >= int(b.Start) && int(address) < b.End
}

// Builder translates blocks and tracks the jumps between them.
type Builder struct {
	logger     *log.Logger
	mem        []byte
	translator *translate.Translator

	writableStart int

	states  [AddressSpace]State
	owners  [AddressSpace]*CodeBlock // block of every instruction start
	code    []amd64.Instruction
	pending map[uint16][]Patch
	blocks  []*CodeBlock
}

// New returns a new block builder for the given address space buffer.
func New(logger *log.Logger, mem []byte, opts options.Translator) (*Builder, error) {
	if len(mem) != MemorySize {
		return nil, fmt.Errorf("%w: %d bytes instead of %d", ErrMemorySize, len(mem), MemorySize)
	}

	translator, err := translate.New(opts.MemoryBase, opts.LockupLabel, opts.DispatchLabel)
	if err != nil {
		return nil, fmt.Errorf("creating instruction translator: %w", err)
	}

	return &Builder{
		logger:        logger,
		mem:           mem,
		translator:    translator,
		writableStart: opts.WritableStart,
		pending:       map[uint16][]Patch{},
	}, nil
}

// NewMemory returns an address space buffer that contains data at address 0.
func NewMemory(data []byte) []byte {
	mem := make([]byte, MemorySize)
	copy(mem[:AddressSpace], data)
	return mem
}

// blockDraft collects a block until it is sealed, an error discards it.
type blockDraft struct {
	block   *CodeBlock
	code    []amd64.Instruction
	patches []Patch
}

// TranslateBlockAt translates the block starting at the given address. If the
// address already starts a translated instruction, its block is returned and
// no code is emitted.
func (b *Builder) TranslateBlockAt(pc int) (*CodeBlock, error) {
	if pc < 0 || pc >= AddressSpace {
		return nil, fmt.Errorf("%w: address %d is outside of the address space", ErrSelfModifyingCode, pc)
	}
	if pc >= b.writableStart {
		return nil, fmt.Errorf("%w: code at $%04X is in writable memory", ErrSelfModifyingCode, pc)
	}
	if b.states[pc] == Sealed {
		return b.owners[pc], nil
	}

	draft := &blockDraft{
		block: &CodeBlock{
			Start:     uint16(pc),
			HostStart: len(b.code),
		},
	}

	address := pc
	for {
		if address != pc && b.states[address] != Unseen {
			b.stitch(draft, uint16(address))
			break
		}
		if address >= b.writableStart {
			b.discard(draft)
			return nil, fmt.Errorf("%w: execution continues into writable memory at $%04X", ErrSelfModifyingCode, address)
		}

		ins, data := sm83.Disassemble(b.mem, uint16(address))
		end := address + int(ins.Len())
		if end > AddressSpace {
			b.discard(draft)
			return nil, fmt.Errorf("%w: instruction at $%04X wraps around the address space", ErrSelfModifyingCode, address)
		}
		if end > b.writableStart {
			b.discard(draft)
			return nil, fmt.Errorf("%w: instruction at $%04X extends into writable memory", ErrSelfModifyingCode, address)
		}

		disp, err := b.translateInstruction(draft, ins, data, uint16(address))
		if err != nil {
			b.discard(draft)
			return nil, err
		}

		address = end
		draft.block.End = end
		if disp.EndsBlock() {
			break
		}
		if address == AddressSpace {
			b.discard(draft)
			return nil, fmt.Errorf("%w: execution at $%04X continues past the end of the address space",
				ErrSelfModifyingCode, address-int(ins.Len()))
		}
	}

	b.seal(draft)
	return draft.block, nil
}

func (b *Builder) translateInstruction(draft *blockDraft, ins sm83.Instruction, data []byte,
	address uint16) (translate.Disposition, error) {
	code, disp, err := b.translator.Translate(ins, address)
	if err != nil {
		return disp, fmt.Errorf("translating '%s' at $%04X: %w", ins, address, err)
	}

	b.logger.Trace("Translated instruction",
		log.Hex("address", address),
		log.Stringer("instruction", ins),
		log.StringFunc("bytes", func() string { return fmt.Sprintf("% X", data) }),
		log.Int("host_instructions", len(code)))

	b.states[address] = Open
	draft.block.Instructions = append(draft.block.Instructions, address)
	draft.code = append(draft.code, amd64.DefineLabel(translate.Label(address)))
	base := draft.block.HostStart + len(draft.code)
	draft.code = append(draft.code, code...)

	if disp.HasTarget() {
		patch := Patch{
			Source: address,
			Index:  base + disp.PatchIndex,
			Target: disp.Target,
			Call:   disp.Call,
		}
		draft.patches = append(draft.patches, patch)
		draft.block.References = append(draft.block.References, patch)
	}
	if disp.Call {
		draft.block.Calls = append(draft.block.Calls, disp.Return)
	}
	return disp, nil
}

// stitch ends the block with a jump to already translated code.
func (b *Builder) stitch(draft *blockDraft, target uint16) {
	draft.code = append(draft.code, amd64.Jump(amd64.Jmp, translate.Label(target)))
	draft.block.Stitched = true

	b.logger.Debug("Stitching block",
		log.Hex("start", draft.block.Start),
		log.Hex("target", target))
}

// discard resets the state of all addresses of a failed block.
func (b *Builder) discard(draft *blockDraft) {
	for _, address := range draft.block.Instructions {
		b.states[address] = Unseen
	}
}

// seal appends the block code to the code stream and resolves all patches that
// target it.
func (b *Builder) seal(draft *blockDraft) {
	blk := draft.block
	b.code = append(b.code, draft.code...)
	blk.HostEnd = len(b.code)
	blk.Fingerprint = xxhash.Sum64(b.mem[blk.Start:blk.End])
	b.blocks = append(b.blocks, blk)

	for _, address := range blk.Instructions {
		b.states[address] = Sealed
		b.owners[address] = blk

		patches, ok := b.pending[address]
		if !ok {
			continue
		}
		delete(b.pending, address)
		b.logger.Debug("Resolved jump target",
			log.Hex("target", address),
			log.Int("references", len(patches)))
	}

	for _, patch := range draft.patches {
		if b.states[patch.Target] == Sealed {
			continue
		}
		b.pending[patch.Target] = append(b.pending[patch.Target], patch)
	}

	b.logger.Debug("Translated block",
		log.Hex("start", blk.Start),
		log.Hex("end", blk.End),
		log.Int("instructions", len(blk.Instructions)),
		log.Int("host_instructions", blk.HostEnd-blk.HostStart))
}

// Pending returns the sorted jump targets that are referenced but not translated.
func (b *Builder) Pending() []uint16 {
	return slices.Sorted(maps.Keys(b.pending))
}

// Patches returns the unresolved patches of a jump target.
func (b *Builder) Patches(target uint16) []Patch {
	return slices.Clone(b.pending[target])
}

// Finish returns an error for every jump target that is still unresolved.
func (b *Builder) Finish() error {
	var result *multierror.Error
	for _, target := range b.Pending() {
		patches := b.pending[target]
		err := &UnresolvedPatchError{Target: target}
		for _, patch := range patches {
			err.Sources = append(err.Sources, patch.Source)
		}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Verify checks that the source bytes of all translated blocks are unchanged
// in the given address space buffer.
func (b *Builder) Verify(mem []byte) error {
	if len(mem) != MemorySize {
		return fmt.Errorf("%w: %d bytes instead of %d", ErrMemorySize, len(mem), MemorySize)
	}

	var result *multierror.Error
	for _, blk := range b.blocks {
		if xxhash.Sum64(mem[blk.Start:blk.End]) == blk.Fingerprint {
			continue
		}
		result = multierror.Append(result, fmt.Errorf("%w: block $%04X-$%04X changed after translation",
			ErrSelfModifyingCode, blk.Start, blk.End-1))
	}
	return result.ErrorOrNil()
}

// State returns the translation state of a source address.
func (b *Builder) State(address uint16) State {
	return b.states[address]
}

// Lookup returns the block that contains the source address.
func (b *Builder) Lookup(address uint16) (*CodeBlock, bool) {
	if blk := b.owners[address]; blk != nil {
		return blk, true
	}
	for _, blk := range b.blocks {
		if blk.Contains(address) {
			return blk, true
		}
	}
	return nil, false
}

// Blocks returns all sealed blocks in translation order.
func (b *Builder) Blocks() []*CodeBlock {
	return b.blocks
}

// Code returns the host code stream of all sealed blocks.
func (b *Builder) Code() []amd64.Instruction {
	return b.code
}
