// Package listing implements an assembler that writes the translated code as
// Intel syntax assembly text for the GNU assembler.
package listing

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/sm83translate/internal/arch/amd64"
	"github.com/retroenv/sm83translate/internal/assembler"
	"github.com/retroenv/sm83translate/internal/program"
)

// ErrUndefinedLabel is returned by Finish for labels that were referenced but
// neither defined nor declared as external.
var ErrUndefinedLabel = errors.New("undefined label")

// ErrDuplicateLabel is returned for a label that is defined twice.
var ErrDuplicateLabel = errors.New("duplicate label")

const syntaxDirective = ".intel_syntax noprefix"

var _ assembler.Assembler = (*Listing)(nil)
var _ assembler.CommentWriter = (*Listing)(nil)

// Options of the listing.
type Options struct {
	Indent        string // prefix of instruction lines
	SectionHeader bool   // output a text section directive
}

// Listing writes the instructions as assembly text.
type Listing struct {
	options Options
	writer  io.Writer
	started bool

	defined    set.Set[string]
	externals  set.Set[string]
	referenced set.Set[string]
}

// New creates a new listing that writes to the given writer.
func New(writer io.Writer, options Options) *Listing {
	return &Listing{
		options:    options,
		writer:     writer,
		defined:    set.New[string](),
		externals:  set.New[string](),
		referenced: set.New[string](),
	}
}

// DefaultOptions returns the default listing options.
func DefaultOptions() Options {
	return Options{
		Indent:        "\t",
		SectionHeader: true,
	}
}

// WriteCommentHeader writes the program checksum and entry points as comments.
func (l *Listing) WriteCommentHeader(prg *program.Program) error {
	if err := l.start(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(l.writer, "# source checksum: %016x\n", prg.Checksum); err != nil {
		return fmt.Errorf("writing checksum: %w", err)
	}
	for _, entry := range prg.Entries {
		if _, err := fmt.Fprintf(l.writer, "# entry point: $%04X\n", entry); err != nil {
			return fmt.Errorf("writing entry point: %w", err)
		}
	}
	if _, err := fmt.Fprintf(l.writer, "# blocks: %d, dispatch targets: %d\n\n",
		len(prg.Blocks), len(prg.DispatchTargets())); err != nil {
		return fmt.Errorf("writing block count: %w", err)
	}
	return nil
}

// DeclareExternal declares a label that is defined by the runtime.
func (l *Listing) DeclareExternal(name string) error {
	if err := l.start(); err != nil {
		return err
	}
	if l.externals.Contains(name) {
		return nil
	}
	l.externals.Add(name)

	if _, err := fmt.Fprintf(l.writer, ".extern %s\n", name); err != nil {
		return fmt.Errorf("writing external declaration: %w", err)
	}
	return nil
}

// Emit writes an instruction or label definition.
func (l *Listing) Emit(ins amd64.Instruction) error {
	if err := l.start(); err != nil {
		return err
	}

	if ins.IsLabel() {
		return l.writeLabel(ins.Target)
	}

	if err := ins.Validate(); err != nil {
		return fmt.Errorf("encoding instruction: %w", err)
	}
	if ins.Op.IsJump() {
		l.referenced.Add(ins.Target)
	}

	if _, err := fmt.Fprintf(l.writer, "%s%s\n", l.options.Indent, ins); err != nil {
		return fmt.Errorf("writing instruction: %w", err)
	}
	return nil
}

// Finish checks that all referenced labels are defined or external.
func (l *Listing) Finish() error {
	var undefined []string
	for name := range l.referenced {
		if !l.defined.Contains(name) && !l.externals.Contains(name) {
			undefined = append(undefined, name)
		}
	}
	if len(undefined) == 0 {
		return nil
	}

	slices.Sort(undefined)
	return fmt.Errorf("%w: %s", ErrUndefinedLabel, strings.Join(undefined, ", "))
}

func (l *Listing) writeLabel(name string) error {
	if l.defined.Contains(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateLabel, name)
	}
	l.defined.Add(name)

	if _, err := fmt.Fprintf(l.writer, "%s:\n", name); err != nil {
		return fmt.Errorf("writing label: %w", err)
	}
	return nil
}

// start writes the syntax and section directives before the first output.
func (l *Listing) start() error {
	if l.started {
		return nil
	}
	l.started = true

	if _, err := fmt.Fprintln(l.writer, syntaxDirective); err != nil {
		return fmt.Errorf("writing syntax directive: %w", err)
	}
	if !l.options.SectionHeader {
		return nil
	}
	if _, err := fmt.Fprintln(l.writer, ".text"); err != nil {
		return fmt.Errorf("writing section directive: %w", err)
	}
	return nil
}
