package diag

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/wippyai/stack-verifier/stack"
	"github.com/wippyai/stack-verifier/verify"
)

const (
	annotBadValue = "// bad value"
	annotRelevant = "// relevant instruction"
	emptyStack    = "(empty)"
)

// Renderer builds debug dumps.
type Renderer struct {
	Style Style
}

// Dump renders the extended report for a failure using the plain style.
func Dump(res verify.Result, listing []string) string {
	return Renderer{}.Dump(res, listing)
}

// Dump renders the stack section(s) for res followed by the instruction
// listing, one pre-rendered line per instruction, with the failing
// instruction annotated.
//
// It panics when res is verify.Success.
func (r Renderer) Dump(res verify.Result, listing []string) string {
	f, ok := verify.AsFailure(res)
	if !ok {
		panic(fmt.Sprintf("diag: no dump for %T", res))
	}

	var b strings.Builder
	switch v := res.(type) {
	case *verify.StackMismatch:
		r.section(&b, "Expected Stack", stackLines(v.ExpectedStack), -1, "")
		b.WriteByte('\n')
		r.section(&b, "Incoming Stack", stackLines(v.IncomingStack), -1, "")
	case *verify.TypeMismatch:
		r.section(&b, "Stack", stackLines(v.Stack), v.StackIndex, annotBadValue)
	default:
		r.section(&b, "Stack", stackLines(f.Stack), -1, "")
	}

	relevant := -1
	if instr, ok := f.InstructionIndexOf(f.TransitionIndex); ok {
		relevant = instr
	}
	b.WriteByte('\n')
	r.section(&b, "Instructions", listing, relevant, annotRelevant)

	return b.String()
}

// section writes a titled block. The line at mark, if any, gets annot in a
// column aligned past the widest line.
func (r Renderer) section(b *strings.Builder, title string, lines []string, mark int, annot string) {
	b.WriteString(r.Style.header(title))
	b.WriteByte('\n')
	b.WriteString(r.Style.header(strings.Repeat("=", runewidth.StringWidth(title))))
	b.WriteByte('\n')

	width := 0
	for _, l := range lines {
		if w := runewidth.StringWidth(l); w > width {
			width = w
		}
	}

	for i, l := range lines {
		if i == mark {
			b.WriteString(r.Style.relevant(runewidth.FillRight(l, width)))
			b.WriteByte(' ')
			b.WriteString(r.Style.annotation(annot))
		} else {
			b.WriteString(l)
		}
		b.WriteByte('\n')
	}
}

// stackLines lists the slots top to bottom; ambiguous slots show every
// candidate.
func stackLines(s stack.State) []string {
	if s.Len() == 0 {
		return []string{emptyStack}
	}
	lines := make([]string, 0, s.Len())
	for _, slot := range s.Slots() {
		lines = append(lines, slot.Name())
	}
	return lines
}
