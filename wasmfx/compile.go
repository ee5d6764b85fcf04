package wasmfx

import (
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/stack-verifier/errors"
	"github.com/wippyai/stack-verifier/stack"
	"github.com/wippyai/stack-verifier/types"
	"github.com/wippyai/stack-verifier/verify"
)

// Signature is a function type.
type Signature struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Func is a compiled function body. It implements verify.Provider.
type Func struct {
	Name    string
	Sig     Signature
	Locals  []api.ValueType
	Globals []api.ValueType
	effects verify.Effects
	listing []string
}

// frame is an open structured-control block. The function body is the
// outermost frame with op "".
type frame struct {
	op     string
	label  string
	start  int
	elseAt int
	end    int
}

// target is where a branch to this frame lands: a loop's header, any
// other block's end.
func (f *frame) target() int {
	if f.op == "loop" {
		return f.start
	}
	return f.end
}

type line struct {
	op    string
	args  []string
	line  int
	depth int
	// frame is the block this instruction opens, continues or closes, or
	// the branch target frame for br and br_if.
	frame *frame
}

// Compile turns flat WebAssembly text into a Func. Lines hold one
// instruction each; ";;" starts a comment. Lines of the form
// "param i32 ...", "result ...", "local ..." and "global ..." before the
// first instruction extend sig and declare locals and globals. A missing
// final "end" is implied.
func Compile(name string, sig Signature, src string) (*Func, error) {
	fn := &Func{
		Name: name,
		Sig: Signature{
			Params:  append([]api.ValueType(nil), sig.Params...),
			Results: append([]api.ValueType(nil), sig.Results...),
		},
	}

	body := &frame{start: -1, elseAt: -1, end: -1}
	open := []*frame{body}
	var lines []*line

	for n, raw := range strings.Split(src, "\n") {
		lineNo := n + 1
		text := raw
		if i := strings.Index(text, ";;"); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		op, args := fields[0], fields[1:]

		if decl, ok := fn.declaration(op); ok {
			if len(lines) > 0 {
				return nil, lineError(lineNo, "%s declared after the first instruction", op)
			}
			for _, a := range args {
				t, ok := ParseValueType(a)
				if !ok {
					return nil, lineError(lineNo, "unknown value type %q", a)
				}
				*decl = append(*decl, t)
			}
			continue
		}

		if len(open) == 0 {
			return nil, lineError(lineNo, "instruction after the function end")
		}

		idx := len(lines)
		l := &line{op: op, args: args, line: lineNo, depth: len(open) - 1}
		lines = append(lines, l)

		switch op {
		case "block", "loop", "if":
			f := &frame{op: op, start: idx, elseAt: -1, end: -1}
			if len(args) > 0 && strings.HasPrefix(args[0], "$") {
				f.label = args[0]
			}
			l.frame = f
			open = append(open, f)

		case "else":
			top := open[len(open)-1]
			if top.op != "if" || top.elseAt >= 0 {
				return nil, lineError(lineNo, "else without a matching if")
			}
			top.elseAt = idx
			l.frame = top
			l.depth--

		case "end":
			top := open[len(open)-1]
			top.end = idx
			l.frame = top
			open = open[:len(open)-1]
			if len(open) > 0 {
				l.depth--
			}

		case "br", "br_if":
			if len(args) != 1 {
				return nil, lineError(lineNo, "%s takes one label", op)
			}
			f, err := resolveLabel(open, args[0], lineNo)
			if err != nil {
				return nil, err
			}
			l.frame = f
		}
	}

	if len(open) > 1 {
		return nil, lineError(open[len(open)-1].line(lines), "%s is never closed", open[len(open)-1].op)
	}
	if len(open) == 1 {
		body.end = len(lines)
		lines = append(lines, &line{op: "end", frame: body})
	}

	fn.Locals = append(append([]api.ValueType(nil), fn.Sig.Params...), fn.Locals...)

	for _, l := range lines {
		eff, err := fn.effect(l)
		if err != nil {
			return nil, err
		}
		fn.effects = append(fn.effects, eff)
		fn.listing = append(fn.listing, render(l))
	}
	return fn, nil
}

func (fn *Func) declaration(op string) (*[]api.ValueType, bool) {
	switch op {
	case "param":
		return &fn.Sig.Params, true
	case "result":
		return &fn.Sig.Results, true
	case "local":
		return &fn.Locals, true
	case "global":
		return &fn.Globals, true
	}
	return nil, false
}

func (f *frame) line(lines []*line) int {
	if f.start < 0 || f.start >= len(lines) {
		return 0
	}
	return lines[f.start].line
}

// resolveLabel finds the frame a branch label names: a relative depth or a
// $name given on block, loop or if.
func resolveLabel(open []*frame, label string, lineNo int) (*frame, error) {
	if strings.HasPrefix(label, "$") {
		for i := len(open) - 1; i >= 0; i-- {
			if open[i].label == label {
				return open[i], nil
			}
		}
		e := errors.NotFound(errors.PhaseParse, "label", label)
		e.Path = linePath(lineNo)
		return nil, e
	}
	depth, err := strconv.Atoi(label)
	if err != nil {
		return nil, lineError(lineNo, "bad label %q", label)
	}
	if depth < 0 || depth >= len(open) {
		return nil, errors.OutOfBounds(errors.PhaseParse, linePath(lineNo), depth, len(open))
	}
	return open[len(open)-1-depth], nil
}

func (fn *Func) effect(l *line) (verify.Effect, error) {
	switch l.op {
	case "block", "loop":
		return verify.Effect{}, nil

	case "if":
		next := l.frame.end
		if l.frame.elseAt >= 0 {
			next = l.frame.elseAt + 1
		}
		return verify.Effect{Pops: []types.Descriptor{Descriptor(i32)}, Branches: []int{next}}, nil

	case "else":
		return verify.Effect{Branches: []int{l.frame.end}, Terminal: true}, nil

	case "end":
		if l.frame.op == "" {
			return fn.exit(), nil
		}
		return verify.Effect{}, nil

	case "br":
		return verify.Effect{Branches: []int{l.frame.target()}, Terminal: true}, nil

	case "br_if":
		return verify.Effect{Pops: []types.Descriptor{Descriptor(i32)}, Branches: []int{l.frame.target()}}, nil

	case "return":
		return fn.exit(), nil

	case "unreachable":
		return verify.Effect{Terminal: true}, nil

	case "drop":
		return verify.Effect{Pops: []types.Descriptor{types.Of(types.Any)}}, nil

	case "select":
		operand := types.Of(types.Any)
		if len(l.args) > 0 {
			name := strings.TrimSuffix(l.args[len(l.args)-1], ")")
			t, ok := ParseValueType(name)
			if !ok {
				return verify.Effect{}, lineError(l.line, "unknown value type %q", name)
			}
			operand = Descriptor(t)
		}
		return verify.Effect{
			Pops:   []types.Descriptor{Descriptor(i32), operand, operand},
			Pushes: []types.Descriptor{operand},
		}, nil

	case "local.get", "local.set", "local.tee":
		t, err := index(l, fn.Locals)
		if err != nil {
			return verify.Effect{}, err
		}
		return access(l.op, t), nil

	case "global.get", "global.set":
		t, err := index(l, fn.Globals)
		if err != nil {
			return verify.Effect{}, err
		}
		return access(l.op, t), nil

	case "ref.null":
		if len(l.args) != 1 {
			return verify.Effect{}, lineError(l.line, "ref.null takes a reference type")
		}
		t, ok := refType(l.args[0])
		if !ok {
			return verify.Effect{}, lineError(l.line, "unknown reference type %q", l.args[0])
		}
		return verify.Effect{Pushes: []types.Descriptor{Descriptor(t)}}, nil

	case "ref.is_null":
		ref := types.Union(Descriptor(ValueTypeFuncref), Descriptor(api.ValueTypeExternref))
		return verify.Effect{Pops: []types.Descriptor{ref}, Pushes: []types.Descriptor{Descriptor(i32)}}, nil
	}

	ot, ok := Table[l.op]
	if !ok {
		e := errors.Unsupported(errors.PhaseParse, l.op)
		e.Path = linePath(l.line)
		return verify.Effect{}, e
	}
	if strings.HasSuffix(l.op, ".const") {
		if err := checkConst(l); err != nil {
			return verify.Effect{}, err
		}
	}
	return verify.Effect{Pops: ot.pops(), Pushes: ot.pushes()}, nil
}

// exit leaves the function: the stack must hold exactly the results.
func (fn *Func) exit() verify.Effect {
	ot := OpType{Params: fn.Sig.Results}
	return verify.Effect{
		Pops:         ot.pops(),
		RequireStack: verify.Require(len(fn.Sig.Results)),
		Terminal:     true,
	}
}

func access(op string, t api.ValueType) verify.Effect {
	d := []types.Descriptor{Descriptor(t)}
	switch {
	case strings.HasSuffix(op, ".get"):
		return verify.Effect{Pushes: d}
	case strings.HasSuffix(op, ".set"):
		return verify.Effect{Pops: d}
	default:
		return verify.Effect{Pops: d, Pushes: d}
	}
}

func index(l *line, vars []api.ValueType) (api.ValueType, error) {
	if len(l.args) != 1 {
		return 0, lineError(l.line, "%s takes one index", l.op)
	}
	i, err := strconv.Atoi(l.args[0])
	if err != nil {
		return 0, lineError(l.line, "bad index %q", l.args[0])
	}
	if i < 0 || i >= len(vars) {
		return 0, errors.OutOfBounds(errors.PhaseParse, linePath(l.line), i, len(vars))
	}
	return vars[i], nil
}

func refType(name string) (api.ValueType, bool) {
	switch name {
	case "func", "funcref":
		return ValueTypeFuncref, true
	case "extern", "externref":
		return api.ValueTypeExternref, true
	}
	return 0, false
}

func checkConst(l *line) error {
	if len(l.args) != 1 {
		return lineError(l.line, "%s takes one immediate", l.op)
	}
	v := l.args[0]
	var err error
	switch l.op {
	case "i32.const":
		if _, err = strconv.ParseInt(v, 0, 32); err != nil {
			_, err = strconv.ParseUint(v, 0, 32)
		}
	case "i64.const":
		if _, err = strconv.ParseInt(v, 0, 64); err != nil {
			_, err = strconv.ParseUint(v, 0, 64)
		}
	default:
		_, err = strconv.ParseFloat(v, 64)
	}
	if err != nil {
		return lineError(l.line, "bad %s immediate %q", l.op, v)
	}
	return nil
}

func render(l *line) string {
	text := strings.Join(append([]string{l.op}, l.args...), " ")
	return strings.Repeat("  ", l.depth) + text
}

func linePath(lineNo int) []string {
	return []string{"line", strconv.Itoa(lineNo)}
}

func lineError(lineNo int, format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Path(linePath(lineNo)...).
		Detail(format, args...).
		Build()
}

// Len implements verify.Provider.
func (fn *Func) Len() int { return len(fn.effects) }

// Effect implements verify.Provider.
func (fn *Func) Effect(i int) (verify.Effect, error) {
	if i < 0 || i >= len(fn.effects) {
		return verify.Effect{}, errors.OutOfBounds(errors.PhaseVerify,
			[]string{"instructions"}, i, len(fn.effects))
	}
	return fn.effects[i], nil
}

// Listing returns the body one instruction per line, indented by nesting.
func (fn *Func) Listing() []string {
	out := make([]string, len(fn.listing))
	copy(out, fn.listing)
	return out
}

// Entry is the operand stack at function entry, which is always empty.
func (fn *Func) Entry() stack.State { return stack.Empty() }

// Options returns verifier options for the function.
func (fn *Func) Options() verify.Options {
	return verify.DefaultOptions()
}

// ParseValueTypes parses a comma separated list such as "i32,i64".
func ParseValueTypes(list string) ([]api.ValueType, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []api.ValueType
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		t, ok := ParseValueType(name)
		if !ok {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Value(name).
				Detail("unknown value type %q", name).
				Build()
		}
		out = append(out, t)
	}
	return out, nil
}
