package verify

import (
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/stack-verifier/errors"
	"github.com/wippyai/stack-verifier/stack"
	"github.com/wippyai/stack-verifier/types"
)

// Options configures a Verifier.
type Options struct {
	// Relation decides assignability. Nil means exact type equality.
	Relation types.Relation
	// Logger overrides the package logger for this verifier.
	Logger *zap.Logger
	// Entry is the stack at instruction 0.
	Entry stack.State
}

// DefaultOptions returns an empty entry stack and exact type matching.
func DefaultOptions() Options {
	return Options{
		Relation: types.Exact{},
	}
}

// join is the per-instruction record of what has arrived there.
type join struct {
	// expected is the first arrival; later arrivals are judged against it.
	expected stack.State
	// resident is the union of every compatible arrival so far.
	resident stack.State
}

// edge carries the output state of instruction from to instruction to.
type edge struct {
	state stack.State
	from  int
	to    int
}

// Verifier simulates an instruction stream against its declared stack
// effects. A Verifier is not safe for concurrent use; independent streams
// should use independent Verifiers.
type Verifier struct {
	provider Provider
	log      *zap.Logger
	trace    *Trace
	reached  *BitSet
	pending  *BitSet
	joins    []*join
	options  Options
	maxDepth int
}

// New creates a Verifier for the stream p describes.
func New(p Provider, opts Options) (*Verifier, error) {
	if p == nil {
		return nil, errors.NilPointer(errors.PhaseVerify, "stack effect provider")
	}
	n, err := providerLen(p)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.InvalidInput(errors.PhaseVerify, "provider reports a negative length")
	}
	if opts.Relation == nil {
		opts.Relation = types.Exact{}
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	return &Verifier{
		provider: p,
		options:  opts,
		log:      log,
		trace:    &Trace{},
		reached:  NewBitSet(n),
		pending:  NewBitSet(n),
	}, nil
}

// providerLen calls p.Len. A provider that is a nil pointer behind a non-nil
// interface panics there; that panic becomes a nil pointer error.
func providerLen(p Provider) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseVerify, errors.KindNilPointer).
				Op("Len").
				Detail("stack effect provider: %v", r).
				Build()
		}
	}()
	return p.Len(), nil
}

// Verify runs the simulation and returns its single outcome. The returned
// error is reserved for operational problems (a provider failure, a branch
// outside the stream); findings about the stream are Results.
//
// Instructions are simulated in stream order: the lowest pending index runs
// next. Simulating an instruction delivers its output state to the
// fallthrough successor first, then to branch targets in declaration order.
// Each call starts from scratch and is deterministic.
func (v *Verifier) Verify() (Result, error) {
	n := v.provider.Len()
	v.trace = &Trace{}
	v.reached = NewBitSet(n)
	v.pending = NewBitSet(n)
	v.joins = make([]*join, n)
	v.maxDepth = v.options.Entry.Len()

	v.log.Debug("verification started",
		zap.Int("instructions", n),
		zap.Int("entry_depth", v.options.Entry.Len()))

	if n == 0 {
		return Success{}, nil
	}

	v.arrive(edge{state: v.options.Entry, from: -1, to: 0})
	for {
		instr, ok := v.pending.First()
		if !ok {
			break
		}
		v.pending.Clear(instr)

		eff, err := v.provider.Effect(instr)
		if err != nil {
			return nil, errors.Provider(instr, err)
		}
		if err := v.checkEffect(instr, eff, n); err != nil {
			return nil, err
		}

		after, failure := v.step(instr, eff, v.joins[instr].resident)
		if failure != nil {
			return v.fail(failure), nil
		}

		if !eff.Terminal && instr+1 < n {
			if failure := v.arrive(edge{state: after, from: instr, to: instr + 1}); failure != nil {
				return v.fail(failure), nil
			}
		}
		for _, target := range eff.Branches {
			if failure := v.arrive(edge{state: after, from: instr, to: target}); failure != nil {
				return v.fail(failure), nil
			}
		}
	}

	v.log.Debug("verification succeeded",
		zap.Int("transitions", v.trace.Len()),
		zap.Int("reached", v.reached.Count()),
		zap.Int("max_stack_depth", v.maxDepth))
	return Success{}, nil
}

// arrive delivers a state to an instruction. The first arrival becomes the
// expected state; later ones must be compatible with it and widen the
// resident state. The instruction is queued whenever its resident state
// changes.
func (v *Verifier) arrive(e edge) Failed {
	j := v.joins[e.to]
	if j == nil {
		v.joins[e.to] = &join{expected: e.state, resident: e.state}
		v.reached.Set(e.to)
		v.pending.Set(e.to)
		return nil
	}

	if !j.expected.Compatible(e.state, v.options.Relation) {
		return &StackMismatch{
			Failure:       v.failure(e.from, e.state),
			ExpectedStack: j.expected,
			IncomingStack: e.state,
			Target:        e.to,
		}
	}

	merged, _ := j.resident.Merge(e.state)
	if !merged.Equivalent(j.resident) {
		j.resident = merged
		v.pending.Set(e.to)
	}
	return nil
}

// step applies eff to before, or reports why it cannot.
func (v *Verifier) step(instr int, eff Effect, before stack.State) (stack.State, Failed) {
	want := len(eff.Pops)
	if before.Len() < want {
		return stack.State{}, &StackUnderflow{
			Failure:           v.failure(instr, before),
			ExpectedStackSize: want,
		}
	}

	for i, slot := range before.Slots()[:want] {
		if !slot.AssignableTo(eff.Pops[i], v.options.Relation) {
			return stack.State{}, &TypeMismatch{
				Failure:              v.failure(instr, before),
				StackIndex:           i,
				ExpectedAtStackIndex: eff.Pops[i],
			}
		}
	}

	if eff.RequireStack != nil && before.Len() != *eff.RequireStack {
		return stack.State{}, &StackSizeFailure{
			Failure:           v.failure(instr, before),
			ExpectedStackSize: *eff.RequireStack,
		}
	}

	_, rest, _ := before.Pop(want)
	after := rest.PushAll(eff.Pushes...)
	if after.Len() > v.maxDepth {
		v.maxDepth = after.Len()
	}

	tr := v.trace.record(instr, before, after)
	if ce := v.log.Check(zapcore.DebugLevel, "transition"); ce != nil {
		ce.Write(
			zap.Int("transition", tr.Index),
			zap.Int("instruction", instr),
			zap.Stringer("before", before),
			zap.Stringer("after", after))
	}
	return after, nil
}

func (v *Verifier) checkEffect(instr int, eff Effect, n int) error {
	for _, target := range eff.Branches {
		if target < 0 || target >= n {
			return errors.New(errors.PhaseVerify, errors.KindOutOfBounds).
				Path("instructions", strconv.Itoa(instr), "branches").
				Value(target).
				Detail("branch target %d outside stream of %d instructions", target, n).
				Build()
		}
	}
	if eff.RequireStack != nil && *eff.RequireStack < 0 {
		return errors.New(errors.PhaseVerify, errors.KindInvalidInput).
			Path("instructions", strconv.Itoa(instr)).
			Detail("negative required stack size %d", *eff.RequireStack).
			Build()
	}
	return nil
}

func (v *Verifier) failure(instr int, state stack.State) Failure {
	return Failure{
		trace:           v.trace,
		Stack:           state,
		TransitionIndex: v.trace.reserve(instr),
		Instruction:     instr,
	}
}

func (v *Verifier) fail(f Failed) Result {
	base := f.Base()
	v.log.Debug("verification failed",
		zap.String("kind", string(f.Kind())),
		zap.Int("instruction", base.Instruction),
		zap.Int("transition", base.TransitionIndex),
		zap.Stringer("stack", base.Stack))
	return f
}

// Trace returns the history of the most recent run.
func (v *Verifier) Trace() *Trace {
	return v.trace
}

// InstructionIndexOf maps a transition index of the most recent run to the
// instruction that produced it.
func (v *Verifier) InstructionIndexOf(transitionIndex int) (int, bool) {
	return v.trace.InstructionIndexOf(transitionIndex)
}

// Reached reports whether the most recent run simulated instruction i.
func (v *Verifier) Reached(i int) bool {
	return v.reached.Has(i)
}

// Unreached lists instructions no control-flow path led to.
func (v *Verifier) Unreached() []int {
	return v.reached.Missing(v.provider.Len())
}

// MaxStackDepth returns the deepest stack the most recent run produced.
func (v *Verifier) MaxStackDepth() int {
	return v.maxDepth
}

// Verify is shorthand for New followed by Verify.
func Verify(p Provider, opts Options) (Result, *Verifier, error) {
	v, err := New(p, opts)
	if err != nil {
		return nil, nil, err
	}
	r, err := v.Verify()
	if err != nil {
		return nil, v, err
	}
	return r, v, nil
}
