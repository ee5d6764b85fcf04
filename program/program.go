package program

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/stack-verifier/errors"
	"github.com/wippyai/stack-verifier/stack"
	"github.com/wippyai/stack-verifier/types"
	"github.com/wippyai/stack-verifier/verify"
)

// Program is a declarative instruction stream. It implements verify.Provider.
type Program struct {
	relation types.Hierarchy
	entry    stack.State
	labels   map[string]int
	Method   string
	effects  verify.Effects
	listing  []string
}

type document struct {
	Method       string        `yaml:"method"`
	Types        []typeDecl    `yaml:"types"`
	Entry        []string      `yaml:"entry"`
	Instructions []instruction `yaml:"instructions"`
}

type typeDecl struct {
	Name    string   `yaml:"name"`
	Parents []string `yaml:"parents"`
}

type instruction struct {
	Require  *int     `yaml:"require"`
	Label    string   `yaml:"label"`
	Op       string   `yaml:"op"`
	Pops     []string `yaml:"pops"`
	Pushes   []string `yaml:"pushes"`
	Branches []string `yaml:"branches"`
	Terminal bool     `yaml:"terminal"`
}

// Load reads and parses a program file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML program and resolves its labels.
func Parse(data []byte) (*Program, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("program", err)
	}

	p := &Program{
		Method:   doc.Method,
		relation: types.NewHierarchy(),
		labels:   make(map[string]int, len(doc.Instructions)),
		effects:  make(verify.Effects, 0, len(doc.Instructions)),
		listing:  make([]string, 0, len(doc.Instructions)),
	}
	if p.Method == "" {
		p.Method = "program"
	}

	for i, td := range doc.Types {
		if td.Name == "" {
			return nil, errors.InvalidData(errors.PhaseParse,
				[]string{"types", strconv.Itoa(i), "name"}, "type name is empty")
		}
		parents := make([]types.Type, len(td.Parents))
		for j, name := range td.Parents {
			parents[j] = types.Type(name)
		}
		p.relation = p.relation.Declare(types.Type(td.Name), parents...)
	}

	entry, err := descriptors(doc.Entry, []string{"entry"})
	if err != nil {
		return nil, err
	}
	p.entry = stack.Of(entry...)

	for i, in := range doc.Instructions {
		if in.Label == "" {
			continue
		}
		if prev, dup := p.labels[in.Label]; dup {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Path("instructions", strconv.Itoa(i), "label").
				Value(in.Label).
				Detail("label %q already defined at instruction %d", in.Label, prev).
				Build()
		}
		p.labels[in.Label] = i
	}

	for i, in := range doc.Instructions {
		eff, err := p.effect(i, in)
		if err != nil {
			return nil, err
		}
		p.effects = append(p.effects, eff)
		p.listing = append(p.listing, render(in))
	}

	return p, nil
}

func (p *Program) effect(i int, in instruction) (verify.Effect, error) {
	path := []string{"instructions", strconv.Itoa(i)}

	pops, err := descriptors(in.Pops, append(path, "pops"))
	if err != nil {
		return verify.Effect{}, err
	}
	pushes, err := descriptors(in.Pushes, append(path, "pushes"))
	if err != nil {
		return verify.Effect{}, err
	}
	if in.Require != nil && *in.Require < 0 {
		return verify.Effect{}, errors.InvalidData(errors.PhaseParse,
			append(path, "require"), "required stack size is negative")
	}

	eff := verify.Effect{
		RequireStack: in.Require,
		Pops:         pops,
		Pushes:       pushes,
		Terminal:     in.Terminal,
	}
	for _, label := range in.Branches {
		target, ok := p.labels[label]
		if !ok {
			e := errors.NotFound(errors.PhaseParse, "label", label)
			e.Path = append(path, "branches")
			return verify.Effect{}, e
		}
		eff.Branches = append(eff.Branches, target)
	}
	return eff, nil
}

// descriptors parses slot names. A slot may list alternatives separated by
// "|"; "*" is the unconstrained type.
func descriptors(names []string, path []string) ([]types.Descriptor, error) {
	out := make([]types.Descriptor, 0, len(names))
	for i, name := range names {
		var ts []types.Type
		for _, part := range strings.Split(name, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				return nil, errors.InvalidData(errors.PhaseParse,
					append(path, strconv.Itoa(i)), "empty type name")
			}
			ts = append(ts, types.Type(part))
		}
		d := types.Of(ts[0])
		for _, t := range ts[1:] {
			d = types.Union(d, types.Of(t))
		}
		out = append(out, d)
	}
	return out, nil
}

func render(in instruction) string {
	op := in.Op
	if op == "" {
		op = "nop"
	}
	if in.Label != "" {
		return in.Label + ": " + op
	}
	return op
}

// Len implements verify.Provider.
func (p *Program) Len() int { return len(p.effects) }

// Effect implements verify.Provider.
func (p *Program) Effect(i int) (verify.Effect, error) {
	if i < 0 || i >= len(p.effects) {
		return verify.Effect{}, errors.OutOfBounds(errors.PhaseVerify,
			[]string{"instructions"}, i, len(p.effects))
	}
	return p.effects[i], nil
}

// Relation returns the declared subtype hierarchy.
func (p *Program) Relation() types.Relation { return p.relation }

// Entry returns the stack the program starts with.
func (p *Program) Entry() stack.State { return p.entry }

// Listing returns one rendered line per instruction, labels prefixed.
func (p *Program) Listing() []string {
	out := make([]string, len(p.listing))
	copy(out, p.listing)
	return out
}

// Label returns the instruction index a label names.
func (p *Program) Label(name string) (int, bool) {
	i, ok := p.labels[name]
	return i, ok
}

// Options returns verifier options carrying the program's relation and
// entry stack.
func (p *Program) Options() verify.Options {
	opts := verify.DefaultOptions()
	opts.Relation = p.relation
	opts.Entry = p.entry
	return opts
}
