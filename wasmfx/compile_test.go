package wasmfx_test

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/stack-verifier/errors"
	"github.com/wippyai/stack-verifier/verify"
	"github.com/wippyai/stack-verifier/wasmfx"
)

func compile(t *testing.T, src string) *wasmfx.Func {
	t.Helper()
	fn, err := wasmfx.Compile("f", wasmfx.Signature{}, src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return fn
}

func check(t *testing.T, fn *wasmfx.Func) (verify.Result, *verify.Verifier) {
	t.Helper()
	res, v, err := verify.Verify(fn, fn.Options())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return res, v
}

func TestCompile_Add(t *testing.T) {
	fn := compile(t, `
param i32 i32
result i32
local.get 0
local.get 1
i32.add ;; sum
end
`)
	if diff := cmp.Diff([]string{"local.get 0", "local.get 1", "i32.add", "end"}, fn.Listing()); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
	if res, _ := check(t, fn); !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
}

func TestCompile_SignatureArgument(t *testing.T) {
	sig := wasmfx.Signature{
		Params:  []api.ValueType{api.ValueTypeI64},
		Results: []api.ValueType{api.ValueTypeI64},
	}
	fn, err := wasmfx.Compile("id", sig, "local.get 0")
	if err != nil {
		t.Fatal(err)
	}
	if fn.Len() != 2 {
		t.Errorf("Len = %d, want 2 (implicit end)", fn.Len())
	}
	if res, _ := check(t, fn); !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
}

func TestCompile_TypeMismatch(t *testing.T) {
	fn := compile(t, "result i32\ni64.const 1\ni32.const 2\ni32.add\n")
	res, _ := check(t, fn)
	m, ok := res.(*verify.TypeMismatch)
	if !ok {
		t.Fatalf("expected type mismatch, got %s", res.Kind())
	}
	if m.Instruction != 2 || m.StackIndex != 1 {
		t.Errorf("instruction = %d, stack index = %d", m.Instruction, m.StackIndex)
	}
	if m.ExpectedAtStackIndex.Name() != "i32" || m.Found().Name() != "i64" {
		t.Errorf("expected %s, found %s", m.ExpectedAtStackIndex, m.Found())
	}
}

func TestCompile_Exit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind verify.Kind
		size int
	}{
		{name: "missing result", src: "result i32\nnop", kind: verify.KindStackUnderflow, size: 1},
		{name: "leftover value", src: "i32.const 1", kind: verify.KindStackSizeFailure, size: 0},
		{name: "extra below result", src: "result i32\ni32.const 1\ni32.const 2\nreturn", kind: verify.KindStackSizeFailure, size: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := check(t, compile(t, tt.src))
			if res.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", res.Kind(), tt.kind)
			}
			switch r := res.(type) {
			case *verify.StackUnderflow:
				if r.ExpectedStackSize != tt.size {
					t.Errorf("size = %d", r.ExpectedStackSize)
				}
			case *verify.StackSizeFailure:
				if r.ExpectedStackSize != tt.size {
					t.Errorf("size = %d", r.ExpectedStackSize)
				}
			}
		})
	}
}

func TestCompile_IfElse(t *testing.T) {
	fn := compile(t, `
param i32
result i32
local.get 0
if
  i32.const 1
else
  i32.const 2
end
`)
	want := []string{"local.get 0", "if", "  i32.const 1", "else", "  i32.const 2", "end", "end"}
	if diff := cmp.Diff(want, fn.Listing()); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}

	ifEff, _ := fn.Effect(1)
	elseEff, _ := fn.Effect(3)
	if diff := cmp.Diff([]int{4}, ifEff.Branches); diff != "" {
		t.Errorf("if branches (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5}, elseEff.Branches); diff != "" || !elseEff.Terminal {
		t.Errorf("else branches (-want +got):\n%s", diff)
	}

	if res, _ := check(t, fn); !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
}

func TestCompile_IfArmsDisagree(t *testing.T) {
	fn := compile(t, `
param i32
local.get 0
if
  i32.const 1
else
  i64.const 2
end
drop
`)
	res, _ := check(t, fn)
	m, ok := res.(*verify.StackMismatch)
	if !ok {
		t.Fatalf("expected stack mismatch, got %s", res.Kind())
	}
	if m.Instruction != 4 || m.Target != 5 {
		t.Errorf("instruction = %d, target = %d", m.Instruction, m.Target)
	}
	if m.ExpectedStack.String() != "[i32]" || m.IncomingStack.String() != "[i64]" {
		t.Errorf("expected %s, incoming %s", m.ExpectedStack, m.IncomingStack)
	}
}

func TestCompile_IfWithoutElse(t *testing.T) {
	fn := compile(t, "param i32\nlocal.get 0\nif\nnop\nend")
	eff, _ := fn.Effect(1)
	if diff := cmp.Diff([]int{3}, eff.Branches); diff != "" {
		t.Errorf("if branches (-want +got):\n%s", diff)
	}
	if res, _ := check(t, fn); !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
}

func TestCompile_LoopCountdown(t *testing.T) {
	fn := compile(t, `
local i32
loop
  local.get 0
  i32.const 1
  i32.sub
  local.tee 0
  br_if 0
end
`)
	eff, _ := fn.Effect(5)
	if diff := cmp.Diff([]int{0}, eff.Branches); diff != "" {
		t.Errorf("br_if branches (-want +got):\n%s", diff)
	}
	res, v := check(t, fn)
	if !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
	if len(v.Unreached()) != 0 {
		t.Errorf("unreached: %v", v.Unreached())
	}
}

func TestCompile_LoopGrowsStack(t *testing.T) {
	fn := compile(t, "loop\ni32.const 1\nbr 0\nend")
	res, v := check(t, fn)
	m, ok := res.(*verify.StackMismatch)
	if !ok {
		t.Fatalf("expected stack mismatch, got %s", res.Kind())
	}
	if m.Instruction != 2 || m.Target != 0 {
		t.Errorf("instruction = %d, target = %d", m.Instruction, m.Target)
	}
	if v.Reached(3) {
		t.Error("loop end should be unreachable")
	}
}

func TestCompile_NamedLabels(t *testing.T) {
	fn := compile(t, `
block $out
  loop $top
    i32.const 0
    br_if $out
    br $top
  end
end
`)
	brIf, _ := fn.Effect(3)
	br, _ := fn.Effect(4)
	if diff := cmp.Diff([]int{6}, brIf.Branches); diff != "" {
		t.Errorf("br_if (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, br.Branches); diff != "" {
		t.Errorf("br (-want +got):\n%s", diff)
	}
	if res, _ := check(t, fn); !verify.IsSuccess(res) {
		t.Fatalf("expected success, got %s", res.Kind())
	}
}

func TestCompile_MiscOps(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "untyped select", src: "i32.const 1\ni32.const 2\ni32.const 0\nselect\ndrop"},
		{name: "typed select", src: "f64.const 1\nf64.const 2.5\ni32.const 0\nselect (result f64)\nf64.neg\ndrop"},
		{name: "ref", src: "ref.null extern\nref.is_null\ndrop\nref.null func\nref.is_null\ndrop"},
		{name: "store", src: "param i32 i64\nlocal.get 0\nlocal.get 1\ni64.store offset=8"},
		{name: "globals", src: "global f32\nglobal.get 0\nf32.sqrt\nglobal.set 0"},
		{name: "conversion", src: "result f64\ni32.const -7\nf64.convert_i32_s"},
		{name: "unreachable", src: "result i32\nunreachable"},
		{name: "hex const", src: "i64.const 0xffffffffffffffff\ndrop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res, _ := check(t, compile(t, tt.src)); !verify.IsSuccess(res) {
				t.Fatalf("expected success, got %s", res.Kind())
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind errors.Kind
	}{
		{name: "unknown mnemonic", src: "i32.frobnicate", kind: errors.KindUnsupported},
		{name: "unclosed block", src: "block\nnop", kind: errors.KindInvalidData},
		{name: "else without if", src: "block\nelse\nend", kind: errors.KindInvalidData},
		{name: "double else", src: "i32.const 1\nif\nelse\nelse\nend", kind: errors.KindInvalidData},
		{name: "after end", src: "end\nnop", kind: errors.KindInvalidData},
		{name: "branch depth", src: "br 3", kind: errors.KindOutOfBounds},
		{name: "unknown label", src: "br $nope", kind: errors.KindNotFound},
		{name: "bad label", src: "br x", kind: errors.KindInvalidData},
		{name: "local index", src: "local.get 0", kind: errors.KindOutOfBounds},
		{name: "late declaration", src: "nop\nlocal i32", kind: errors.KindInvalidData},
		{name: "unknown type", src: "param i8", kind: errors.KindInvalidData},
		{name: "bad const", src: "i32.const abc", kind: errors.KindInvalidData},
		{name: "const range", src: "i32.const 0x1ffffffff", kind: errors.KindInvalidData},
		{name: "ref type", src: "ref.null any", kind: errors.KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wasmfx.Compile("f", wasmfx.Signature{}, tt.src)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseParse || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want parse/%s: %v", e.Phase, e.Kind, tt.kind, err)
			}
		})
	}
}

func TestParseValueTypes(t *testing.T) {
	got, err := wasmfx.ParseValueTypes("i32, f64,externref,funcref")
	if err != nil {
		t.Fatal(err)
	}
	want := []api.ValueType{api.ValueTypeI32, api.ValueTypeF64, api.ValueTypeExternref, wasmfx.ValueTypeFuncref}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if got, err := wasmfx.ParseValueTypes(" "); err != nil || got != nil {
		t.Errorf("empty list = %v, %v", got, err)
	}
	if _, err := wasmfx.ParseValueTypes("i32,v8"); err == nil {
		t.Error("expected error")
	}
}

func TestTable(t *testing.T) {
	tests := []struct {
		op      string
		params  []api.ValueType
		results []api.ValueType
	}{
		{"i32.add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}},
		{"i64.eqz", []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI32}},
		{"f32.lt", []api.ValueType{api.ValueTypeF32, api.ValueTypeF32}, []api.ValueType{api.ValueTypeI32}},
		{"i32.wrap_i64", []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI32}},
		{"f64.store", []api.ValueType{api.ValueTypeI32, api.ValueTypeF64}, nil},
		{"i64.load32_u", []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI64}},
		{"memory.size", nil, []api.ValueType{api.ValueTypeI32}},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := wasmfx.Table[tt.op]
			if !ok {
				t.Fatal("missing from table")
			}
			if diff := cmp.Diff(tt.params, got.Params); diff != "" {
				t.Errorf("params (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.results, got.Results); diff != "" {
				t.Errorf("results (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	if got := wasmfx.TypeName(api.ValueTypeI32); got != "i32" {
		t.Errorf("i32 = %q", got)
	}
	if got := wasmfx.TypeName(wasmfx.ValueTypeFuncref); got != "funcref" {
		t.Errorf("funcref = %q", got)
	}
}
