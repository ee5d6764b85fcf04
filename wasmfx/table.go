package wasmfx

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/stack-verifier/types"
)

// ValueTypeFuncref is the funcref reference type. wazero's public api only
// names externref among the reference types.
const ValueTypeFuncref api.ValueType = 0x70

// OpType is the operand signature of a plain instruction: Params are popped
// (the last param is on top), Results are pushed in order.
type OpType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
	f64 = api.ValueTypeF64
)

// Table maps mnemonics of instructions with a fixed signature to their
// operand types. Control flow, variable access, drop, select and reference
// instructions are handled by the compiler.
var Table = buildTable()

func sig(params []api.ValueType, results ...api.ValueType) OpType {
	return OpType{Params: params, Results: results}
}

func vt(ts ...api.ValueType) []api.ValueType { return ts }

func buildTable() map[string]OpType {
	t := make(map[string]OpType, 256)

	for _, ty := range []api.ValueType{i32, i64} {
		p := TypeName(ty) + "."
		t[p+"const"] = sig(nil, ty)
		t[p+"eqz"] = sig(vt(ty), i32)
		for _, op := range []string{"clz", "ctz", "popcnt"} {
			t[p+op] = sig(vt(ty), ty)
		}
		for _, op := range []string{
			"add", "sub", "mul", "div_s", "div_u", "rem_s", "rem_u",
			"and", "or", "xor", "shl", "shr_s", "shr_u", "rotl", "rotr",
		} {
			t[p+op] = sig(vt(ty, ty), ty)
		}
		for _, op := range []string{"eq", "ne", "lt_s", "lt_u", "gt_s", "gt_u", "le_s", "le_u", "ge_s", "ge_u"} {
			t[p+op] = sig(vt(ty, ty), i32)
		}
	}

	for _, ty := range []api.ValueType{f32, f64} {
		p := TypeName(ty) + "."
		t[p+"const"] = sig(nil, ty)
		for _, op := range []string{"abs", "neg", "ceil", "floor", "trunc", "nearest", "sqrt"} {
			t[p+op] = sig(vt(ty), ty)
		}
		for _, op := range []string{"add", "sub", "mul", "div", "min", "max", "copysign"} {
			t[p+op] = sig(vt(ty, ty), ty)
		}
		for _, op := range []string{"eq", "ne", "lt", "gt", "le", "ge"} {
			t[p+op] = sig(vt(ty, ty), i32)
		}
	}

	// Conversions
	t["i32.wrap_i64"] = sig(vt(i64), i32)
	t["i64.extend_i32_s"] = sig(vt(i32), i64)
	t["i64.extend_i32_u"] = sig(vt(i32), i64)
	for _, from := range []api.ValueType{f32, f64} {
		for _, s := range []string{"_s", "_u"} {
			t["i32.trunc_"+TypeName(from)+s] = sig(vt(from), i32)
			t["i64.trunc_"+TypeName(from)+s] = sig(vt(from), i64)
			t["i32.trunc_sat_"+TypeName(from)+s] = sig(vt(from), i32)
			t["i64.trunc_sat_"+TypeName(from)+s] = sig(vt(from), i64)
		}
	}
	for _, from := range []api.ValueType{i32, i64} {
		for _, s := range []string{"_s", "_u"} {
			t["f32.convert_"+TypeName(from)+s] = sig(vt(from), f32)
			t["f64.convert_"+TypeName(from)+s] = sig(vt(from), f64)
		}
	}
	t["f32.demote_f64"] = sig(vt(f64), f32)
	t["f64.promote_f32"] = sig(vt(f32), f64)
	t["i32.reinterpret_f32"] = sig(vt(f32), i32)
	t["i64.reinterpret_f64"] = sig(vt(f64), i64)
	t["f32.reinterpret_i32"] = sig(vt(i32), f32)
	t["f64.reinterpret_i64"] = sig(vt(i64), f64)

	// Sign extension
	t["i32.extend8_s"] = sig(vt(i32), i32)
	t["i32.extend16_s"] = sig(vt(i32), i32)
	t["i64.extend8_s"] = sig(vt(i64), i64)
	t["i64.extend16_s"] = sig(vt(i64), i64)
	t["i64.extend32_s"] = sig(vt(i64), i64)

	// Memory
	loads := map[api.ValueType][]string{
		i32: {"load", "load8_s", "load8_u", "load16_s", "load16_u"},
		i64: {"load", "load8_s", "load8_u", "load16_s", "load16_u", "load32_s", "load32_u"},
		f32: {"load"},
		f64: {"load"},
	}
	stores := map[api.ValueType][]string{
		i32: {"store", "store8", "store16"},
		i64: {"store", "store8", "store16", "store32"},
		f32: {"store"},
		f64: {"store"},
	}
	for ty, ops := range loads {
		for _, op := range ops {
			t[TypeName(ty)+"."+op] = sig(vt(i32), ty)
		}
	}
	for ty, ops := range stores {
		for _, op := range ops {
			t[TypeName(ty)+"."+op] = sig(vt(i32, ty))
		}
	}
	t["memory.size"] = sig(nil, i32)
	t["memory.grow"] = sig(vt(i32), i32)
	t["memory.fill"] = sig(vt(i32, i32, i32))
	t["memory.copy"] = sig(vt(i32, i32, i32))

	t["nop"] = sig(nil)

	return t
}

// TypeName returns the text name of a value type.
func TypeName(t api.ValueType) string {
	if t == ValueTypeFuncref {
		return "funcref"
	}
	return api.ValueTypeName(t)
}

// ParseValueType is the inverse of TypeName.
func ParseValueType(name string) (api.ValueType, bool) {
	switch name {
	case "i32":
		return api.ValueTypeI32, true
	case "i64":
		return api.ValueTypeI64, true
	case "f32":
		return api.ValueTypeF32, true
	case "f64":
		return api.ValueTypeF64, true
	case "externref":
		return api.ValueTypeExternref, true
	case "funcref":
		return ValueTypeFuncref, true
	}
	return 0, false
}

// Descriptor converts a value type to the verifier's vocabulary.
func Descriptor(t api.ValueType) types.Descriptor {
	return types.Of(types.Type(TypeName(t)))
}

// pops lists the params top first.
func (o OpType) pops() []types.Descriptor {
	out := make([]types.Descriptor, len(o.Params))
	for i, p := range o.Params {
		out[len(o.Params)-1-i] = Descriptor(p)
	}
	return out
}

func (o OpType) pushes() []types.Descriptor {
	out := make([]types.Descriptor, len(o.Results))
	for i, r := range o.Results {
		out[i] = Descriptor(r)
	}
	return out
}
