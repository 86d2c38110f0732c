package lua

import (
	"reflect"
	"strings"
	"testing"

	glua "github.com/yuin/gopher-lua"
)

func TestBridgeToGoValue(t *testing.T) {
	state := newTestState(t)
	b := NewBridge(state.L)

	tests := []struct {
		name string
		in   glua.LValue
		want any
	}{
		{"nil", glua.LNil, nil},
		{"true", glua.LTrue, true},
		{"int", glua.LNumber(42), int64(42)},
		{"float", glua.LNumber(1.5), 1.5},
		{"string", glua.LString("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.ToGoValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToGoValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBridgeToGoValueTable(t *testing.T) {
	state := newTestState(t)
	b := NewBridge(state.L)
	if err := state.DoString(`arr = {"a", "b"}; obj = {k = 1}; cyc = {}; cyc.self = cyc`); err != nil {
		t.Fatal(err)
	}

	if got, want := b.ToGoValue(state.GetGlobal("arr")), []any{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("arr = %#v, want %#v", got, want)
	}
	if got, want := b.ToGoValue(state.GetGlobal("obj")), map[string]any{"k": int64(1)}; !reflect.DeepEqual(got, want) {
		t.Errorf("obj = %#v, want %#v", got, want)
	}
	got, ok := b.ToGoValue(state.GetGlobal("cyc")).(map[string]any)
	if !ok || got["self"] != nil {
		t.Errorf("cyc = %#v, want self reference broken", got)
	}
}

func TestBridgeToLuaValue(t *testing.T) {
	state := newTestState(t)
	b := NewBridge(state.L)

	if v := b.ToLuaValue(nil); v != glua.LNil {
		t.Errorf("ToLuaValue(nil) = %v", v)
	}
	if v := b.ToLuaValue(7); v != glua.LNumber(7) {
		t.Errorf("ToLuaValue(7) = %v", v)
	}
	if v := b.ToLuaValue([]byte("ab")); v != glua.LString("ab") {
		t.Errorf("ToLuaValue([]byte) = %v", v)
	}
	tbl, ok := b.ToLuaValue([]string{"x", "y"}).(*glua.LTable)
	if !ok || tbl.Len() != 2 || tbl.RawGetInt(2) != glua.LString("y") {
		t.Errorf("ToLuaValue([]string) = %v", tbl)
	}
	m, ok := b.ToLuaValue(map[string]any{"n": 1, "l": []any{true}}).(*glua.LTable)
	if !ok || m.RawGetString("n") != glua.LNumber(1) {
		t.Errorf("ToLuaValue(map) = %v", m)
	}
	if ud, ok := b.ToLuaValue(struct{}{}).(*glua.LUserData); !ok || ud.Value != struct{}{} {
		t.Errorf("ToLuaValue(struct) = %v, want userdata", ud)
	}
}

func TestReadOnlyTable(t *testing.T) {
	state := newTestState(t)
	b := NewBridge(state.L)
	n := 0
	fallback := state.L.NewTable()
	fallback.RawSetString("fn", glua.LString("module"))
	proxy := b.ReadOnlyTable(func(name string) glua.LValue {
		if name == "COUNT" {
			n++
			return glua.LNumber(n)
		}
		return glua.LNil
	}, fallback)
	state.SetGlobal("p", proxy)

	if err := state.DoString(`a = p.COUNT; b = p.COUNT; f = p.fn; m = p.missing`); err != nil {
		t.Fatal(err)
	}
	if a, bb := state.GetGlobal("a"), state.GetGlobal("b"); a != glua.LNumber(1) || bb != glua.LNumber(2) {
		t.Errorf("COUNT reads = %v, %v; want live values 1, 2", a, bb)
	}
	if f := state.GetGlobal("f"); f != glua.LString("module") {
		t.Errorf("fallback field = %v", f)
	}
	if m := state.GetGlobal("m"); m != glua.LNil {
		t.Errorf("missing field = %v", m)
	}

	err := state.DoString(`p.COUNT = 5`)
	if err == nil || !strings.Contains(err.Error(), "read-only parameter: COUNT") {
		t.Errorf("assignment error = %v", err)
	}
	if err := state.DoString(`setmetatable(p, nil)`); err == nil {
		t.Error("setmetatable on locked proxy should fail")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		in   []glua.LValue
		want int
	}{
		{"no results", nil, 0},
		{"nil", []glua.LValue{glua.LNil}, 0},
		{"true", []glua.LValue{glua.LTrue}, 0},
		{"false", []glua.LValue{glua.LFalse}, 1},
		{"number", []glua.LValue{glua.LNumber(3)}, 3},
		{"zero", []glua.LValue{glua.LNumber(0)}, 0},
		{"string", []glua.LValue{glua.LString("x")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.in); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}
