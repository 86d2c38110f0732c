package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Bridge provides utilities for Go-Lua interoperability.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue converts a Lua value to a Go value. Tables become []any when
// they are sequences and map[string]any otherwise.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return b.tableToGoWithVisited(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func (b *Bridge) tableToGoWithVisited(t *lua.LTable, visited map[*lua.LTable]bool) any {
	if n := t.Len(); n > 0 {
		count := 0
		t.ForEach(func(_, _ lua.LValue) { count++ })
		if count == n {
			arr := make([]any, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = b.toGoValueWithVisited(t.RawGetInt(i), visited)
			}
			return arr
		}
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = b.toGoValueWithVisited(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case []string:
		t := b.L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case []any:
		t := b.L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, b.ToLuaValue(e))
		}
		return t
	case map[string]any:
		t := b.L.NewTable()
		for k, e := range val {
			t.RawSetString(k, b.ToLuaValue(e))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := b.L.NewUserData()
		ud.Value = v
		return ud
	}
}

// StringArgs converts the arguments of L from index start to the top of
// the stack into strings. Numbers are converted; other types raise.
func StringArgs(L *lua.LState, start int) []string {
	top := L.GetTop()
	out := make([]string, 0, max(top-start+1, 0))
	for i := start; i <= top; i++ {
		out = append(out, L.CheckString(i))
	}
	return out
}

// ReadOnlyTable returns a proxy whose string fields are computed by get
// on each access, falling back to fallback when get returns LNil.
// Assigning to any field raises an error.
func (b *Bridge) ReadOnlyTable(get func(name string) lua.LValue, fallback *lua.LTable) *lua.LTable {
	proxy := b.L.NewTable()
	mt := b.L.NewTable()
	mt.RawSetString("__index", b.L.NewFunction(func(L *lua.LState) int {
		k := L.Get(2)
		v := lua.LValue(lua.LNil)
		if name, ok := k.(lua.LString); ok && get != nil {
			v = get(string(name))
		}
		if v == lua.LNil && fallback != nil {
			v = fallback.RawGet(k)
		}
		L.Push(v)
		return 1
	}))
	mt.RawSetString("__newindex", b.L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("read-only parameter: %s", L.Get(2).String())
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("locked"))
	b.L.SetMetatable(proxy, mt)
	return proxy
}

// Status interprets a function's results as a widget status: no value,
// nil, true or 0 succeed; false fails; any other number is returned as is.
func Status(results []lua.LValue) int {
	if len(results) == 0 {
		return 0
	}
	switch v := results[0].(type) {
	case lua.LBool:
		if v {
			return 0
		}
		return 1
	case lua.LNumber:
		return int(v)
	default:
		return 0
	}
}
