package script

import (
	lua "github.com/yuin/gopher-lua"
)

// StringSlice converts items to a Lua array.
func (s *State) StringSlice(items []string) *lua.LTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.L.NewTable()
	for _, it := range items {
		t.Append(lua.LString(it))
	}
	return t
}

// Field returns t[key] as a string, or def if absent or not a string.
func Field(t *lua.LTable, key, def string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return def
}

// IntField returns t[key] as an int, or def if absent or not a number.
func IntField(t *lua.LTable, key string, def int) int {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(v)
	}
	return def
}

// BoolField returns t[key] as a bool, or def if absent.
func BoolField(t *lua.LTable, key string, def bool) bool {
	if v, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(v)
	}
	return def
}

// Tables returns the table elements of the Lua array v in order.
func Tables(v lua.LValue) []*lua.LTable {
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []*lua.LTable
	arr.ForEach(func(_, val lua.LValue) {
		if t, ok := val.(*lua.LTable); ok {
			out = append(out, t)
		}
	})
	return out
}

// IntPair reads a two-element Lua array {a, b}.
func IntPair(t *lua.LTable) (int, int, bool) {
	a, ok1 := t.RawGetInt(1).(lua.LNumber)
	b, ok2 := t.RawGetInt(2).(lua.LNumber)
	return int(a), int(b), ok1 && ok2
}
