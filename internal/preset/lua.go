package preset

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/settler/internal/descriptor"
)

// Lua preset script format: the script calls the preset() builtin once
// per preset it defines.
//
//	preset {
//	    name = "focus",
//	    values = {
//	        ["preview.fontSize"] = 18,
//	        ["preview.lineHeight"] = 1.8,
//	    },
//	}

// LoadLua runs a Lua preset script and returns the presets it defines,
// validated against the descriptor table.
//
// The Lua state is private to this call and discarded afterwards;
// scripts get the standard library but no access to the store or panel.
func LoadLua(path string, table *descriptor.Table) ([]Preset, error) {
	L := lua.NewState()
	defer L.Close()

	var (
		presets []Preset
		loadErr error
	)

	L.SetGlobal("preset", L.NewFunction(func(L *lua.LState) int {
		if loadErr != nil {
			return 0
		}
		tbl := L.CheckTable(1)

		name, err := luaName(tbl)
		if err != nil {
			loadErr = err
			return 0
		}
		raw, err := luaValues(tbl, name)
		if err != nil {
			loadErr = err
			return 0
		}

		p, err := fromRawValues(name, raw, table)
		if err != nil {
			loadErr = err
			return 0
		}
		presets = append(presets, p)
		return 0
	}))

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("preset script %s: %w", path, err)
	}
	if loadErr != nil {
		return nil, fmt.Errorf("preset script %s: %w", path, loadErr)
	}
	return presets, nil
}

// luaName extracts the required name field from a preset table.
func luaName(tbl *lua.LTable) (string, error) {
	lv := tbl.RawGetString("name")
	s, ok := lv.(lua.LString)
	if !ok || s == "" {
		return "", fmt.Errorf("preset without a name")
	}
	return string(s), nil
}

// luaValues extracts the values table as loosely-typed Go values.
func luaValues(tbl *lua.LTable, name string) (map[string]any, error) {
	lv := tbl.RawGetString("values")
	values, ok := lv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("preset %q: missing values table", name)
	}

	raw := make(map[string]any)
	var convErr error
	values.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			convErr = fmt.Errorf("preset %q: non-string key %v", name, k)
			return
		}
		switch val := v.(type) {
		case lua.LBool:
			raw[string(key)] = bool(val)
		case lua.LNumber:
			raw[string(key)] = float64(val)
		case lua.LString:
			raw[string(key)] = string(val)
		default:
			convErr = fmt.Errorf("preset %q: setting %q has unsupported type %s", name, key, v.Type())
		}
	})
	if convErr != nil {
		return nil, convErr
	}
	return raw, nil
}
