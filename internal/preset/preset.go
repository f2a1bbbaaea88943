// Package preset provides named bulk setting tables.
//
// A preset is an ordered list of (key, value) pairs applied through the
// engine's normal write path. Presets come from three sources: the
// built-in recommended table, TOML preset files, and Lua preset scripts.
// File-loaded presets are validated against the descriptor table at load
// time so a bad preset file fails early instead of mid-apply.
package preset

import (
	"fmt"
	"sort"

	"github.com/dshills/settler/internal/descriptor"
	"github.com/dshills/settler/internal/value"
)

// Pair is a single setting assignment within a preset.
type Pair struct {
	// Key is the setting key.
	Key string

	// Value is the value to write. Absent clears the override.
	Value value.Value
}

// Preset is a named, ordered list of setting assignments.
type Preset struct {
	// Name identifies the preset.
	Name string

	// Pairs are applied in order.
	Pairs []Pair
}

// Recommended returns the built-in recommended preset for the preview
// settings panel.
func Recommended() Preset {
	return Preset{
		Name: "recommended",
		Pairs: []Pair{
			{Key: "preview.fontSize", Value: value.Int(16)},
			{Key: "preview.lineHeight", Value: value.Float(1.6)},
			{Key: "preview.fontFamily", Value: value.String("Georgia, serif")},
			{Key: "preview.wordWrap", Value: value.Bool(true)},
			{Key: "ui.theme", Value: value.String("dark")},
		},
	}
}

// fromRawValues builds a preset from loosely-typed values keyed by
// setting name, coercing and validating each against the descriptor
// table. Pairs are ordered by key for deterministic application, since
// the source formats carry no ordering.
func fromRawValues(name string, raw map[string]any, table *descriptor.Table) (Preset, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := Preset{Name: name, Pairs: make([]Pair, 0, len(keys))}
	for _, k := range keys {
		d, ok := table.Describe(k)
		if !ok {
			return Preset{}, fmt.Errorf("preset %q: unknown setting %q", name, k)
		}
		v, err := value.Coerce(raw[k], d.Kind)
		if err != nil {
			return Preset{}, fmt.Errorf("preset %q: setting %q: %w", name, k, err)
		}
		if err := d.Validate(v); err != nil {
			return Preset{}, fmt.Errorf("preset %q: %w", name, err)
		}
		p.Pairs = append(p.Pairs, Pair{Key: k, Value: v})
	}
	return p, nil
}
