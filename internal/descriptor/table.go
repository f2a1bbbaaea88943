package descriptor

import (
	"fmt"
	"sort"

	"github.com/dshills/settler/internal/value"
)

// Table is a read-only lookup of setting descriptors. Build it once at
// startup with NewTable; it must not be mutated afterwards.
type Table struct {
	byKey      map[string]*Descriptor
	keys       []string
	namespaces []string
}

// NewTable builds a table from the given descriptors. Key order is
// preserved for iteration. Duplicate keys are an error.
func NewTable(descs []Descriptor) (*Table, error) {
	t := &Table{
		byKey: make(map[string]*Descriptor, len(descs)),
		keys:  make([]string, 0, len(descs)),
	}

	seen := make(map[string]bool)
	for i := range descs {
		d := &descs[i]
		if t.byKey[d.Key] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSetting, d.Key)
		}
		t.byKey[d.Key] = d
		t.keys = append(t.keys, d.Key)

		ns := Namespace(d.Key)
		if !seen[ns] {
			seen[ns] = true
			t.namespaces = append(t.namespaces, ns)
		}
	}
	sort.Strings(t.namespaces)

	return t, nil
}

// Describe returns the descriptor for a key. The second return is false
// for keys this table does not manage; callers treat that as
// "unsupported — ignore silently", since the store may contain keys the
// panel does not manage.
func (t *Table) Describe(key string) (*Descriptor, bool) {
	d, ok := t.byKey[key]
	return d, ok
}

// Keys returns the managed setting keys in registration order. The
// returned slice must not be modified.
func (t *Table) Keys() []string {
	return t.keys
}

// Namespaces returns the sorted top-level namespaces covering every
// managed key. Store change subscriptions are scoped to these.
func (t *Table) Namespaces() []string {
	return t.namespaces
}

// Len returns the number of managed settings.
func (t *Table) Len() int {
	return len(t.keys)
}

// Builtin returns the descriptor table for the preview settings panel.
func Builtin() *Table {
	t, err := NewTable([]Descriptor{
		{
			Key:     "preview.fontSize",
			Label:   "Font Size",
			Kind:    value.KindInt,
			Default: value.Int(14),
			Minimum: MinValue(8),
			Maximum: MaxValue(72),
			Format:  FormatPixels,
		},
		{
			Key:     "preview.lineHeight",
			Label:   "Line Height",
			Kind:    value.KindFloat,
			Default: value.Float(1.6),
			Minimum: MinValue(0),
			Maximum: MaxValue(98),
			Step:    StepValue(0.1),
			Format:  FormatScaled,
		},
		{
			Key:     "preview.fontFamily",
			Label:   "Font Family",
			Kind:    value.KindString,
			Default: value.String("system-ui"),
		},
		{
			Key:     "preview.wordWrap",
			Label:   "Word Wrap",
			Kind:    value.KindBool,
			Default: value.Bool(true),
		},
		{
			Key:     "ui.theme",
			Label:   "Theme",
			Kind:    value.KindString,
			Default: value.String("dark"),
			Enum:    []string{"dark", "light", "solarized"},
		},
		{
			Key:     "ui.showLineNumbers",
			Label:   "Line Numbers",
			Kind:    value.KindBool,
			Default: value.Bool(true),
		},
	})
	if err != nil {
		// The builtin table is static; a duplicate here is a programming
		// error caught by the table tests.
		panic(err)
	}
	return t
}
