package preset

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/settler/internal/descriptor"
)

// TOML preset file format:
//
//	[[preset]]
//	name = "compact"
//	[preset.values]
//	"preview.fontSize" = 12
//	"preview.lineHeight" = 1.2

// tomlFile mirrors the preset file structure.
type tomlFile struct {
	Presets []tomlPreset `toml:"preset"`
}

type tomlPreset struct {
	Name   string         `toml:"name"`
	Values map[string]any `toml:"values"`
}

// LoadTOML loads presets from a TOML file, validating every entry
// against the descriptor table.
func LoadTOML(path string, table *descriptor.Table) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTOML(data, table)
}

// ParseTOML parses preset definitions from TOML content.
func ParseTOML(data []byte, table *descriptor.Table) ([]Preset, error) {
	var file tomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}

	presets := make([]Preset, 0, len(file.Presets))
	for _, tp := range file.Presets {
		if tp.Name == "" {
			return nil, fmt.Errorf("preset without a name")
		}
		p, err := fromRawValues(tp.Name, tp.Values, table)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}
