// Package descriptor provides the setting descriptor table.
//
// The table maintains definitions of all panel-managed settings with their
// value kinds, numeric ranges, display defaults, and formatting rules. It
// is built once at startup and read-only thereafter. Keys absent from the
// table are not managed by the panel and are skipped silently by callers.
package descriptor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/settler/internal/value"
)

// Errors returned by descriptor operations.
var (
	// ErrNotFound indicates the setting key is not in the table.
	ErrNotFound = errors.New("setting not found")

	// ErrDuplicateSetting indicates an attempt to register a duplicate key.
	ErrDuplicateSetting = errors.New("setting already registered")
)

// ValidationError describes a rejected committed value. Validation runs on
// the commit path only; the reconciliation path displays best-effort.
type ValidationError struct {
	// Key is the setting key that failed validation.
	Key string
	// Message describes the failure.
	Message string
	// Value is the rejected value.
	Value value.Value
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Key, e.Message, e.Value)
}

// Format selects the display formatting rule for a setting.
type Format uint8

const (
	// FormatPlain renders the value as-is.
	FormatPlain Format = iota

	// FormatPixels renders a numeric value with a "px" suffix;
	// zero renders as "Auto".
	FormatPixels

	// FormatScaled renders a numeric value using the line-height quirk:
	// zero is "Auto", values at or below ScaledPixelThreshold are
	// multipliers (plain number), values above it are absolute pixels.
	FormatScaled
)

// ScaledPixelThreshold is the boundary between multiplier and absolute
// pixel interpretation for FormatScaled settings. A value of exactly 8
// classifies as a multiplier.
const ScaledPixelThreshold = 8.0

// String returns the format rule name.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatPixels:
		return "pixels"
	case FormatScaled:
		return "scaled"
	default:
		return "unknown"
	}
}

// Descriptor defines a panel-managed setting with its metadata.
// Descriptors are created once at startup and never mutated.
type Descriptor struct {
	// Key is the dot-separated setting key (e.g., "preview.fontSize").
	Key string

	// Label is the human-readable control label.
	Label string

	// Kind is the setting's permitted value kind.
	Kind value.Kind

	// Default is the value displayed when the store has no override.
	Default value.Value

	// Minimum for numeric kinds (nil means no minimum).
	Minimum *float64

	// Maximum for numeric kinds (nil means no maximum).
	Maximum *float64

	// Step is the control increment for numeric kinds (nil means 1).
	Step *float64

	// Enum lists allowed values for dropdown string settings.
	Enum []string

	// Format is the display formatting rule.
	Format Format
}

// Validate checks a committed value against the descriptor's range and
// enum constraints. Absent is always valid (it clears the override).
func (d *Descriptor) Validate(v value.Value) error {
	if v.IsAbsent() {
		return nil
	}

	if v.Kind() != d.Kind {
		return &ValidationError{
			Key:     d.Key,
			Message: fmt.Sprintf("expected %s, got %s", d.Kind, v.Kind()),
			Value:   v,
		}
	}

	if d.Kind == value.KindInt || d.Kind == value.KindFloat {
		f := v.AsFloat()
		if d.Minimum != nil && f < *d.Minimum {
			return &ValidationError{
				Key:     d.Key,
				Message: fmt.Sprintf("value is less than minimum %v", *d.Minimum),
				Value:   v,
			}
		}
		if d.Maximum != nil && f > *d.Maximum {
			return &ValidationError{
				Key:     d.Key,
				Message: fmt.Sprintf("value is greater than maximum %v", *d.Maximum),
				Value:   v,
			}
		}
	}

	if len(d.Enum) > 0 && v.Kind() == value.KindString {
		if !containsString(d.Enum, v.AsString()) {
			return &ValidationError{
				Key:     d.Key,
				Message: fmt.Sprintf("value must be one of: %v", d.Enum),
				Value:   v,
			}
		}
	}

	return nil
}

// Display formats a value for presentation per the descriptor's format
// rule. Absent displays as the descriptor's default. Out-of-range or
// wrong-kind values format best-effort; the store is the authority on
// validity and Display never rejects.
func (d *Descriptor) Display(v value.Value) string {
	if v.IsAbsent() {
		v = d.Default
	}
	if v.IsAbsent() {
		return ""
	}

	switch d.Format {
	case FormatPixels:
		if isNumeric(v) {
			f := v.AsFloat()
			if f == 0 {
				return "Auto"
			}
			return formatNumber(f) + "px"
		}
	case FormatScaled:
		if isNumeric(v) {
			f := v.AsFloat()
			switch {
			case f == 0:
				return "Auto"
			case f > ScaledPixelThreshold:
				return formatNumber(f) + "px"
			default:
				return formatNumber(f)
			}
		}
	}

	return v.String()
}

// isNumeric reports whether the value carries a numeric payload.
func isNumeric(v value.Value) bool {
	return v.Kind() == value.KindInt || v.Kind() == value.KindFloat
}

// formatNumber renders a float with the shortest representation that
// round-trips, so 20.0 displays as "20" and 1.6 as "1.6".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Namespace returns the top-level namespace of a dotted key, or the key
// itself when it has no dot.
func Namespace(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}
	return key
}

// containsString checks if a slice contains a string.
func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// MinValue creates a pointer to a float64 for use as Minimum.
func MinValue(v float64) *float64 {
	return &v
}

// MaxValue creates a pointer to a float64 for use as Maximum.
func MaxValue(v float64) *float64 {
	return &v
}

// StepValue creates a pointer to a float64 for use as Step.
func StepValue(v float64) *float64 {
	return &v
}
