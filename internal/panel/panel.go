// Package panel provides the terminal control surface for the settings
// panel: one row per managed setting, adjusted with the keyboard. The
// panel forwards finalized user changes to the engine and displays
// whatever the engine pushes back; it never originates a value on its
// own and a pushed value never loops back into a commit.
package panel

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/dshills/settler/internal/descriptor"
	"github.com/dshills/settler/internal/value"
)

// Callbacks connect user actions to the engine.
type Callbacks struct {
	// Commit is called when the user finalizes a change. The engine
	// coerces and validates raw; errors surface as notices.
	Commit func(key string, raw any) error

	// ApplyPreset applies the recommended preset.
	ApplyPreset func() error

	// Reset clears every managed override.
	Reset func() error
}

// row is one rendered control.
type row struct {
	desc    *descriptor.Descriptor
	display string
	// current is the control's working value for keyboard adjustment.
	// It tracks the last pushed or committed value.
	current value.Value
}

// Panel is a keyboard-driven settings panel over a tcell screen.
type Panel struct {
	id        string
	screen    tcell.Screen
	table     *descriptor.Table
	callbacks Callbacks

	rows     []*row
	byKey    map[string]*row
	selected int
	notice   string

	editing bool
	editBuf string
}

// New creates a panel for the given descriptor table on a screen. The
// screen must already be initialized; the caller owns its lifecycle.
func New(screen tcell.Screen, table *descriptor.Table, callbacks Callbacks) *Panel {
	p := &Panel{
		id:        uuid.NewString(),
		screen:    screen,
		table:     table,
		callbacks: callbacks,
		byKey:     make(map[string]*row),
	}

	for _, key := range table.Keys() {
		d, ok := table.Describe(key)
		if !ok {
			continue
		}
		r := &row{desc: d, display: d.Display(value.Absent), current: d.Default}
		p.rows = append(p.rows, r)
		p.byKey[key] = r
	}

	return p
}

// ID returns the panel's unique instance identifier.
func (p *Panel) ID() string {
	return p.id
}

// pushEvent carries an engine value push onto the panel event loop.
type pushEvent struct {
	tcell.EventTime
	key     string
	display string
}

// noticeEvent carries an advisory message onto the panel event loop.
type noticeEvent struct {
	tcell.EventTime
	message string
}

// PushValue sets a control's displayed value. It is the engine's push
// path and may be called from any goroutine: the push is posted to the
// screen's event queue and applied on the event loop, where all panel
// state lives. It does not generate a commit.
func (p *Panel) PushValue(key, display string) {
	ev := &pushEvent{key: key, display: display}
	ev.SetEventNow()
	// A push dropped on queue overflow is recovered by the next pass,
	// which re-pushes every non-stale key.
	_ = p.screen.PostEvent(ev)
}

// ShowNotice displays a transient advisory message. Like PushValue it
// is safe from any goroutine.
func (p *Panel) ShowNotice(message string) {
	ev := &noticeEvent{message: message}
	ev.SetEventNow()
	_ = p.screen.PostEvent(ev)
}

// Run drives the panel event loop until the user quits. Engine pushes
// and user input arrive through the same queue, so panel state is only
// ever touched from this loop.
func (p *Panel) Run() {
	p.render()
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			// Screen finalized.
			return
		}
		if p.handleEvent(ev) {
			return
		}
	}
}

// handleEvent processes one event from the queue. It reports whether
// the panel should quit.
func (p *Panel) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.screen.Sync()
		p.render()
	case *tcell.EventKey:
		return p.handleKey(ev)
	case *pushEvent:
		p.applyPush(ev.key, ev.display)
	case *noticeEvent:
		p.notice = ev.message
		p.render()
	}
	return false
}

// applyPush updates a control from an engine push.
func (p *Panel) applyPush(key, display string) {
	r, ok := p.byKey[key]
	if !ok {
		return
	}
	r.display = display
	r.current = parseDisplay(r.desc, display)
	p.render()
}

// handleKey processes one key event. It reports whether the panel
// should quit.
func (p *Panel) handleKey(ev *tcell.EventKey) bool {
	if p.editing {
		p.handleEditKey(ev)
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		p.move(-1)
	case tcell.KeyDown:
		p.move(1)
	case tcell.KeyLeft:
		p.adjust(-1)
	case tcell.KeyRight:
		p.adjust(1)
	case tcell.KeyEnter:
		p.activate()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			p.move(-1)
		case 'j':
			p.move(1)
		case 'h':
			p.adjust(-1)
		case 'l':
			p.adjust(1)
		case 'p':
			if p.callbacks.ApplyPreset != nil {
				_ = p.callbacks.ApplyPreset()
			}
		case 'r':
			if p.callbacks.Reset != nil {
				_ = p.callbacks.Reset()
			}
		case ' ':
			p.activate()
		}
	}

	p.render()
	return false
}

// handleEditKey processes key events while a text field is open.
func (p *Panel) handleEditKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		p.editing = false
		p.editBuf = ""
	case tcell.KeyEnter:
		p.commitEdit()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(p.editBuf) > 0 {
			p.editBuf = p.editBuf[:len(p.editBuf)-1]
		}
	case tcell.KeyRune:
		p.editBuf += string(ev.Rune())
	}
	p.render()
}

// move changes the selected row.
func (p *Panel) move(delta int) {
	next := p.selected + delta
	if next < 0 || next >= len(p.rows) {
		return
	}
	p.selected = next
}

// adjust steps a numeric setting or cycles an enum. Each keypress is a
// finalized change; there is no intermediate drag state on a keyboard.
func (p *Panel) adjust(direction int) {
	r := p.currentRow()
	if r == nil {
		return
	}
	d := r.desc

	switch {
	case len(d.Enum) > 0:
		p.commit(r, cycleEnum(d, r.current, direction))
	case d.Kind == value.KindInt:
		step := int64(1)
		if d.Step != nil {
			step = int64(*d.Step)
		}
		next := clampNumeric(d, float64(r.current.AsInt()+step*int64(direction)))
		p.commit(r, int64(next))
	case d.Kind == value.KindFloat:
		step := 1.0
		if d.Step != nil {
			step = *d.Step
		}
		next := clampNumeric(d, roundStep(r.current.AsFloat()+step*float64(direction), step))
		p.commit(r, next)
	}
}

// activate toggles a boolean or opens the text editor for a string.
func (p *Panel) activate() {
	r := p.currentRow()
	if r == nil {
		return
	}
	d := r.desc

	switch {
	case d.Kind == value.KindBool:
		p.commit(r, !r.current.AsBool())
	case len(d.Enum) > 0:
		p.commit(r, cycleEnum(d, r.current, 1))
	case d.Kind == value.KindString:
		p.editing = true
		p.editBuf = r.current.AsString()
	case d.Kind == value.KindInt || d.Kind == value.KindFloat:
		p.editing = true
		p.editBuf = r.current.String()
	}
}

// commitEdit finalizes the open text field.
func (p *Panel) commitEdit() {
	r := p.currentRow()
	p.editing = false
	buf := p.editBuf
	p.editBuf = ""
	if r == nil {
		return
	}
	p.commit(r, buf)
}

// commit forwards a finalized change to the engine and updates the
// control's working value optimistically; the authoritative display
// arrives later through PushValue.
func (p *Panel) commit(r *row, raw any) {
	if p.callbacks.Commit == nil {
		return
	}
	if err := p.callbacks.Commit(r.desc.Key, raw); err != nil {
		// The engine already surfaced a notice; keep the old value.
		return
	}
	if v, err := value.Coerce(raw, r.desc.Kind); err == nil {
		r.current = v
		r.display = r.desc.Display(v)
	}
}

// currentRow returns the selected row.
func (p *Panel) currentRow() *row {
	if p.selected < 0 || p.selected >= len(p.rows) {
		return nil
	}
	return p.rows[p.selected]
}

// Display returns the currently displayed value of a key. Tests use it
// to observe panel state.
func (p *Panel) Display(key string) string {
	if r, ok := p.byKey[key]; ok {
		return r.display
	}
	return ""
}

// Notice returns the current advisory message.
func (p *Panel) Notice() string {
	return p.notice
}

// cycleEnum returns the next enum member in the given direction.
func cycleEnum(d *descriptor.Descriptor, current value.Value, direction int) string {
	idx := 0
	for i, member := range d.Enum {
		if member == current.AsString() {
			idx = i
			break
		}
	}
	idx = (idx + direction + len(d.Enum)) % len(d.Enum)
	return d.Enum[idx]
}

// clampNumeric bounds a numeric value to the descriptor's range.
func clampNumeric(d *descriptor.Descriptor, f float64) float64 {
	if d.Minimum != nil && f < *d.Minimum {
		f = *d.Minimum
	}
	if d.Maximum != nil && f > *d.Maximum {
		f = *d.Maximum
	}
	return f
}

// roundStep snaps a value to its step grid to avoid float drift from
// repeated keypresses.
func roundStep(f, step float64) float64 {
	if step <= 0 {
		return f
	}
	snapped := float64(int64(f/step+0.5)) * step
	// Trim to a sane precision for display.
	s := strconv.FormatFloat(snapped, 'f', 2, 64)
	out, _ := strconv.ParseFloat(s, 64)
	return out
}

// parseDisplay recovers a working value from a formatted display string
// so keyboard adjustment can continue from what the user sees.
func parseDisplay(d *descriptor.Descriptor, display string) value.Value {
	switch d.Kind {
	case value.KindBool:
		if b, err := strconv.ParseBool(display); err == nil {
			return value.Bool(b)
		}
	case value.KindInt, value.KindFloat:
		s := display
		if s == "Auto" {
			s = "0"
		}
		s = strings.TrimSuffix(s, "px")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if d.Kind == value.KindInt {
				return value.Int(int64(f))
			}
			return value.Float(f)
		}
	case value.KindString:
		return value.String(display)
	}
	return d.Default
}
