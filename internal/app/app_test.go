package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func newTestApp(t *testing.T, opts Options) *Application {
	t.Helper()

	// A long quiet period keeps the debounced pass from firing in the
	// background while a test inspects state.
	if opts.QuietPeriod == 0 {
		opts.QuietPeriod = time.Hour
	}

	application, err := New(opts)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	t.Cleanup(application.Shutdown)

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init simulation screen: %v", err)
	}
	application.SetScreen(screen)

	if err := application.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return application
}

func TestStartPopulatesPanel(t *testing.T) {
	application := newTestApp(t, Options{InMemory: true})

	p := application.Panel()
	if p == nil {
		t.Fatal("no panel after start")
	}
	if got := p.Display("preview.fontSize"); got != "14px" {
		t.Errorf("fontSize display = %q, want %q", got, "14px")
	}
	if got := p.Display("ui.theme"); got != "dark" {
		t.Errorf("theme display = %q, want %q", got, "dark")
	}
}

func TestCommitReachesStore(t *testing.T) {
	application := newTestApp(t, Options{InMemory: true})

	if err := application.commit("preview.fontSize", 16); err != nil {
		t.Fatalf("commit: %v", err)
	}

	raw, ok := application.store.Get("preview.fontSize")
	if !ok {
		t.Fatal("store has no value after commit")
	}
	if got, ok := raw.(int64); !ok || got != 16 {
		t.Errorf("store value = %v, want int64 16", raw)
	}
}

func TestApplyPresetUsesLoadedPreset(t *testing.T) {
	application := newTestApp(t, Options{InMemory: true})

	if err := application.applyPreset(); err != nil {
		t.Fatalf("apply preset: %v", err)
	}

	raw, ok := application.store.Get("preview.fontFamily")
	if !ok || raw != "Georgia, serif" {
		t.Errorf("fontFamily = %v, want recommended value", raw)
	}
}

func TestResetClearsStore(t *testing.T) {
	application := newTestApp(t, Options{InMemory: true})

	if err := application.commit("preview.fontSize", 20); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := application.reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok := application.store.Get("preview.fontSize"); ok {
		t.Error("store still has an override after reset")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	application := newTestApp(t, Options{ConfigPath: path})

	if err := application.commit("ui.theme", "light"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	application.Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read settings file: %v", err)
	}
	if !strings.Contains(string(data), `"light"`) {
		t.Errorf("settings file missing committed value: %s", data)
	}
}

func TestLoadPresetsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	doc := `
[[preset]]
name = "compact"

[preset.values]
"preview.fontSize" = 10
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write preset file: %v", err)
	}

	application := newTestApp(t, Options{InMemory: true, PresetPath: path})

	presets := application.Presets()
	if len(presets) != 1 || presets[0].Name != "compact" {
		t.Fatalf("presets = %+v, want one named compact", presets)
	}
}

func TestBadPresetFallsBackToRecommended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")
	if err := os.WriteFile(path, []byte("not toml ["), 0o644); err != nil {
		t.Fatalf("write preset file: %v", err)
	}

	application := newTestApp(t, Options{InMemory: true, PresetPath: path})

	presets := application.Presets()
	if len(presets) != 1 || presets[0].Name != "recommended" {
		t.Fatalf("presets = %+v, want the built-in fallback", presets)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	application := newTestApp(t, Options{InMemory: true})

	application.Shutdown()
	application.Shutdown()

	if err := application.start(); err == nil {
		t.Error("start after shutdown did not fail")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo, &buf)

	logger.Debug("hidden")
	logger.WithComponent("store").Info("settings file: %s", "a.json")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "settler/store") || !strings.Contains(out, "a.json") {
		t.Errorf("log line = %q", out)
	}
}
