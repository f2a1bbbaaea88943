package notify

import (
	"testing"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeClear, "clear"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received []Change
	sub := n.Subscribe(func(change Change) {
		received = append(received, change)
	})

	n.NotifyKey("preview.fontSize", ChangeSet, "panel")

	if len(received) != 1 {
		t.Fatalf("received %d changes, want 1", len(received))
	}
	if received[0].Namespace != "preview" {
		t.Errorf("namespace = %q, want %q", received[0].Namespace, "preview")
	}
	if received[0].Key != "preview.fontSize" {
		t.Errorf("key = %q", received[0].Key)
	}

	sub.Unsubscribe()
	n.NotifyKey("preview.fontSize", ChangeSet, "panel")
	if len(received) != 1 {
		t.Error("unsubscribed observer received a change")
	}
}

func TestNotifier_SubscribeNamespaces(t *testing.T) {
	n := New()
	defer n.Close()

	var preview, other int
	n.SubscribeNamespaces([]string{"preview", "ui"}, func(Change) { preview++ })
	n.SubscribeNamespaces([]string{"terminal"}, func(Change) { other++ })

	n.NotifyKey("preview.fontSize", ChangeSet, "panel")
	n.NotifyKey("ui.theme", ChangeClear, "panel")
	n.NotifyKey("git.autofetch", ChangeSet, "external")

	if preview != 2 {
		t.Errorf("preview observer received %d changes, want 2", preview)
	}
	if other != 0 {
		t.Errorf("terminal observer received %d changes, want 0", other)
	}
}

func TestNotifier_ReloadReachesAllScopes(t *testing.T) {
	n := New()
	defer n.Close()

	var got int
	n.SubscribeNamespaces([]string{"preview"}, func(change Change) {
		if change.Type != ChangeReload {
			t.Errorf("type = %v, want reload", change.Type)
		}
		got++
	})

	// A reload may have touched any namespace, so scoped observers see it.
	n.NotifyReload("settings.json")
	if got != 1 {
		t.Errorf("scoped observer received %d reloads, want 1", got)
	}
}

func TestNotifier_Close(t *testing.T) {
	n := New()

	var got int
	n.Subscribe(func(Change) { got++ })

	n.Close()
	n.NotifyKey("preview.fontSize", ChangeSet, "panel")
	if got != 0 {
		t.Error("observer notified after Close")
	}

	// Close is idempotent.
	n.Close()
}

func TestSubscription_NilSafe(t *testing.T) {
	var sub *Subscription
	sub.Unsubscribe() // must not panic

	sub = &Subscription{}
	sub.Unsubscribe()
}

func TestKeyNamespace(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"preview.fontSize", "preview"},
		{"flat", "flat"},
		{"a.b.c", "a"},
	}

	for _, tt := range tests {
		if got := keyNamespace(tt.key); got != tt.want {
			t.Errorf("keyNamespace(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
