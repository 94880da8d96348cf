package domain

import (
	"testing"
	"time"
)

func TestPost_TogglePulse(t *testing.T) {
	p := Post{}

	if !p.TogglePulse() {
		t.Error("first toggle should report a new pulse")
	}
	if p.TogglePulse() {
		t.Error("second toggle should not report a new pulse")
	}
	if p.Pulses != 0 || p.HasPulsed {
		t.Errorf("after pair: %+v", p)
	}

	// Incohérence en entrée : le compteur ne passe jamais sous zéro
	p = Post{HasPulsed: true}
	p.TogglePulse()
	if p.Pulses != 0 {
		t.Errorf("Pulses = %d, want 0", p.Pulses)
	}
}

func TestPost_ResonateAs(t *testing.T) {
	orig := NewPost("p1", Author{UserID: "u1", Username: "alice"}, "cap", "img", time.Unix(0, 0))
	orig.Pulses = 7
	orig.Comments = append(orig.Comments, Comment{ID: "c1"})

	cp := orig.ResonateAs("p2", Author{UserID: "u2", Username: "bob"}, time.Unix(10, 0))

	if orig.Resonations != 1 || !orig.HasResonated {
		t.Errorf("original = %+v", orig)
	}
	if cp.ID != "p2" || cp.UserID != "u2" || cp.OriginalCreator != "alice" || cp.OriginalPostID != "p1" {
		t.Errorf("copy = %+v", cp)
	}
	if cp.Pulses != 0 || cp.Resonations != 0 || len(cp.Comments) != 0 || !cp.HasResonated {
		t.Errorf("copy carries reactions: %+v", cp)
	}
	if !cp.IsResonation() || orig.IsResonation() {
		t.Error("IsResonation mismatch")
	}
}

func TestNotificationType_DefaultText(t *testing.T) {
	tests := map[NotificationType]string{
		NotificationPulse:    "pulsed your echo",
		NotificationResonate: "resonated your transmission",
		NotificationFollow:   "established a node link",
	}
	for kind, want := range tests {
		if got := kind.DefaultText(); got != want {
			t.Errorf("%s.DefaultText() = %q, want %q", kind, got, want)
		}
	}
}
