package liveness

import "testing"

func TestCatalog_Label(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil)
	cases := []struct {
		in   ActionKind
		want string
	}{
		{ActionBlink, "Blink"},
		{ActionTurnHeadLeft, "Turn head left"},
		{ActionTurnHeadRight, "Turn head right"},
		{"open_mouth", "Open mouth"},
		{"raise_LEFT_eyebrow", "Raise left eyebrow"},
		{"look_up", "Look up"},
		{"wink", "Wink"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := c.Label(tc.in); got != tc.want {
			t.Errorf("Label(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCatalog_OverridesAndKnown(t *testing.T) {
	t.Parallel()

	c := NewCatalog(map[ActionKind]string{"blink": "Blink twice", "tilt": "Tilt your head"})
	if got := c.Label(ActionBlink); got != "Blink twice" {
		t.Fatalf("override not applied: %q", got)
	}
	if !c.Known("tilt") || c.Known("open_mouth") {
		t.Fatalf("Known mismatch")
	}
	got := c.Labels([]ActionKind{"tilt", ActionNod})
	if len(got) != 2 || got[0] != "Tilt your head" || got[1] != "Nod" {
		t.Fatalf("Labels = %v", got)
	}
}
