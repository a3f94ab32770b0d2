// Package liveness holds the challenge-response core: the action catalog,
// the strict linear challenge tracker and the capture gate
package liveness

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActionKind is an opaque token for a required physical action ("blink", "turn_head_left").
// The backend owns the set of valid values
type ActionKind string

// Actions the recognition backend is known to issue
const (
	ActionBlink         ActionKind = "blink"
	ActionSmile         ActionKind = "smile"
	ActionTurnHeadLeft  ActionKind = "turn_head_left"
	ActionTurnHeadRight ActionKind = "turn_head_right"
	ActionNod           ActionKind = "nod"
)

// Catalog maps action tokens to operator-facing labels. Unknown tokens
// still get a readable label, so a backend rollout never blocks the UI
type Catalog struct {
	labels map[ActionKind]string
	lang   language.Tag
}

// NewCatalog returns a catalog seeded with the known actions plus any overrides
func NewCatalog(overrides map[ActionKind]string) *Catalog {
	c := &Catalog{
		labels: map[ActionKind]string{
			ActionBlink:         "Blink",
			ActionSmile:         "Smile",
			ActionTurnHeadLeft:  "Turn head left",
			ActionTurnHeadRight: "Turn head right",
			ActionNod:           "Nod",
		},
		lang: language.English,
	}
	for k, v := range overrides {
		c.labels[k] = v
	}
	return c
}

// Known reports whether the catalog has an explicit label for a
func (c *Catalog) Known(a ActionKind) bool {
	_, ok := c.labels[a]
	return ok
}

// Label returns the human label for a: underscores become spaces and the first word is capitalized
func (c *Catalog) Label(a ActionKind) string {
	if l, ok := c.labels[a]; ok {
		return l
	}
	s := strings.TrimSpace(strings.ReplaceAll(string(a), "_", " "))
	if s == "" {
		return ""
	}
	first, rest, _ := strings.Cut(s, " ")
	// a Caser is stateful, so one per call keeps the catalog safe to share
	first = cases.Title(c.lang).String(first)
	if rest == "" {
		return first
	}
	return first + " " + strings.ToLower(rest)
}

// Labels maps every action of a challenge to its label, preserving order
func (c *Catalog) Labels(actions []ActionKind) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = c.Label(a)
	}
	return out
}
