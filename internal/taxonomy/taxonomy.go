// Package taxonomy holds the closed catalogue of wellbeing pillars and
// resolves declared pillar identifiers against it.
package taxonomy

// Pillar is one of the six fixed wellbeing dimensions content is tagged with.
type Pillar struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Tagline     string `json:"tagline" yaml:"tagline"`
	Description string `json:"description" yaml:"description"`
}

// Pillar identifiers.
const (
	Nutrition   = "nutrition"
	Work        = "work"
	Sleep       = "sleep"
	MindBody    = "mind-body"
	AITools     = "ai-tools"
	AnalogTools = "analog-tools"
)

var catalogue = [...]Pillar{
	{
		ID:          Nutrition,
		Name:        "Nutrition & Energy",
		Tagline:     "Fuel clarity through deliberate nourishment.",
		Description: "Guides on stabilising blood sugar, micronutrient support, hydration, and caffeine management to keep cognitive load smooth throughout the day.",
	},
	{
		ID:          Work,
		Name:        "Work Systems",
		Tagline:     "Design workflows that protect focus.",
		Description: "Protocols for task batching, async rituals, and recovery cadences so the calendar and inbox stop hijacking your nervous system.",
	},
	{
		ID:          Sleep,
		Name:        "Sleep & Recovery",
		Tagline:     "Anchor rest to stay antifragile.",
		Description: "Evening wind-downs, light exposure, sleep debt tracking, and micro-recovery breaks tuned to calm the HPA axis and rebuild reserves.",
	},
	{
		ID:          MindBody,
		Name:        "Mind & Body",
		Tagline:     "Somatic practices to metabolise stress.",
		Description: "Breathing protocols, posture resets, mindful micro-pauses, and emotional granularity exercises to keep the body and mind aligned.",
	},
	{
		ID:          AITools,
		Name:        "AI Support",
		Tagline:     "Let assistants carry the admin load.",
		Description: "Prompt systems, review workflows, and governance principles so AI handles the repetitive tasks while you stay intentional.",
	},
	{
		ID:          AnalogTools,
		Name:        "Analog Tools",
		Tagline:     "Tactile aids to soothe and focus.",
		Description: "Printable planners, mindful colouring, journaling scripts, and tactile routines that anchor you back into the physical world.",
	},
}

// Catalogue returns a copy of all pillars in display order.
func Catalogue() []Pillar {
	out := make([]Pillar, len(catalogue))
	copy(out, catalogue[:])
	return out
}

// IDs returns the identifiers of all pillars in display order.
func IDs() []string {
	ids := make([]string, len(catalogue))
	for i, p := range catalogue {
		ids[i] = p.ID
	}
	return ids
}

// Lookup returns the pillar with the given identifier.
// Matching is exact: identifiers are lowercase and case-sensitive.
func Lookup(id string) (Pillar, bool) {
	for _, p := range catalogue {
		if p.ID == id {
			return p, true
		}
	}
	return Pillar{}, false
}

// Valid reports whether id names a known pillar.
func Valid(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Resolve maps declared identifiers to catalogue entries in declaration order.
// Unknown identifiers and repeats are dropped. The result is never nil.
func Resolve(ids []string) []Pillar {
	out := make([]Pillar, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		p, ok := Lookup(id)
		if !ok {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

// Unknown returns the declared identifiers that are not in the catalogue,
// in declaration order. Used for diagnostics only.
func Unknown(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !Valid(id) {
			out = append(out, id)
		}
	}
	return out
}
