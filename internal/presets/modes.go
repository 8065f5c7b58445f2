package presets

import "github.com/alexisbeaulieu97/chameleon/internal/vibe"

// ReadingMode is a one-tap description sent to theme generation.
type ReadingMode struct {
	ID          string
	Label       string
	Icon        string
	Description string
	Prompt      string
}

var readingModes = []ReadingMode{
	{
		ID:          "simple",
		Label:       "Simple",
		Icon:        "👶",
		Description: "Easy to understand",
		Prompt:      "Make this very simple, as if explaining to a curious 8-year-old: short sentences, playful analogies and emojis.",
	},
	{
		ID:          "expert",
		Label:       "Expert",
		Icon:        "🎓",
		Description: "Full technical details",
		Prompt:      "Make this expert-level and technical: precise terminology, implementation details, written for a senior developer.",
	},
	{
		ID:          "visual",
		Label:       "Visual",
		Icon:        "🎨",
		Description: "More diagrams & visuals",
		Prompt:      "Make this visual and easy to scan: bullet points, highlighted key ideas, suggested diagrams and a vibrant modern look.",
	},
}

// ReadingModes returns the reading modes in display order.
func ReadingModes() []ReadingMode {
	out := make([]ReadingMode, len(readingModes))
	copy(out, readingModes)
	return out
}

// ReadingModeByID finds a reading mode.
func ReadingModeByID(id string) (ReadingMode, bool) {
	for _, mode := range readingModes {
		if mode.ID == id {
			return mode, true
		}
	}
	return ReadingMode{}, false
}

// ActiveReadingMode infers which reading mode v corresponds to. Tone wins over
// layout; an empty string means none matches.
func ActiveReadingMode(v vibe.Vibe) string {
	switch {
	case v.Voice.Tone == vibe.ToneSimplified:
		return "simple"
	case v.Voice.Tone == vibe.ToneTechnical:
		return "expert"
	case v.Layout.Style == vibe.LayoutHero:
		return "visual"
	}
	return ""
}
