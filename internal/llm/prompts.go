package llm

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// StylistPrompt instructs the model to map a description onto a theme.
const StylistPrompt = `You translate a natural-language description of a look and feel into a JSON theme object.

Persona hints:
- child, kid, ELI5, fun, playful: display font, hero layout, high emoji, bright colors
- hacker, cyberpunk, terminal, matrix: mono font, dense layout, no emoji, neon on black
- academic, professional, formal: serif font, standard layout, no emoji, muted paper colors
- casual, friendly, handwritten: hand font, standard layout, low emoji, warm colors
- clean, modern, minimal: sans font, standard layout, no emoji, neutral colors

Layouts: standard is one comfortable column (768px), dense packs information (1400px), hero is big centered text (900px).
Tones: neutral leaves text alone, technical is for experts, simplified is for beginners, storytelling is narrative.

Hard rules:
1. typography.fontFamily is one of: ` + "sans, serif, mono, display, hand" + `
2. typography.baseSize is one of: 14px, 16px, 18px, 24px
3. layout.style is one of: standard, dense, hero
4. voice.tone is one of: neutral, technical, simplified, storytelling
5. voice.emojiFrequency is one of: none, low, high
6. every color is # followed by six hex digits, with readable text on the background

Return only the JSON object with keys themeName, colors{primary,background,text,accent}, typography{fontFamily,baseSize}, layout{style,borderRadius}, voice{tone,emojiFrequency}.`

// EditorPrompt instructs the model to rewrite prose for a tone.
const EditorPrompt = `You rewrite text for a target tone without changing its facts.

Tones:
- technical: precise terminology, implementation detail, dense, bullet points where they help
- simplified: everyday words, short sentences, analogies and small steps
- storytelling: narrative flow, vivid imagery, warmth

Emoji frequency:
- none: no emojis
- low: one or two emojis at key points
- high: three to five emojis per paragraph

Never add, drop or alter facts. Keep roughly the same length. Output only the rewritten text.`

// VisionPrompt instructs the model to read a design from a screenshot.
const VisionPrompt = `You are a design system analyst. Study the screenshot and return JSON with:
- description: one sentence about the visual style
- vibe: a theme object matching the design

Extract exact hex colors for primary, background, text and accent.
fontFamily is one of sans, serif, mono, display, hand.
baseSize is one of 14px, 16px, 18px, 24px.
layout.style is one of standard, dense, hero; borderRadius is 0px, 0.5rem or 1rem.
voice.tone is one of neutral, technical, simplified, storytelling; emojiFrequency is one of none, low, high.`

// ThemePrompt is the user turn for a theme request.
func ThemePrompt(description string) string {
	return fmt.Sprintf("Generate a theme for: %q", description)
}

// RewritePrompt is the user turn for a rewrite request.
func RewritePrompt(req ports.RewriteRequest) string {
	emoji := req.EmojiFrequency
	if emoji == "" {
		emoji = vibe.EmojiNone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Target tone: %s\n", req.Tone)
	fmt.Fprintf(&b, "Emoji frequency: %s\n", emoji)
	if req.SourceURL != "" {
		fmt.Fprintf(&b, "Source URL for reference: %s\n", req.SourceURL)
	}
	b.WriteString("\nOriginal text to rewrite:\n\"\"\"\n")
	b.WriteString(req.Text)
	b.WriteString("\n\"\"\"\n\nRewrite the text above for the target tone and emoji frequency.")
	return b.String()
}
