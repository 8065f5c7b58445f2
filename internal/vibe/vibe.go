// Package vibe defines the theme value shared by every part of Chameleon: the
// colors, typography, layout and voice that a page adapts to.
package vibe

import "strings"

// FontFamily names one of the typefaces a vibe may select.
type FontFamily string

const (
	FontSans    FontFamily = "sans"
	FontSerif   FontFamily = "serif"
	FontMono    FontFamily = "mono"
	FontDisplay FontFamily = "display"
	FontHand    FontFamily = "hand"
)

// AllFontFamilies lists the closed set of font families in presentation order.
var AllFontFamilies = []FontFamily{FontSans, FontSerif, FontMono, FontDisplay, FontHand}

// Valid reports whether f belongs to the closed font family set.
func (f FontFamily) Valid() bool {
	switch f {
	case FontSans, FontSerif, FontMono, FontDisplay, FontHand:
		return true
	}
	return false
}

// Typeface returns the concrete font backing the family.
func (f FontFamily) Typeface() string {
	switch f {
	case FontSerif:
		return "Merriweather"
	case FontMono:
		return "JetBrains Mono"
	case FontDisplay:
		return "Bangers"
	case FontHand:
		return "Patrick Hand"
	default:
		return "Inter"
	}
}

// BaseSize is the root font size of a vibe.
type BaseSize string

const (
	Size14 BaseSize = "14px"
	Size16 BaseSize = "16px"
	Size18 BaseSize = "18px"
	Size24 BaseSize = "24px"
)

// AllBaseSizes lists the closed set of base sizes in ascending order.
var AllBaseSizes = []BaseSize{Size14, Size16, Size18, Size24}

// Valid reports whether s belongs to the closed base size set.
func (s BaseSize) Valid() bool {
	switch s {
	case Size14, Size16, Size18, Size24:
		return true
	}
	return false
}

// LayoutStyle selects the page composition.
type LayoutStyle string

const (
	LayoutStandard LayoutStyle = "standard"
	LayoutDense    LayoutStyle = "dense"
	LayoutHero     LayoutStyle = "hero"
)

// AllLayoutStyles lists the closed set of layout styles.
var AllLayoutStyles = []LayoutStyle{LayoutStandard, LayoutDense, LayoutHero}

// Valid reports whether l belongs to the closed layout set.
func (l LayoutStyle) Valid() bool {
	switch l {
	case LayoutStandard, LayoutDense, LayoutHero:
		return true
	}
	return false
}

// MaxWidth returns the content width the layout is designed for.
func (l LayoutStyle) MaxWidth() string {
	switch l {
	case LayoutDense:
		return "1400px"
	case LayoutHero:
		return "900px"
	default:
		return "768px"
	}
}

// Tone is the prose register text is rewritten into.
type Tone string

const (
	ToneNeutral      Tone = "neutral"
	ToneTechnical    Tone = "technical"
	ToneSimplified   Tone = "simplified"
	ToneStorytelling Tone = "storytelling"
)

// AllTones lists the closed set of tones.
var AllTones = []Tone{ToneNeutral, ToneTechnical, ToneSimplified, ToneStorytelling}

// Valid reports whether t belongs to the closed tone set.
func (t Tone) Valid() bool {
	switch t {
	case ToneNeutral, ToneTechnical, ToneSimplified, ToneStorytelling:
		return true
	}
	return false
}

// EmojiFrequency controls how liberally rewritten text uses emoji.
type EmojiFrequency string

const (
	EmojiNone EmojiFrequency = "none"
	EmojiLow  EmojiFrequency = "low"
	EmojiHigh EmojiFrequency = "high"
)

// AllEmojiFrequencies lists the closed set of emoji frequencies.
var AllEmojiFrequencies = []EmojiFrequency{EmojiNone, EmojiLow, EmojiHigh}

// Valid reports whether e belongs to the closed emoji frequency set.
func (e EmojiFrequency) Valid() bool {
	switch e {
	case EmojiNone, EmojiLow, EmojiHigh:
		return true
	}
	return false
}

// Colors holds the four palette slots of a vibe as #RRGGBB strings.
type Colors struct {
	Primary    string `json:"primary" yaml:"primary" validate:"hexcolor6"`
	Background string `json:"background" yaml:"background" validate:"hexcolor6"`
	Text       string `json:"text" yaml:"text" validate:"hexcolor6"`
	Accent     string `json:"accent" yaml:"accent" validate:"hexcolor6"`
}

// Typography holds font selection and scale.
type Typography struct {
	FontFamily FontFamily `json:"fontFamily" yaml:"fontFamily" validate:"font_family"`
	BaseSize   BaseSize   `json:"baseSize" yaml:"baseSize" validate:"base_size"`
}

// Layout holds composition and corner rounding. BorderRadius is any CSS length.
type Layout struct {
	Style        LayoutStyle `json:"style" yaml:"style" validate:"layout_style"`
	BorderRadius string      `json:"borderRadius" yaml:"borderRadius"`
}

// Voice holds the prose settings that drive text rewriting.
type Voice struct {
	Tone           Tone           `json:"tone" yaml:"tone" validate:"tone"`
	EmojiFrequency EmojiFrequency `json:"emojiFrequency" yaml:"emojiFrequency" validate:"emoji_frequency"`
}

// Vibe is one complete theme value. Values are plain data and safe to copy.
type Vibe struct {
	ThemeName  string     `json:"themeName" yaml:"themeName"`
	Colors     Colors     `json:"colors" yaml:"colors"`
	Typography Typography `json:"typography" yaml:"typography"`
	Layout     Layout     `json:"layout" yaml:"layout"`
	Voice      Voice      `json:"voice" yaml:"voice"`
}

// Slug returns the shareable identifier derived from the theme name.
func (v Vibe) Slug() string {
	return Slugify(v.ThemeName)
}

// Equal reports whether a and b describe the same theme. Colors compare
// without regard to hex digit case.
func Equal(a, b Vibe) bool {
	a.Colors, b.Colors = a.Colors.normalized(), b.Colors.normalized()
	return a == b
}

func (c Colors) normalized() Colors {
	return Colors{
		Primary:    strings.ToLower(c.Primary),
		Background: strings.ToLower(c.Background),
		Text:       strings.ToLower(c.Text),
		Accent:     strings.ToLower(c.Accent),
	}
}

// ExtractedFallback is the theme a vision extraction answers with when it
// cannot analyze the supplied screenshot.
func ExtractedFallback() Vibe {
	return Vibe{
		ThemeName: "Extracted Theme",
		Colors: Colors{
			Primary:    "#1a1a2e",
			Background: "#fafafa",
			Text:       "#1a1a2e",
			Accent:     "#4a90d9",
		},
		Typography: Typography{FontFamily: FontSans, BaseSize: Size16},
		Layout:     Layout{Style: LayoutStandard, BorderRadius: "0.5rem"},
		Voice:      Voice{Tone: ToneNeutral, EmojiFrequency: EmojiNone},
	}
}
