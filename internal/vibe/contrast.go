package vibe

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// MinReadableContrast is the WCAG AA ratio for body text.
const MinReadableContrast = 4.5

// Contrast returns the WCAG contrast ratio between the text and background
// colors. It is advisory: themes are never rejected for low contrast. Invalid
// colors yield 0.
func Contrast(v Vibe) float64 {
	fg, err := colorful.Hex(v.Colors.Text)
	if err != nil {
		return 0
	}
	bg, err := colorful.Hex(v.Colors.Background)
	if err != nil {
		return 0
	}

	l1, l2 := luminance(fg), luminance(bg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// ReadableContrast reports whether the text/background pair meets MinReadableContrast.
func (v Vibe) ReadableContrast() bool {
	return Contrast(v) >= MinReadableContrast
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
