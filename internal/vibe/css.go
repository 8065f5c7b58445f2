package vibe

import (
	"fmt"
	"strings"
)

// Declaration is one CSS custom property.
type Declaration struct {
	Name  string
	Value string
}

// CSSVariables returns the custom properties a page binds its styles to, in a
// stable order.
func (v Vibe) CSSVariables() []Declaration {
	return []Declaration{
		{Name: "--chameleon-bg", Value: v.Colors.Background},
		{Name: "--chameleon-text", Value: v.Colors.Text},
		{Name: "--chameleon-primary", Value: v.Colors.Primary},
		{Name: "--chameleon-accent", Value: v.Colors.Accent},
		{Name: "--chameleon-font", Value: fmt.Sprintf("var(--font-%s)", v.Typography.FontFamily)},
		{Name: "--chameleon-base-size", Value: string(v.Typography.BaseSize)},
		{Name: "--chameleon-radius", Value: v.Layout.BorderRadius},
		{Name: "--chameleon-max-width", Value: v.Layout.Style.MaxWidth()},
	}
}

// Style renders the custom properties as a CSS rule for selector.
func (v Vibe) Style(selector string) string {
	if selector == "" {
		selector = ":root"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", selector)
	for _, decl := range v.CSSVariables() {
		fmt.Fprintf(&b, "  %s: %s;\n", decl.Name, decl.Value)
	}
	b.WriteString("}\n")
	return b.String()
}

// LayoutClass is the class name presentation code attaches for the layout style.
func (v Vibe) LayoutClass() string {
	return "layout-" + string(v.Layout.Style)
}
