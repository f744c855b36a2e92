// Package generator turns a card specification into an HTML skeleton and a
// stylesheet of absolutely positioned blocks.
//
// The output is scaffolding for hand-authored components: it does not model
// auto-layout, z-order or positioning relative to intermediate parents.
// A text child's fill is emitted as its color, not its background-color.
package generator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/kataras/figma-cards/pkg/extractor"
)

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Rule is a selector with its declarations, in emission order.
type Rule struct {
	Selector string
	Decls    []Decl
}

func (r *Rule) add(property, value string) {
	r.Decls = append(r.Decls, Decl{Property: property, Value: value})
}

// String renders the rule as a CSS block.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.Selector)
	sb.WriteString(" {\n")
	for _, d := range r.Decls {
		fmt.Fprintf(&sb, "  %s: %s;\n", d.Property, d.Value)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// HTML renders one root div and one line per flattened child, indented two
// spaces per depth level. Text children become spans holding their escaped text.
func HTML(spec *extractor.CardSpec) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<div class=\"%s\">\n", spec.Slug)
	for _, c := range spec.Children {
		indent := strings.Repeat("  ", c.Depth+1)
		if c.HasText() {
			fmt.Fprintf(&sb, "%s<span class=\"%s\">%s</span>\n", indent, c.Slug, html.EscapeString(c.Text))
		} else {
			fmt.Fprintf(&sb, "%s<div class=\"%s\"></div>\n", indent, c.Slug)
		}
	}
	sb.WriteString("</div>\n")

	return sb.String()
}

// Rules builds the root rule followed by one rule per child.
// Children sharing a slug produce duplicate selectors; the later rule wins in the browser.
// Slugs are used as class names verbatim, so one starting with a digit ("1-card")
// yields a selector browsers reject; rename such layers in Figma.
func Rules(spec *extractor.CardSpec) []Rule {
	rules := make([]Rule, 0, len(spec.Children)+1)
	rules = append(rules, rootRule(spec))

	for _, c := range spec.Children {
		rules = append(rules, childRule(spec, c))
	}
	return rules
}

// CSS renders Rules as a stylesheet, blocks separated by a blank line.
func CSS(spec *extractor.CardSpec) string {
	rules := Rules(spec)
	blocks := make([]string, len(rules))
	for i, r := range rules {
		blocks[i] = r.String()
	}
	return strings.Join(blocks, "\n")
}

func rootRule(spec *extractor.CardSpec) Rule {
	r := Rule{Selector: "." + spec.Slug}
	r.add("position", "relative")
	r.add("width", extractor.FormatPx(spec.Width))
	r.add("height", extractor.FormatPx(spec.Height))

	st := spec.Styles
	if st.Background != "" {
		r.add("background-color", st.Background)
	}
	if st.BorderRadius != "" {
		r.add("border-radius", st.BorderRadius)
	}
	if st.BorderColor != "" {
		width := st.BorderWidth
		if width == "" {
			width = "1px"
		}
		r.add("border", width+" solid "+st.BorderColor)
	}
	return r
}

// childRule positions c relative to the card root's origin.
func childRule(spec *extractor.CardSpec, c extractor.ChildSpec) Rule {
	r := Rule{Selector: "." + spec.Slug + " ." + c.Slug}
	r.add("position", "absolute")
	r.add("left", extractor.FormatPx(c.X-spec.X))
	r.add("top", extractor.FormatPx(c.Y-spec.Y))
	r.add("width", extractor.FormatPx(c.Width))
	r.add("height", extractor.FormatPx(c.Height))

	if c.Background != "" {
		// A text node's fill is its glyph color.
		if c.HasText() {
			r.add("color", c.Background)
		} else {
			r.add("background-color", c.Background)
		}
	}
	if c.BorderRadius > 0 {
		r.add("border-radius", extractor.FormatPx(c.BorderRadius))
	}

	if ts := c.TextStyle; ts != nil {
		r.add("font-family", fontFamily(ts.FontFamily))
		r.add("font-size", ts.FontSize)
		r.add("font-weight", ts.FontWeight)
		r.add("letter-spacing", ts.LetterSpacing)
		r.add("line-height", ts.LineHeight)
	}
	return r
}

// fontFamily quotes family names containing spaces; token references pass through.
func fontFamily(family string) string {
	if strings.HasPrefix(family, "var(") || !strings.ContainsAny(family, " \t") {
		return family
	}
	return "'" + strings.ReplaceAll(family, "'", "\\'") + "'"
}
