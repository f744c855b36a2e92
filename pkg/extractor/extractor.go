package extractor

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/kataras/figma-cards/pkg/figma"
	"github.com/kataras/figma-cards/pkg/palette"
	"github.com/kataras/figma-cards/pkg/slug"
)

// Fallbacks used when a text node leaves a typography property unset.
const (
	FallbackFontFamily    = "var(--font-family-base)"
	FallbackFontSize      = "var(--font-size-base)"
	FallbackFontWeight    = "400"
	FallbackLetterSpacing = "normal"
	FallbackLineHeight    = "normal"
)

// CardSpec is the flattened specification of one card frame.
// It is built by a single Extract call and shares nothing with other cards.
type CardSpec struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Slug   string     `json:"slug"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Styles CardStyles `json:"styles"`

	// Children lists every descendant in depth-first pre-order.
	Children []ChildSpec `json:"children"`

	// Colors holds each distinct raw rgba() fill value, in first-seen order.
	Colors []string `json:"colors"`

	// Typography holds each distinct text style as its JSON encoding, in first-seen order.
	Typography []string `json:"typography"`
}

// CardStyles are the root frame's own visual properties. Colors are token
// references when the palette knows them, raw rgba() otherwise.
type CardStyles struct {
	Background   string `json:"background,omitempty"`
	BorderRadius string `json:"borderRadius,omitempty"`
	BorderWidth  string `json:"borderWidth,omitempty"`
	BorderColor  string `json:"borderColor,omitempty"`
}

// ChildSpec describes one descendant of the card root.
type ChildSpec struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Slug         string     `json:"slug"`
	Depth        int        `json:"depth"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	Background   string     `json:"background,omitempty"`
	BorderRadius float64    `json:"borderRadius,omitempty"`
	Text         string     `json:"text,omitempty"`
	TextStyle    *TextStyle `json:"textStyle,omitempty"`
}

// HasText reports whether the child is a text leaf with content.
func (c ChildSpec) HasText() bool {
	return c.TextStyle != nil
}

// TextStyle holds resolved typography as literal CSS values.
type TextStyle struct {
	FontFamily    string `json:"fontFamily"`
	FontSize      string `json:"fontSize"`
	FontWeight    string `json:"fontWeight"`
	LetterSpacing string `json:"letterSpacing"`
	LineHeight    string `json:"lineHeight"`
}

// Extract walks the subtree rooted at node and returns its card specification.
// A nil palette means palette.Default().
func Extract(node *figma.Node, pal *palette.Palette) *CardSpec {
	if pal == nil {
		pal = palette.Default()
	}

	w := &walker{
		pal:       pal,
		colorSeen: make(map[string]bool),
		styleSeen: make(map[string]bool),
		spec:      &CardSpec{ID: node.ID, Name: node.Name, Type: node.Type},
	}
	spec := w.spec
	spec.Slug = slug.OrFallback(node.Name, node.ID)
	spec.X, spec.Y, spec.Width, spec.Height = bounds(node)
	spec.Children = []ChildSpec{}
	spec.Colors = []string{}
	spec.Typography = []string{}

	if fill, ok := firstSolidFill(node); ok {
		spec.Styles.Background = pal.Resolve(fill)
		w.addColor(fill)
	}
	if node.CornerRadius > 0 {
		spec.Styles.BorderRadius = FormatPx(node.CornerRadius)
	}
	if stroke := firstSolidStroke(node); stroke != nil {
		spec.Styles.BorderColor = pal.Resolve(stroke)
		if node.StrokeWeight > 0 {
			spec.Styles.BorderWidth = FormatPx(node.StrokeWeight)
		}
	}

	for i := range node.Children {
		w.walk(&node.Children[i], 0)
	}

	return spec
}

type walker struct {
	pal       *palette.Palette
	spec      *CardSpec
	colorSeen map[string]bool
	styleSeen map[string]bool
}

// walk appends node before its children (pre-order) and recurses whatever the node type.
func (w *walker) walk(node *figma.Node, depth int) {
	child := ChildSpec{
		ID:           node.ID,
		Name:         node.Name,
		Type:         node.Type,
		Slug:         slug.OrFallback(node.Name, node.ID),
		Depth:        depth,
		BorderRadius: node.CornerRadius,
	}
	child.X, child.Y, child.Width, child.Height = bounds(node)

	if fill, ok := firstSolidFill(node); ok {
		child.Background = w.pal.Resolve(fill)
		w.addColor(fill)
	}

	if node.Type == figma.NodeText && node.Characters != "" {
		child.Text = node.Characters
		child.TextStyle = textStyle(node.Style)
		w.addTextStyle(child.TextStyle)
	}

	w.spec.Children = append(w.spec.Children, child)

	for i := range node.Children {
		w.walk(&node.Children[i], depth+1)
	}
}

func (w *walker) addColor(c *figma.Color) {
	if c == nil {
		return
	}
	raw := palette.RGBA(c)
	if w.colorSeen[raw] {
		return
	}
	w.colorSeen[raw] = true
	w.spec.Colors = append(w.spec.Colors, raw)
}

func (w *walker) addTextStyle(ts *TextStyle) {
	b, err := json.Marshal(ts)
	if err != nil {
		return
	}
	key := string(b)
	if w.styleSeen[key] {
		return
	}
	w.styleSeen[key] = true
	w.spec.Typography = append(w.spec.Typography, key)
}

// bounds returns the absolute bounding box, with zeros when Figma omitted it.
func bounds(node *figma.Node) (x, y, width, height float64) {
	if bb := node.AbsoluteBoundingBox; bb != nil {
		return bb.X, bb.Y, bb.Width, bb.Height
	}
	return 0, 0, 0, 0
}

// firstSolidFill returns the color of the node's first fill when that fill is SOLID.
// The color may be nil; the palette resolves that to the primary text color.
func firstSolidFill(node *figma.Node) (*figma.Color, bool) {
	if len(node.Fills) == 0 || node.Fills[0].Type != figma.PaintSolid {
		return nil, false
	}
	return node.Fills[0].Color, true
}

func firstSolidStroke(node *figma.Node) *figma.Color {
	for _, stroke := range node.Strokes {
		if stroke.Type == figma.PaintSolid && stroke.Color != nil {
			return stroke.Color
		}
	}
	return nil
}

// textStyle converts a Figma type style into CSS values, falling back per property.
func textStyle(style *figma.TypeStyle) *TextStyle {
	ts := &TextStyle{
		FontFamily:    FallbackFontFamily,
		FontSize:      FallbackFontSize,
		FontWeight:    FallbackFontWeight,
		LetterSpacing: FallbackLetterSpacing,
		LineHeight:    FallbackLineHeight,
	}
	if style == nil {
		return ts
	}

	if style.FontFamily != "" {
		ts.FontFamily = style.FontFamily
	}
	if style.FontSize > 0 {
		ts.FontSize = FormatPx(style.FontSize)
	}
	if style.FontWeight > 0 {
		ts.FontWeight = strconv.FormatFloat(style.FontWeight, 'f', -1, 64)
	}
	if style.LetterSpacing != 0 {
		ts.LetterSpacing = FormatPx(style.LetterSpacing)
	}
	if style.LineHeightPx > 0 {
		ts.LineHeight = FormatPx(style.LineHeightPx)
	}
	return ts
}

// FormatPx renders v as a CSS pixel length, keeping at most two decimals.
func FormatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}
