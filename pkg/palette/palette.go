// Package palette resolves Figma paint colors to CSS values, preferring a
// design-token reference whenever the color is part of the dashboard palette.
package palette

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kataras/figma-cards/pkg/figma"
)

// TextPrimary is what a missing color resolves to.
const TextPrimary = "var(--color-text-primary)"

// Entry maps one #rrggbb color to a token reference.
type Entry struct {
	Hex   string `yaml:"hex" json:"hex"`
	Token string `yaml:"token" json:"token"`
}

// Palette is an ordered hex -> token table. Lookups are exact on the hex
// string; the first entry wins when a hex appears twice.
type Palette struct {
	entries []Entry
	index   map[string]string
}

// New builds a Palette from entries, validating each one.
func New(entries []Entry) (*Palette, error) {
	p := &Palette{index: make(map[string]string, len(entries))}
	for i, e := range entries {
		hex := strings.ToLower(strings.TrimSpace(e.Hex))
		if !hexRe.MatchString(hex) {
			return nil, fmt.Errorf("palette entry %d: invalid hex %q (want #rrggbb)", i, e.Hex)
		}
		token := strings.TrimSpace(e.Token)
		if token == "" {
			return nil, fmt.Errorf("palette entry %d (%s): empty token", i, hex)
		}
		p.entries = append(p.entries, Entry{Hex: hex, Token: token})
		if _, dup := p.index[hex]; !dup {
			p.index[hex] = token
		}
	}
	return p, nil
}

var hexRe = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// defaultEntries is the finance dashboard palette.
var defaultEntries = []Entry{
	{Hex: "#ffffff", Token: "var(--color-white)"},
	{Hex: "#000000", Token: "var(--color-black)"},
	{Hex: "#f9fafb", Token: "var(--color-gray-50)"},
	{Hex: "#f3f4f6", Token: "var(--color-gray-100)"},
	{Hex: "#e5e7eb", Token: "var(--color-gray-200)"},
	{Hex: "#d1d5db", Token: "var(--color-gray-300)"},
	{Hex: "#9ca3af", Token: "var(--color-gray-400)"},
	{Hex: "#6b7280", Token: "var(--color-text-secondary)"},
	{Hex: "#4b5563", Token: "var(--color-gray-600)"},
	{Hex: "#374151", Token: "var(--color-gray-700)"},
	{Hex: "#1f2937", Token: "var(--color-gray-800)"},
	{Hex: "#111827", Token: TextPrimary},
	{Hex: "#2563eb", Token: "var(--color-primary)"},
	{Hex: "#16a34a", Token: "var(--color-success)"},
	{Hex: "#dc2626", Token: "var(--color-danger)"},
	{Hex: "#f59e0b", Token: "var(--color-warning)"},
}

// Default returns the built-in dashboard palette.
func Default() *Palette {
	p, err := New(defaultEntries)
	if err != nil {
		panic(err)
	}
	return p
}

// Entries returns a copy of the table in its original order.
func (p *Palette) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Len reports the number of entries.
func (p *Palette) Len() int {
	return len(p.entries)
}

// Lookup returns the token for an exact hex match.
func (p *Palette) Lookup(hex string) (string, bool) {
	token, ok := p.index[strings.ToLower(hex)]
	return token, ok
}

// Resolve maps a Figma color to a token when the palette has its hex,
// otherwise to its rgba() form. A nil color is the primary text color.
func (p *Palette) Resolve(c *figma.Color) string {
	if c == nil {
		return TextPrimary
	}
	if token, ok := p.Lookup(Hex(c)); ok {
		return token
	}
	return RGBA(c)
}

// channel scales a [0,1] float to [0,255], rounding to nearest.
func channel(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}

// RGBA formats c as a CSS rgba() value. Alpha keeps at most two decimals.
func RGBA(c *figma.Color) string {
	alpha := math.Round(c.A*100) / 100
	return fmt.Sprintf("rgba(%d, %d, %d, %s)",
		channel(c.R), channel(c.G), channel(c.B),
		strconv.FormatFloat(alpha, 'f', -1, 64))
}

// Hex formats c as lower-case #rrggbb, ignoring alpha.
func Hex(c *figma.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

type yamlFile struct {
	Palette []Entry `yaml:"palette"`
}

// LoadYAML reads a palette from YAML. Both a top-level list of entries and a
// document with a "palette" key are accepted.
func LoadYAML(r io.Reader) (*Palette, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read palette: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		var doc yamlFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse palette: %w", err)
		}
		entries = doc.Palette
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("parse palette: no entries")
	}
	return New(entries)
}

// LoadFile reads a YAML palette from path.
func LoadFile(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open palette: %w", err)
	}
	defer f.Close()

	p, err := LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
