package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kataras/figma-cards/pkg/extractor"
)

// Report is everything a batch run produced, in processing order.
type Report struct {
	FileName string // Figma file name, when the API returned one
	FileKey  string
	Cards    []Card
	Failed   []Failure
}

// Card is one successfully extracted card.
type Card struct {
	Spec *extractor.CardSpec
	File string // spec file name relative to the output directory
	CSS  string
}

// Failure records a node ID that could not be extracted.
type Failure struct {
	NodeID string
	Err    string
}

// ToMarkdown renders the report as a markdown document: an overview table, the
// failed node IDs, then a section per card with its colors, typography and stylesheet.
func ToMarkdown(r Report) string {
	var sb strings.Builder

	title := r.FileName
	if title == "" {
		title = r.FileKey
	}
	sb.WriteString(fmt.Sprintf("# Card Specifications - %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Extracted %d card(s) from Figma file `%s`.\n\n", len(r.Cards), r.FileKey))

	if len(r.Cards) > 0 {
		sb.WriteString("| Card | Node | Children | Colors | Typography | Spec |\n")
		sb.WriteString("|------|------|----------|--------|------------|------|\n")
		for _, c := range r.Cards {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %d | %d | %d | `%s` |\n",
				escapeCell(c.Spec.Name), c.Spec.ID, len(c.Spec.Children), len(c.Spec.Colors), len(c.Spec.Typography), c.File))
		}
		sb.WriteString("\n")
	}

	if len(r.Failed) > 0 {
		sb.WriteString("## Failed Nodes\n\n")
		for _, f := range r.Failed {
			sb.WriteString(fmt.Sprintf("- `%s`: %s\n", f.NodeID, f.Err))
		}
		sb.WriteString("\n")
	}

	for _, c := range r.Cards {
		writeCard(&sb, c)
	}

	return sb.String()
}

func writeCard(sb *strings.Builder, c Card) {
	spec := c.Spec
	sb.WriteString(fmt.Sprintf("## %s\n\n", spec.Name))
	sb.WriteString(fmt.Sprintf("- **Class**: `.%s`\n", spec.Slug))
	sb.WriteString(fmt.Sprintf("- **Size**: %s × %s\n", extractor.FormatPx(spec.Width), extractor.FormatPx(spec.Height)))
	if spec.Styles.Background != "" {
		sb.WriteString(fmt.Sprintf("- **Background**: `%s`\n", spec.Styles.Background))
	}
	if spec.Styles.BorderRadius != "" {
		sb.WriteString(fmt.Sprintf("- **Radius**: %s\n", spec.Styles.BorderRadius))
	}
	sb.WriteString("\n")

	if len(spec.Colors) > 0 {
		sb.WriteString("### Colors\n\n")
		for _, color := range spec.Colors {
			sb.WriteString(fmt.Sprintf("- `%s`\n", color))
		}
		sb.WriteString("\n")
	}

	if len(spec.Typography) > 0 {
		sb.WriteString("### Typography\n\n")
		sb.WriteString("| Family | Size | Weight | Line Height | Letter Spacing |\n")
		sb.WriteString("|--------|------|--------|-------------|----------------|\n")
		for _, fp := range spec.Typography {
			var ts extractor.TextStyle
			if err := json.Unmarshal([]byte(fp), &ts); err != nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				escapeCell(ts.FontFamily), ts.FontSize, ts.FontWeight, ts.LineHeight, ts.LetterSpacing))
		}
		sb.WriteString("\n")
	}

	if c.CSS != "" {
		sb.WriteString("### Stylesheet\n\n")
		sb.WriteString("```css\n")
		sb.WriteString(c.CSS)
		if !strings.HasSuffix(c.CSS, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")
	}
}

// escapeCell keeps a value from breaking a markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
