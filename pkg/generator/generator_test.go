package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/kataras/figma-cards/pkg/extractor"
	"github.com/kataras/figma-cards/pkg/figma"
)

func balanceCard() *figma.Node {
	return &figma.Node{
		ID:           "10:1",
		Name:         "Balance Card",
		Type:         figma.NodeFrame,
		CornerRadius: 16,
		Fills:        []figma.Paint{{Type: figma.PaintSolid, Color: &figma.Color{R: 1, G: 1, B: 1, A: 1}}},
		Children: []figma.Node{
			{
				ID:                  "10:2",
				Name:                "Bar",
				Type:                figma.NodeRectangle,
				AbsoluteBoundingBox: &figma.Rectangle{X: 10, Y: 10, Width: 100, Height: 20},
			},
			{
				ID:         "10:3",
				Name:       "Label",
				Type:       figma.NodeText,
				Characters: "Balance",
				Style:      &figma.TypeStyle{FontSize: 24, FontWeight: 700},
			},
		},
	}
}

func findRule(t *testing.T, rules []Rule, selector string) Rule {
	t.Helper()
	for _, r := range rules {
		if r.Selector == selector {
			return r
		}
	}
	t.Fatalf("no rule for %q", selector)
	return Rule{}
}

func TestCSS_BalanceCard(t *testing.T) {
	spec := extractor.Extract(balanceCard(), nil)
	require.Len(t, spec.Children, 2)

	rules := Rules(spec)
	require.Len(t, rules, 3)

	root := findRule(t, rules, ".balance-card").String()
	assert.Contains(t, root, "border-radius: 16px;")
	assert.Contains(t, root, "background-color: var(--color-white);")

	label := findRule(t, rules, ".balance-card .label").String()
	assert.Contains(t, label, "font-size: 24px;")
	assert.Contains(t, label, "font-weight: 700;")
	assert.Contains(t, label, "letter-spacing: normal;")

	bar := findRule(t, rules, ".balance-card .bar").String()
	assert.Equal(t, `.balance-card .bar {
  position: absolute;
  left: 10px;
  top: 10px;
  width: 100px;
  height: 20px;
}
`, bar)

	css := CSS(spec)
	assert.True(t, strings.HasPrefix(css, ".balance-card {\n"))
	assert.Equal(t, 3, strings.Count(css, "}\n"))
}

func TestCSS_PositionsRelativeToRoot(t *testing.T) {
	spec := &extractor.CardSpec{
		Slug: "card", X: 100, Y: 200, Width: 300, Height: 150,
		Children: []extractor.ChildSpec{
			{Slug: "amount", X: 124, Y: 216.5, Width: 80, Height: 20, Background: "var(--color-success)", BorderRadius: 4,
				Text: "+$20", TextStyle: &extractor.TextStyle{FontFamily: "SF Pro Display", FontSize: "14px", FontWeight: "600", LetterSpacing: "normal", LineHeight: "20px"}},
		},
		Styles: extractor.CardStyles{BorderColor: "var(--color-gray-200)"},
	}

	rules := Rules(spec)
	root := rules[0].String()
	assert.Contains(t, root, "border: 1px solid var(--color-gray-200);")
	assert.NotContains(t, root, "background-color")

	amount := rules[1].String()
	assert.Contains(t, amount, "left: 24px;")
	assert.Contains(t, amount, "top: 16.5px;")
	assert.Contains(t, amount, "color: var(--color-success);")
	assert.NotContains(t, amount, "background-color")
	assert.Contains(t, amount, "border-radius: 4px;")
	assert.Contains(t, amount, "font-family: 'SF Pro Display';")
	assert.Contains(t, amount, "line-height: 20px;")
}

func TestCSS_TextFillIsColor(t *testing.T) {
	spec := &extractor.CardSpec{
		Slug: "card",
		Children: []extractor.ChildSpec{
			{Slug: "label", Background: "var(--color-primary)", Text: "Total", TextStyle: &extractor.TextStyle{}},
			{Slug: "bar", Background: "var(--color-primary)"},
		},
	}
	rules := Rules(spec)

	label := findRule(t, rules, ".card .label")
	assert.Contains(t, label.String(), "  color: var(--color-primary);\n")
	assert.NotContains(t, label.String(), "background-color")

	bar := findRule(t, rules, ".card .bar")
	assert.Contains(t, bar.String(), "  background-color: var(--color-primary);\n")
}

func TestRules_DigitLeadingSlugIsVerbatim(t *testing.T) {
	spec := &extractor.CardSpec{
		Slug:     "1-card",
		Children: []extractor.ChildSpec{{Slug: "2fa-badge"}},
	}
	rules := Rules(spec)
	require.Len(t, rules, 2)
	assert.Equal(t, ".1-card", rules[0].Selector)
	assert.Equal(t, ".1-card .2fa-badge", rules[1].Selector)
}

func TestHTML_Structure(t *testing.T) {
	spec := &extractor.CardSpec{
		Slug: "spending",
		Children: []extractor.ChildSpec{
			{Slug: "header", Depth: 0},
			{Slug: "title", Depth: 1, Text: "Spending <this month>", TextStyle: &extractor.TextStyle{}},
			{Slug: "chart", Depth: 0},
			{Slug: "bar", Depth: 1},
			{Slug: "bar", Depth: 2},
		},
	}

	out := HTML(spec)
	assert.Equal(t, `<div class="spending">
  <div class="header"></div>
    <span class="title">Spending &lt;this month&gt;</span>
  <div class="chart"></div>
    <div class="bar"></div>
      <div class="bar"></div>
</div>
`, out)

	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var root *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if root != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && classOf(n) == "spending" {
			root = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, root)

	var classes []string
	var texts []string
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		classes = append(classes, c.Data+"."+classOf(c))
		if c.Data == "span" && c.FirstChild != nil {
			texts = append(texts, c.FirstChild.Data)
		}
	}
	assert.Equal(t, []string{"div.header", "span.title", "div.chart", "div.bar", "div.bar"}, classes,
		"children are flat siblings of the root")
	assert.Equal(t, []string{"Spending <this month>"}, texts)
}

func TestHTML_Empty(t *testing.T) {
	assert.Equal(t, "<div class=\"blank\">\n</div>\n", HTML(&extractor.CardSpec{Slug: "blank"}))
}

func classOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return a.Val
		}
	}
	return ""
}
