package formatter

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// ToHTML renders a markdown report to a standalone HTML page. Layer names and
// text come straight from the Figma file, so the rendered body is sanitized
// before it is embedded.
func ToHTML(title, md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	body := bluemonday.UGCPolicy().SanitizeBytes(buf.Bytes())

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem}" +
		"table{border-collapse:collapse}td,th{border:1px solid #e5e7eb;padding:4px 8px}" +
		"pre{background:#f3f4f6;padding:1rem;overflow:auto}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body)
	page.WriteString("</body>\n</html>\n")

	return page.String(), nil
}
