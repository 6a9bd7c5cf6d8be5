// Package render turns service output into view fragments: feedback
// markdown into HTML and a resume PDF into viewer metadata.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// CodeStyle is the chroma style used for fenced code blocks.
const CodeStyle = "github"

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle(CodeStyle),
			highlighting.WithFormatOptions(chromahtml.TabWidth(4)),
		),
	),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown converts feedback text to HTML. Raw HTML in the source is
// escaped, so the result is safe to embed.
func Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(normalizeBullets(src)), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// normalizeBullets turns "•" bullets, common in model output, into
// markdown list items.
func normalizeBullets(src string) string {
	if !strings.Contains(src, "•") {
		return src
	}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if rest, ok := strings.CutPrefix(trimmed, "•"); ok {
			indent := line[:len(line)-len(trimmed)]
			lines[i] = indent + "*" + rest
		}
	}
	return strings.Join(lines, "\n")
}
