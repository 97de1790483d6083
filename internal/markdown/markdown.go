// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown holds the pure formatting primitives the converters emit
// through: cell escaping, table building, headings, list items, emphasis.
package markdown

import (
	"fmt"
	"strings"
)

// cellEscaper is order-sensitive: backslashes first, then pipes, then
// newlines. A lone \r is stripped.
var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "",
)

// EscapeCell makes a string safe for use inside a Markdown table cell.
func EscapeCell(s string) string { return cellEscaper.Replace(s) }

// BuildTable renders a Markdown table. Rows are padded to the header width
// with empty cells; extra cells are dropped. Empty headers produce empty
// output. Every cell passes through EscapeCell. The result ends with a
// newline.
func BuildTable(headers []string, rows [][]string) string {
	n := len(headers)
	if n == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < n; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(EscapeCell(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	b.WriteString("|")
	for i := 0; i < n; i++ {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// Heading renders an ATX heading, clamping the level to [1,6].
func Heading(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// ListItem renders one list entry at the given nesting level. Ordered items
// carry their counter value; unordered items use a dash marker.
func ListItem(level int, ordered bool, counter int, text string) string {
	indent := strings.Repeat("  ", level)
	if ordered {
		return fmt.Sprintf("%s%d. %s", indent, counter, text)
	}
	return indent + "- " + text
}

// Emphasis wraps text in bold/italic markers. Outer whitespace stays outside
// the markers; an all-whitespace text is returned unchanged.
func Emphasis(text string, bold, italic bool) string {
	if !bold && !italic {
		return text
	}
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	var marker string
	switch {
	case bold && italic:
		marker = "***"
	case bold:
		marker = "**"
	default:
		marker = "*"
	}
	lead := text[:strings.Index(text, core)]
	trail := text[strings.Index(text, core)+len(core):]
	return lead + marker + core + marker + trail
}

// Link renders an inline link.
func Link(text, url string) string { return "[" + text + "](" + url + ")" }

// Image renders an inline image reference.
func Image(alt, src string) string { return "![" + alt + "](" + src + ")" }

// CodeFence wraps body in a fenced code block tagged with lang. The body's
// trailing newline is normalized so the closing fence sits on its own line.
func CodeFence(lang, body string) string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return "```" + lang + "\n```"
	}
	return "```" + lang + "\n" + body + "\n```"
}
