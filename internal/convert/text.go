// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/developer0hye/anytomd/pkg/types"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText turns raw bytes into a string. UTF-8 (with or without BOM)
// passes through silently; a UTF-16 BOM or invalid UTF-8 triggers a fallback
// decode with a single UnsupportedFeature warning.
func decodeText(data []byte, res *types.Result) string {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(data); err == nil {
			res.Warn(types.WarnUnsupportedFeature, "input decoded as UTF-16", "")
			return string(out)
		}
	}
	data = bytes.TrimPrefix(data, bomUTF8)
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Windows-1252 maps every byte; this is unreachable in practice.
		res.Warn(types.WarnUnsupportedFeature, "input is not valid UTF-8; invalid sequences replaced", "")
		return strings.ToValidUTF8(string(data), "�")
	}
	res.Warn(types.WarnUnsupportedFeature, "input is not valid UTF-8; decoded as Windows-1252", "")
	return string(out)
}

// firstHeadingTitle parses Markdown and returns the text of the first
// level-1 heading, or nil when there is none.
func firstHeadingTitle(src []byte) *string {
	root := goldmark.DefaultParser().Parse(gmtext.NewReader(src))
	var title *string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		text := strings.TrimSpace(b.String())
		if text != "" {
			title = &text
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// ensureTrailingNewline trims trailing whitespace and, when the text is
// non-empty, terminates it with exactly one newline.
func ensureTrailingNewline(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}
