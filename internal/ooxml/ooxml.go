// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ooxml carries the run/paragraph text machinery shared by the
// word-processing and presentation parsers: attribute helpers that ignore
// namespace prefixes, run-style toggles, and an inline builder that merges
// adjacent same-styled text into minimal emphasis spans.
package ooxml

import (
	"encoding/xml"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
)

// Attr returns the value of the attribute with the given local name,
// whatever its namespace prefix.
func Attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// relNS is the officeDocument relationships namespace that qualifies r:id
// and r:embed attributes.
const relNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// RelAttr returns the relationship-namespaced attribute with the given local
// name. Elements like sldId carry both an unqualified id and an r:id, so a
// local-name match alone is ambiguous there.
func RelAttr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Local == local && a.Name.Space == relNS {
			return a.Value
		}
	}
	return ""
}

// OnOff interprets a w:b / w:i style toggle element: present means on unless
// its val attribute explicitly reads "0" or "false".
func OnOff(e xml.StartElement) bool {
	v := Attr(e, "val")
	return v != "0" && !strings.EqualFold(v, "false")
}

// RunStyle is the emphasis state of one text run.
type RunStyle struct {
	Bold   bool
	Italic bool
}

// InlineBuilder accumulates run text into a single inline Markdown string.
// Consecutive runs sharing a style collapse into one emphasis span, so split
// runs do not produce doubled markers.
type InlineBuilder struct {
	out   strings.Builder
	span  strings.Builder
	style RunStyle
}

// SetStyle switches the current run style, flushing the open span when the
// style changes.
func (b *InlineBuilder) SetStyle(st RunStyle) {
	if st != b.style {
		b.flush()
		b.style = st
	}
}

// WriteText appends run text under the current style.
func (b *InlineBuilder) WriteText(s string) {
	b.span.WriteString(s)
}

// WriteRaw appends pre-rendered Markdown (links, images, breaks) outside any
// emphasis span.
func (b *InlineBuilder) WriteRaw(s string) {
	b.flush()
	b.out.WriteString(s)
}

// Len reports the length of the text accumulated so far.
func (b *InlineBuilder) Len() int {
	return b.out.Len() + b.span.Len()
}

// String closes the open span and returns the built inline Markdown.
func (b *InlineBuilder) String() string {
	b.flush()
	return b.out.String()
}

func (b *InlineBuilder) flush() {
	if b.span.Len() == 0 {
		return
	}
	b.out.WriteString(markdown.Emphasis(b.span.String(), b.style.Bold, b.style.Italic))
	b.span.Reset()
}
