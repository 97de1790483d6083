// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ooxml

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
)

func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func TestOnOff(t *testing.T) {
	assert.True(t, OnOff(start("b")))
	assert.True(t, OnOff(start("b", xml.Attr{Name: xml.Name{Local: "val"}, Value: "1"})))
	assert.True(t, OnOff(start("b", xml.Attr{Name: xml.Name{Local: "val"}, Value: "true"})))
	assert.False(t, OnOff(start("b", xml.Attr{Name: xml.Name{Local: "val"}, Value: "0"})))
	assert.False(t, OnOff(start("b", xml.Attr{Name: xml.Name{Local: "val"}, Value: "false"})))
}

func TestAttrIgnoresPrefix(t *testing.T) {
	e := start("blip", xml.Attr{
		Name:  xml.Name{Space: "http://schemas.openxmlformats.org/officeDocument/2006/relationships", Local: "embed"},
		Value: "rId3",
	})
	assert.Equal(t, "rId3", Attr(e, "embed"))
	assert.Equal(t, "", Attr(e, "link"))
}

func TestRelAttrDisambiguatesID(t *testing.T) {
	e := start("sldId",
		xml.Attr{Name: xml.Name{Local: "id"}, Value: "256"},
		xml.Attr{
			Name:  xml.Name{Space: "http://schemas.openxmlformats.org/officeDocument/2006/relationships", Local: "id"},
			Value: "rId2",
		})
	assert.Equal(t, "rId2", RelAttr(e, "id"))
	assert.Equal(t, "256", Attr(e, "id"))
	assert.Equal(t, "", RelAttr(start("sldId"), "id"))
}

func TestInlineBuilderMergesRuns(t *testing.T) {
	var b InlineBuilder
	b.SetStyle(RunStyle{Bold: true})
	b.WriteText("hel")
	b.SetStyle(RunStyle{Bold: true})
	b.WriteText("lo")
	b.SetStyle(RunStyle{})
	b.WriteText(" world")
	assert.Equal(t, "**hello** world", b.String())
}

func TestInlineBuilderStyleChange(t *testing.T) {
	var b InlineBuilder
	b.WriteText("a ")
	b.SetStyle(RunStyle{Italic: true})
	b.WriteText("b")
	b.SetStyle(RunStyle{Bold: true, Italic: true})
	b.WriteText("c")
	assert.Equal(t, "a *b****c***", b.String())
}

func TestInlineBuilderRaw(t *testing.T) {
	var b InlineBuilder
	b.SetStyle(RunStyle{Bold: true})
	b.WriteText("see ")
	b.WriteRaw("[here](https://example.com)")
	assert.Equal(t, "**see** [here](https://example.com)", b.String())
	assert.NotZero(t, b.Len())
}
