// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer0hye/anytomd/pkg/types"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpenAndRead(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml": "<doc/>",
	})
	pkg, err := Open(data, 1<<20)
	require.NoError(t, err)

	text, ok, err := pkg.ReadText("word/document.xml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<doc/>", text)

	_, ok, err = pkg.ReadBytes("word/missing.xml")
	require.NoError(t, err)
	assert.False(t, ok, "missing part is not an error")

	assert.True(t, pkg.Has("word/document.xml"))
	assert.False(t, pkg.Has("nope"))
}

func TestOpenBudget(t *testing.T) {
	data := buildZip(t, map[string]string{"a.xml": "0123456789"})
	_, err := Open(data, 4)
	var tooLarge *types.InputTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(4), tooLarge.Limit)
}

func TestOpenNotZip(t *testing.T) {
	_, err := Open([]byte("not an archive"), 1<<20)
	var zipErr *types.ZipError
	assert.True(t, errors.As(err, &zipErr))
}

func TestRelationships(t *testing.T) {
	rels := `<?xml version="1.0"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"/>
</Relationships>`
	data := buildZip(t, map[string]string{
		"word/document.xml":            "<doc/>",
		"word/_rels/document.xml.rels": rels,
	})
	pkg, err := Open(data, 1<<20)
	require.NoError(t, err)

	m, err := pkg.Relationships("word/document.xml")
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "media/image1.png", m["rId1"].Target)
	assert.False(t, m["rId1"].External())
	assert.True(t, m["rId2"].External())
}

func TestRelationshipsMissing(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": "<doc/>"})
	pkg, err := Open(data, 1<<20)
	require.NoError(t, err)
	m, err := pkg.Relationships("word/document.xml")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestRelsPath(t *testing.T) {
	assert.Equal(t, "word/_rels/document.xml.rels", RelsPath("word/document.xml"))
	assert.Equal(t, "ppt/slides/_rels/slide1.xml.rels", RelsPath("ppt/slides/slide1.xml"))
	assert.Equal(t, "_rels/presentation.xml.rels", RelsPath("presentation.xml"))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "word/media/image1.png", ResolveDir("word", "media/image1.png"))
	assert.Equal(t, "xl/media/image1.png", ResolveDir("xl/worksheets", "../media/image1.png"))
	assert.Equal(t, "ppt/media/a.png", ResolveFromPart("ppt/slides/slide1.xml", "../media/a.png"))
	assert.Equal(t, "xl/media/a.png", ResolveDir("xl/drawings", "/xl/media/a.png"))
}
