// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDetectZipIntrospection(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  Kind
	}{
		{"word", "word/document.xml", Docx},
		{"ppt", "ppt/presentation.xml", Pptx},
		{"xl", "xl/workbook.xml", Xlsx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := zipWith(t, "[Content_Types].xml", tt.entry)
			// Content wins even with a lying extension.
			assert.Equal(t, tt.want, Detect(data, "zip"))
			assert.Equal(t, tt.want, Detect(data, ""))
		})
	}
}

func TestDetectPlainZipIsUnknown(t *testing.T) {
	data := zipWith(t, "readme.txt")
	assert.Equal(t, Unknown, Detect(data, "zip"))
}

func TestDetectPDFMagic(t *testing.T) {
	assert.Equal(t, PDF, Detect([]byte("%PDF-1.7 ..."), ""))
	assert.Equal(t, PDF, Detect([]byte("%PDF-1.7 ..."), "txt"))
}

func TestDetectJSONHeuristic(t *testing.T) {
	assert.Equal(t, JSON, Detect([]byte(`  {"a":1}`), ""))
	assert.Equal(t, JSON, Detect([]byte("\n[1,2]"), ""))
	// A mapped extension wins over the heuristic.
	assert.Equal(t, Notebook, Detect([]byte(`{"cells":[]}`), "ipynb"))
}

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Kind
	}{
		{"csv", CSV},
		{"json", JSON},
		{"xml", XML},
		{"html", HTML},
		{"htm", HTML},
		{"ipynb", Notebook},
		{"py", Code},
		{"rs", Code},
		{"png", Image},
		{"svg", Image},
		{"txt", Text},
		{"md", Text},
		{"yaml", Text},
		{"bin", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect([]byte("x"), tt.ext), "ext %q", tt.ext)
	}
}
