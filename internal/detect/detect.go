// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect maps input bytes and a path extension to a format kind.
// Content magic wins over the extension: a ZIP container is introspected to
// tell the OOXML families apart, and a %PDF header forces pdf regardless of
// how the file is named.
package detect

import (
	"archive/zip"
	"bytes"
	"strings"
)

// Kind identifies which converter handles an input.
type Kind int

const (
	Unknown Kind = iota
	Docx
	Pptx
	Xlsx
	PDF
	CSV
	JSON
	XML
	HTML
	Notebook
	Code
	Image
	Text
)

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// Detect decides the format for data with the given lowercase extension
// (without a leading dot). An empty or unmapped extension falls back to a
// leading-byte JSON heuristic.
func Detect(data []byte, ext string) Kind {
	if bytes.HasPrefix(data, zipMagic) {
		if k := introspectZip(data); k != Unknown {
			return k
		}
		// A plain ZIP that is not an OOXML package; the extension may
		// still name one of the families (e.g. a stripped fixture).
		return byExtension(ext)
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return PDF
	}
	if k := byExtension(ext); k != Unknown {
		return k
	}
	if looksLikeJSON(data) {
		return JSON
	}
	return Unknown
}

// introspectZip opens the archive and inspects entry names for the OOXML
// content directories.
func introspectZip(data []byte) Kind {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Unknown
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return Docx
		case strings.HasPrefix(f.Name, "ppt/"):
			return Pptx
		case strings.HasPrefix(f.Name, "xl/"):
			return Xlsx
		}
	}
	return Unknown
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// CodeLanguages maps source-file extensions to fence language tags.
var CodeLanguages = map[string]string{
	"py":    "python",
	"rs":    "rust",
	"go":    "go",
	"js":    "javascript",
	"jsx":   "javascript",
	"ts":    "typescript",
	"tsx":   "typescript",
	"java":  "java",
	"c":     "c",
	"h":     "c",
	"cpp":   "cpp",
	"cc":    "cpp",
	"cxx":   "cpp",
	"hpp":   "cpp",
	"cs":    "csharp",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"scala": "scala",
	"sh":    "bash",
	"bash":  "bash",
	"zsh":   "bash",
	"sql":   "sql",
	"r":     "r",
	"lua":   "lua",
	"pl":    "perl",
	"css":   "css",
}

// ImageExtensions maps image-file extensions to themselves (normalized).
var ImageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"bmp": true, "tiff": true, "tif": true, "webp": true, "svg": true,
}

// textExtensions are handled by the plain-text fallback.
var textExtensions = map[string]bool{
	"txt": true, "text": true, "log": true, "md": true, "markdown": true,
	"rst": true, "ini": true, "cfg": true, "conf": true,
	"toml": true, "yaml": true, "yml": true,
}

func byExtension(ext string) Kind {
	switch ext {
	case "docx":
		return Docx
	case "pptx":
		return Pptx
	case "xlsx":
		return Xlsx
	case "pdf":
		return PDF
	case "csv":
		return CSV
	case "json":
		return JSON
	case "xml":
		return XML
	case "html", "htm":
		return HTML
	case "ipynb":
		return Notebook
	}
	if _, ok := CodeLanguages[ext]; ok {
		return Code
	}
	if ImageExtensions[ext] {
		return Image
	}
	if textExtensions[ext] {
		return Text
	}
	return Unknown
}
