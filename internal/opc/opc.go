// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package opc reads Office Open XML packages: ZIP archives whose entries are
// addressed by forward-slash paths and bound together by .rels relationship
// parts. A missing part is a recoverable condition, not an error.
package opc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/developer0hye/anytomd/pkg/types"
)

// Package is an open, read-only OOXML archive.
type Package struct {
	files map[string]*zip.File
}

// Open validates the archive against the uncompressed-size budget and indexes
// its entries. The budget is summed from the central directory before any
// entry is decompressed.
func Open(data []byte, maxUncompressed int64) (*Package, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &types.ZipError{Err: err}
	}
	var total int64
	for _, f := range r.File {
		total += int64(f.UncompressedSize64)
	}
	if total > maxUncompressed {
		return nil, &types.InputTooLargeError{Size: total, Limit: maxUncompressed}
	}
	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}
	return &Package{files: files}, nil
}

// ReadBytes returns the named part's contents. The second return is false
// when the part does not exist; any other archive failure is an error.
func (p *Package) ReadBytes(name string) ([]byte, bool, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, true, &types.ZipError{Err: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, true, &types.ZipError{Err: err}
	}
	return data, true, nil
}

// ReadText returns the named part decoded as a string.
func (p *Package) ReadText(name string) (string, bool, error) {
	data, ok, err := p.ReadBytes(name)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}

// Has reports whether the named part exists without reading it.
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Relationship is one typed, id-keyed pointer from a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// External reports whether the relationship points outside the package.
func (r Relationship) External() bool { return strings.EqualFold(r.TargetMode, "External") }

type relationshipsXML struct {
	Relationships []struct {
		ID         string `xml:"Id,attr"`
		Type       string `xml:"Type,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// Relationships parses the .rels part governing partPath. A missing .rels
// part yields an empty map.
func (p *Package) Relationships(partPath string) (map[string]Relationship, error) {
	data, ok, err := p.ReadBytes(RelsPath(partPath))
	if err != nil {
		return nil, err
	}
	rels := map[string]Relationship{}
	if !ok {
		return rels, nil
	}
	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, &types.XMLError{Err: err}
	}
	for _, r := range parsed.Relationships {
		rels[r.ID] = Relationship{ID: r.ID, Type: r.Type, Target: r.Target, TargetMode: r.TargetMode}
	}
	return rels, nil
}

// RelsPath returns the path of the .rels part governing partPath:
// dir/_rels/name.ext.rels.
func RelsPath(partPath string) string {
	dir := path.Dir(partPath)
	name := path.Base(partPath)
	if dir == "." {
		return "_rels/" + name + ".rels"
	}
	return dir + "/_rels/" + name + ".rels"
}

// ResolveDir resolves a relationship target against a base directory,
// honoring ../ ascent. An absolute target is taken from the package root.
func ResolveDir(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(baseDir, target))
}

// ResolveFromPart resolves a relationship target against the directory of
// the part that references it.
func ResolveFromPart(partPath, target string) string {
	return ResolveDir(path.Dir(partPath), target)
}
