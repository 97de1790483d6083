// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/internal/ooxml"
	"github.com/developer0hye/anytomd/internal/opc"
	"github.com/developer0hye/anytomd/pkg/types"
)

// pptxConverter walks slides in sldIdLst order, rendering each as a level-2
// heading followed by body text, tables, images, and speaker notes. Slides
// are separated by horizontal rules.
type pptxConverter struct{}

func (c pptxConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res, pending, err := c.convertPending(data, ext, opts)
	if err != nil {
		return nil, err
	}
	res.Markdown = pending.resolve(res.Markdown, opts, res)
	return res, nil
}

func (pptxConverter) convertPending(data []byte, ext string, opts *types.Options) (*types.Result, *pendingImages, error) {
	pkg, err := opc.Open(data, opts.ZipLimit())
	if err != nil {
		return nil, nil, err
	}
	res := &types.Result{}
	pending := newPendingImages()

	parts, err := slideParts(pkg)
	if err != nil {
		return nil, nil, err
	}

	p := &pptxParser{pkg: pkg, opts: opts, res: res, pending: pending}
	var rendered []string
	for i, part := range parts {
		md := p.renderSlide(i+1, part)
		if md != "" {
			rendered = append(rendered, md)
		}
	}
	res.Markdown = ensureTrailingNewline(strings.Join(rendered, "\n\n---\n\n"))
	return res, pending, nil
}

// slideParts resolves the ordered slide part paths from presentation.xml and
// its relationships.
func slideParts(pkg *opc.Package) ([]string, error) {
	doc, ok, err := pkg.ReadBytes("ppt/presentation.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.MalformedDocumentError{Reason: "missing ppt/presentation.xml"}
	}
	rels, err := pkg.Relationships("ppt/presentation.xml")
	if err != nil {
		return nil, err
	}

	var parts []string
	dec := xml.NewDecoder(strings.NewReader(string(doc)))
	inList := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parts, nil
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sldIdLst":
				inList = true
			case "sldId":
				if !inList {
					continue
				}
				if rel, ok := rels[ooxml.RelAttr(t, "id")]; ok {
					parts = append(parts, opc.ResolveDir("ppt", rel.Target))
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sldIdLst" {
				inList = false
			}
		}
	}
	return parts, nil
}

type pptxParser struct {
	pkg       *opc.Package
	opts      *types.Options
	res       *types.Result
	pending   *pendingImages
	usedBytes int
}

// slideContent is everything harvested from one slide part.
type slideContent struct {
	title  string
	bodies []string
	tables []string
	images []string
	notes  []string
}

func (p *pptxParser) renderSlide(n int, part string) string {
	data, ok, err := p.pkg.ReadBytes(part)
	if err != nil || !ok {
		p.res.Warn(types.WarnSkippedElement, fmt.Sprintf("missing slide part %s", part), part)
		return ""
	}
	rels, err := p.pkg.Relationships(part)
	if err != nil {
		p.res.Warn(types.WarnMalformedSegment, "unreadable slide relationships: "+err.Error(), part)
		rels = map[string]opc.Relationship{}
	}

	content := p.parseSlide(data, part, rels)
	p.collectNotes(part, rels, &content)

	heading := fmt.Sprintf("## Slide %d", n)
	if content.title != "" {
		heading += ": " + content.title
	}
	blocks := []string{heading}
	blocks = append(blocks, content.bodies...)
	blocks = append(blocks, content.tables...)
	blocks = append(blocks, content.images...)
	if len(content.notes) > 0 {
		lines := make([]string, len(content.notes))
		for i, note := range content.notes {
			if i == 0 {
				lines[i] = "> Note: " + note
			} else {
				lines[i] = "> " + note
			}
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// parseSlide streams one slide part. Top-level drawables (sp, graphicFrame,
// pic) are parsed by dedicated loops so the p/r/t names nested inside tables
// and text bodies cannot be confused.
func (p *pptxParser) parseSlide(data []byte, part string, rels map[string]opc.Relationship) slideContent {
	var content slideContent
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.res.Warn(types.WarnMalformedSegment, "slide parse aborted: "+err.Error(), part)
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var perr error
		switch se.Name.Local {
		case "sp":
			perr = p.parseShape(dec, &content)
		case "graphicFrame":
			perr = p.parseGraphicFrame(dec, &content)
		case "pic":
			perr = p.parsePicture(dec, part, rels, &content)
		}
		if perr != nil {
			p.res.Warn(types.WarnMalformedSegment, "slide parse aborted: "+perr.Error(), part)
			break
		}
	}
	if p.res.Title == nil && content.title != "" {
		title := content.title
		p.res.Title = &title
	}
	return content
}

// parseShape reads one sp element and dispatches its text by placeholder
// type: title/ctrTitle shapes become the slide title, everything else with
// non-empty text is body content.
func (p *pptxParser) parseShape(dec *xml.Decoder, content *slideContent) error {
	phType, paragraphs, err := readShapeText(dec)
	if err != nil {
		return err
	}
	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		return nil
	}
	switch phType {
	case "title", "ctrTitle":
		if content.title == "" {
			content.title = strings.Join(paragraphs, " ")
		} else {
			content.bodies = append(content.bodies, text)
		}
	default:
		content.bodies = append(content.bodies, text)
	}
	return nil
}

// readShapeText consumes one sp element, returning its placeholder type and
// the non-empty paragraphs of its text body.
func readShapeText(dec *xml.Decoder) (string, []string, error) {
	var phType string
	var paragraphs []string
	var para strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "ph":
				phType = ooxml.Attr(t, "type")
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "br":
				para.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(para.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			case "sp":
				return phType, paragraphs, nil
			}
		}
	}
}

// parseGraphicFrame extracts an a:tbl as a Markdown table. Cell paragraphs
// are joined by single spaces; the first row is the header row.
func (p *pptxParser) parseGraphicFrame(dec *xml.Decoder, content *slideContent) error {
	var rows [][]string
	var row []string
	var cellParas []string
	var para strings.Builder
	inText := false
	inCell := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				row = nil
			case "tc":
				inCell = true
				cellParas = nil
			case "p":
				if inCell {
					para.Reset()
				}
			case "t":
				inText = inCell
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inCell {
					if text := strings.TrimSpace(para.String()); text != "" {
						cellParas = append(cellParas, text)
					}
				}
			case "tc":
				inCell = false
				row = append(row, strings.Join(cellParas, " "))
			case "tr":
				rows = append(rows, row)
			case "graphicFrame":
				if len(rows) > 0 {
					table := strings.TrimRight(markdown.BuildTable(rows[0], rows[1:]), "\n")
					content.tables = append(content.tables, table)
				}
				return nil
			}
		}
	}
}

// parsePicture captures the blip reference and resolves it through the
// slide's relationships to the media part.
func (p *pptxParser) parsePicture(dec *xml.Decoder, part string, rels map[string]opc.Relationship, content *slideContent) error {
	var alt, rid string
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cNvPr":
				if v := ooxml.Attr(t, "descr"); v != "" {
					alt = v
				}
			case "blip":
				rid = ooxml.Attr(t, "embed")
			}
		case xml.EndElement:
			if t.Name.Local == "pic" {
				if rid == "" {
					return nil
				}
				rel, ok := rels[rid]
				if !ok {
					p.res.Warn(types.WarnSkippedElement, "unresolved image relationship "+rid, part)
					return nil
				}
				target := opc.ResolveFromPart(part, rel.Target)
				imgData, _, err := p.pkg.ReadBytes(target)
				if err != nil {
					return err
				}
				name := path.Base(target)
				extractImage(name, imgData, &p.usedBytes, p.opts, p.res)
				content.images = append(content.images, p.pending.add(alt, name, imgData))
				return nil
			}
		}
	}
}

// collectNotes resolves the slide's notesSlide relationship and pulls the
// body-placeholder paragraphs from the notes part.
func (p *pptxParser) collectNotes(part string, rels map[string]opc.Relationship, content *slideContent) {
	var notesPart string
	for _, rel := range rels {
		if strings.HasSuffix(rel.Type, "/notesSlide") {
			notesPart = opc.ResolveFromPart(part, rel.Target)
			break
		}
	}
	if notesPart == "" {
		return
	}
	data, ok, err := p.pkg.ReadBytes(notesPart)
	if err != nil || !ok {
		return
	}

	// Only body-placeholder shapes are speaker text; the notes page also
	// carries slide-image and slide-number placeholders that must not leak
	// into the blockquote.
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.res.Warn(types.WarnMalformedSegment, "notes parse aborted: "+err.Error(), notesPart)
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sp" {
			continue
		}
		phType, paragraphs, err := readShapeText(dec)
		if err != nil {
			p.res.Warn(types.WarnMalformedSegment, "notes parse aborted: "+err.Error(), notesPart)
			break
		}
		if phType != "body" {
			continue
		}
		for _, para := range paragraphs {
			content.notes = append(content.notes, strings.Split(para, "\n")...)
		}
	}
}
