// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/xml"
	"errors"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/internal/ooxml"
	"github.com/developer0hye/anytomd/internal/opc"
	"github.com/developer0hye/anytomd/pkg/types"
)

// docxConverter parses word/document.xml with its style, numbering, and
// relationship parts into Markdown. Only the document part is required;
// every other part degrades to an empty map when absent.
type docxConverter struct{}

func (c docxConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res, pending, err := c.convertPending(data, ext, opts)
	if err != nil {
		return nil, err
	}
	res.Markdown = pending.resolve(res.Markdown, opts, res)
	return res, nil
}

func (docxConverter) convertPending(data []byte, ext string, opts *types.Options) (*types.Result, *pendingImages, error) {
	pkg, err := opc.Open(data, opts.ZipLimit())
	if err != nil {
		return nil, nil, err
	}
	doc, ok, err := pkg.ReadBytes("word/document.xml")
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, &types.MalformedDocumentError{Reason: "missing word/document.xml"}
	}

	res := &types.Result{}
	p := &docxParser{
		pkg:      pkg,
		opts:     opts,
		res:      res,
		pending:  newPendingImages(),
		headings: parseStyles(pkg),
		ordered:  parseNumbering(pkg),
		counters: map[int]int{},
	}
	if p.rels, err = pkg.Relationships("word/document.xml"); err != nil {
		res.Warn(types.WarnMalformedSegment, "unreadable document relationships: "+err.Error(), "")
		p.rels = map[string]opc.Relationship{}
	}
	p.parseBody(doc)

	res.Markdown = ensureTrailingNewline(p.join())
	return res, p.pending, nil
}

// orderedFormats lists the numbering formats rendered with counters; every
// other format (bullet included) renders as an unordered item.
var orderedFormats = map[string]bool{
	"decimal": true, "upperRoman": true, "lowerRoman": true,
	"upperLetter": true, "lowerLetter": true, "decimalZero": true,
}

var headingIDPattern = regexp.MustCompile(`^Heading([1-9])$`)
var headingNamePattern = regexp.MustCompile(`^heading ([1-9])$`)

// parseStyles builds styleId -> heading level from word/styles.xml. A style
// qualifies by id ("HeadingN") or by display name ("heading N").
func parseStyles(pkg *opc.Package) map[string]int {
	levels := map[string]int{}
	data, ok, err := pkg.ReadBytes("word/styles.xml")
	if err != nil || !ok {
		return levels
	}
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var styleID string
	for {
		tok, err := dec.Token()
		if err != nil {
			return levels
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "style":
			styleID = ooxml.Attr(se, "styleId")
			if m := headingIDPattern.FindStringSubmatch(styleID); m != nil {
				n, _ := strconv.Atoi(m[1])
				levels[styleID] = n
			}
		case "name":
			if styleID == "" || levels[styleID] != 0 {
				continue
			}
			name := strings.ToLower(ooxml.Attr(se, "val"))
			if m := headingNamePattern.FindStringSubmatch(name); m != nil {
				n, _ := strconv.Atoi(m[1])
				levels[styleID] = n
			}
		}
	}
}

// parseNumbering joins the num -> abstractNum -> level indirection from
// word/numbering.xml into (numId, ilvl) -> ordered.
func parseNumbering(pkg *opc.Package) map[[2]string]bool {
	ordered := map[[2]string]bool{}
	data, ok, err := pkg.ReadBytes("word/numbering.xml")
	if err != nil || !ok {
		return ordered
	}
	type key = [2]string
	numToAbstract := map[string]string{}
	abstractLevels := map[key]bool{}

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var curNum, curAbstract, curLevel string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "num":
			curNum = ooxml.Attr(se, "numId")
		case "abstractNumId":
			if curNum != "" {
				numToAbstract[curNum] = ooxml.Attr(se, "val")
			}
		case "abstractNum":
			curNum = ""
			curAbstract = ooxml.Attr(se, "abstractNumId")
		case "lvl":
			curLevel = ooxml.Attr(se, "ilvl")
		case "numFmt":
			if curAbstract != "" && curLevel != "" {
				abstractLevels[key{curAbstract, curLevel}] = orderedFormats[ooxml.Attr(se, "val")]
			}
		}
	}
	for numID, absID := range numToAbstract {
		for k, v := range abstractLevels {
			if k[0] == absID {
				ordered[key{numID, k[1]}] = v
			}
		}
	}
	return ordered
}

type docxBlock struct {
	text     string
	listItem bool
}

type docxParser struct {
	pkg     *opc.Package
	opts    *types.Options
	res     *types.Result
	pending *pendingImages
	rels    map[string]opc.Relationship

	headings map[string]int
	ordered  map[[2]string]bool

	blocks    []docxBlock
	counters  map[int]int
	usedBytes int
}

// docxParagraph is one finalized paragraph before block dispatch.
type docxParagraph struct {
	text    string
	plain   string
	heading int
	list    bool
	listOrd bool
	level   int
}

func (p *docxParser) parseBody(doc []byte) {
	dec := xml.NewDecoder(strings.NewReader(string(doc)))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			p.res.Warn(types.WarnMalformedSegment, "document parse aborted: "+err.Error(), "word/document.xml")
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			para, err := p.parseParagraph(dec)
			if err != nil {
				p.res.Warn(types.WarnMalformedSegment, "document parse aborted: "+err.Error(), "word/document.xml")
				return
			}
			p.finalize(para)
		case "tbl":
			table, err := p.parseTable(dec)
			if err != nil {
				p.res.Warn(types.WarnMalformedSegment, "document parse aborted: "+err.Error(), "word/document.xml")
				return
			}
			if table != "" {
				p.blocks = append(p.blocks, docxBlock{text: strings.TrimRight(table, "\n")})
			}
		}
	}
}

// parseParagraph consumes tokens up to the matching paragraph end.
func (p *docxParser) parseParagraph(dec *xml.Decoder) (docxParagraph, error) {
	var para docxParagraph
	var b ooxml.InlineBuilder
	var plain strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return para, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := p.parseParagraphProps(dec, &para); err != nil {
					return para, err
				}
			case "r":
				if err := p.parseRun(dec, &b, &plain); err != nil {
					return para, err
				}
			case "hyperlink":
				if err := p.parseHyperlink(dec, t, &b, &plain); err != nil {
					return para, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				para.text = strings.TrimSpace(b.String())
				para.plain = strings.TrimSpace(plain.String())
				return para, nil
			}
		}
	}
}

func (p *docxParser) parseParagraphProps(dec *xml.Decoder, para *docxParagraph) error {
	var numID, ilvl string
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				para.heading = p.headingLevel(ooxml.Attr(t, "val"))
			case "numId":
				numID = ooxml.Attr(t, "val")
			case "ilvl":
				ilvl = ooxml.Attr(t, "val")
			}
		case xml.EndElement:
			if t.Name.Local == "pPr" {
				if numID != "" && numID != "0" {
					para.list = true
					if ilvl == "" {
						ilvl = "0"
					}
					para.level, _ = strconv.Atoi(ilvl)
					para.listOrd = p.ordered[[2]string{numID, ilvl}]
				}
				return nil
			}
		}
	}
}

// headingLevel resolves a pStyle value: the "HeadingN" pattern on the value
// itself wins, then the style table.
func (p *docxParser) headingLevel(styleVal string) int {
	if m := headingIDPattern.FindStringSubmatch(styleVal); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return p.headings[styleVal]
}

func (p *docxParser) parseRun(dec *xml.Decoder, b *ooxml.InlineBuilder, plain *strings.Builder) error {
	// A run without rPr is plain; the style is applied on the first text
	// token so adjacent same-styled runs merge into one span.
	var inText, styleSet bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				st, err := parseRunProps(dec)
				if err != nil {
					return err
				}
				b.SetStyle(st)
				styleSet = true
			case "t":
				if !styleSet {
					b.SetStyle(ooxml.RunStyle{})
					styleSet = true
				}
				inText = true
			case "br", "cr":
				b.WriteRaw("\n")
				plain.WriteString("\n")
			case "tab":
				b.WriteText("\t")
				plain.WriteString("\t")
			case "drawing":
				markup, err := p.parseDrawing(dec)
				if err != nil {
					return err
				}
				if markup != "" {
					b.WriteRaw(markup)
				}
			}
		case xml.CharData:
			if inText {
				b.WriteText(string(t))
				plain.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				return nil
			}
		}
	}
}

func parseRunProps(dec *xml.Decoder) (ooxml.RunStyle, error) {
	var st ooxml.RunStyle
	for {
		tok, err := dec.Token()
		if err != nil {
			return st, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "b":
				st.Bold = ooxml.OnOff(t)
			case "i":
				st.Italic = ooxml.OnOff(t)
			}
		case xml.EndElement:
			if t.Name.Local == "rPr" {
				return st, nil
			}
		}
	}
}

func (p *docxParser) parseHyperlink(dec *xml.Decoder, start xml.StartElement, b *ooxml.InlineBuilder, plain *strings.Builder) error {
	rid := ooxml.Attr(start, "id")
	anchor := ooxml.Attr(start, "anchor")
	var inner ooxml.InlineBuilder
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "r" {
				if err := p.parseRun(dec, &inner, plain); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "hyperlink" {
				text := inner.String()
				switch {
				case rid != "":
					if rel, ok := p.rels[rid]; ok {
						b.WriteRaw(markdown.Link(text, rel.Target))
					} else {
						p.res.Warn(types.WarnSkippedElement, "unresolved hyperlink relationship "+rid, "")
						b.WriteRaw(text)
					}
				case anchor != "":
					b.WriteRaw(markdown.Link(text, "#"+anchor))
				default:
					b.WriteRaw(text)
				}
				return nil
			}
		}
	}
}

// parseDrawing captures the alt text (docPr descr) and the blip's r:embed
// reference, returning the placeholder image markup.
func (p *docxParser) parseDrawing(dec *xml.Decoder) (string, error) {
	var alt, rid string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "docPr":
				alt = ooxml.Attr(t, "descr")
			case "blip":
				rid = ooxml.Attr(t, "embed")
			}
		case xml.EndElement:
			if t.Name.Local == "drawing" {
				if rid == "" {
					return "", nil
				}
				rel, ok := p.rels[rid]
				if !ok {
					p.res.Warn(types.WarnSkippedElement, "unresolved image relationship "+rid, "")
					return "", nil
				}
				target := opc.ResolveDir("word", rel.Target)
				imgData, _, err := p.pkg.ReadBytes(target)
				if err != nil {
					return "", err
				}
				name := path.Base(target)
				extractImage(name, imgData, &p.usedBytes, p.opts, p.res)
				return p.pending.add(alt, name, imgData), nil
			}
		}
	}
}

// parseTable collects tbl/tr/tc into a Markdown table; the first row is the
// header row. A nested table is skipped with a warning.
func (p *docxParser) parseTable(dec *xml.Decoder) (string, error) {
	var rows [][]string
	var row []string
	var cell []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				row = nil
			case "tc":
				cell = nil
			case "p":
				para, err := p.parseParagraph(dec)
				if err != nil {
					return "", err
				}
				if para.text != "" {
					cell = append(cell, para.text)
				}
			case "tbl":
				p.res.Warn(types.WarnSkippedElement, "nested table skipped", "")
				if err := dec.Skip(); err != nil {
					return "", err
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				row = append(row, strings.Join(cell, " "))
			case "tr":
				rows = append(rows, row)
			case "tbl":
				if len(rows) == 0 {
					return "", nil
				}
				return markdown.BuildTable(rows[0], rows[1:]), nil
			}
		}
	}
}

// finalize dispatches one parsed paragraph into the block list.
func (p *docxParser) finalize(para docxParagraph) {
	if para.text == "" {
		return
	}
	switch {
	case para.heading > 0:
		if para.heading == 1 && p.res.Title == nil {
			title := para.plain
			p.res.Title = &title
		}
		p.blocks = append(p.blocks, docxBlock{text: markdown.Heading(para.heading, para.text)})
	case para.list:
		counter := 1
		if para.listOrd {
			p.counters[para.level]++
			counter = p.counters[para.level]
		}
		p.blocks = append(p.blocks, docxBlock{
			text:     markdown.ListItem(para.level, para.listOrd, counter, para.text),
			listItem: true,
		})
	default:
		p.blocks = append(p.blocks, docxBlock{text: para.text})
	}
}

// join renders the block list: consecutive list items sit on adjacent lines,
// everything else is separated by a blank line.
func (p *docxParser) join() string {
	var b strings.Builder
	for i, blk := range p.blocks {
		if i > 0 {
			if blk.listItem && p.blocks[i-1].listItem {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(blk.text)
	}
	return b.String()
}
