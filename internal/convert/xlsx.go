// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/internal/ooxml"
	"github.com/developer0hye/anytomd/internal/opc"
	"github.com/developer0hye/anytomd/pkg/types"
)

// xlsxConverter emits one level-2 heading and Markdown table per worksheet,
// in workbook declaration order. Cell values are typed: shared and inline
// strings, numbers, booleans, date-styled serials, and error tokens.
type xlsxConverter struct{}

func (c xlsxConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res, pending, err := c.convertPending(data, ext, opts)
	if err != nil {
		return nil, err
	}
	res.Markdown = pending.resolve(res.Markdown, opts, res)
	return res, nil
}

func (xlsxConverter) convertPending(data []byte, ext string, opts *types.Options) (*types.Result, *pendingImages, error) {
	pkg, err := opc.Open(data, opts.ZipLimit())
	if err != nil {
		return nil, nil, err
	}
	res := &types.Result{}
	pending := newPendingImages()

	sheets, err := workbookSheets(pkg)
	if err != nil {
		return nil, nil, err
	}

	w := &xlsxParser{
		pkg:     pkg,
		opts:    opts,
		res:     res,
		pending: pending,
		shared:  parseSharedStrings(pkg),
		styles:  parseCellStyles(pkg),
	}
	var sections []string
	for _, sheet := range sheets {
		if md := w.renderSheet(sheet); md != "" {
			sections = append(sections, md)
		}
	}
	res.Markdown = ensureTrailingNewline(strings.Join(sections, "\n\n"))
	return res, pending, nil
}

type worksheet struct {
	name string
	part string
}

// workbookSheets lists worksheet parts in workbook declaration order.
func workbookSheets(pkg *opc.Package) ([]worksheet, error) {
	doc, ok, err := pkg.ReadBytes("xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.MalformedDocumentError{Reason: "missing xl/workbook.xml"}
	}
	rels, err := pkg.Relationships("xl/workbook.xml")
	if err != nil {
		return nil, err
	}

	var sheets []worksheet
	dec := xml.NewDecoder(strings.NewReader(string(doc)))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		rel, ok := rels[ooxml.RelAttr(se, "id")]
		if !ok {
			continue
		}
		sheets = append(sheets, worksheet{
			name: ooxml.Attr(se, "name"),
			part: opc.ResolveDir("xl", rel.Target),
		})
	}
	return sheets, nil
}

// parseSharedStrings reads xl/sharedStrings.xml. Each si entry is the
// concatenation of its t elements, so rich-text runs flatten to plain text.
func parseSharedStrings(pkg *opc.Package) []string {
	data, ok, err := pkg.ReadBytes("xl/sharedStrings.xml")
	if err != nil || !ok {
		return nil
	}
	var shared []string
	var cur strings.Builder
	inSI, inT := false, false
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inSI = true
				cur.Reset()
			case "t":
				inT = inSI
			}
		case xml.CharData:
			if inT {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "si":
				inSI = false
				shared = append(shared, cur.String())
			}
		}
	}
	return shared
}

// builtinDateFormats are the standard numFmtIds that render as dates/times.
func builtinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// cellStyles maps a cell's style index (the s attribute) to whether its
// number format is date-like.
type cellStyles struct {
	dateStyle []bool
}

func parseCellStyles(pkg *opc.Package) cellStyles {
	var cs cellStyles
	data, ok, err := pkg.ReadBytes("xl/styles.xml")
	if err != nil || !ok {
		return cs
	}
	customDate := map[int]bool{}
	inCellXfs := false
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "numFmt":
				id, _ := strconv.Atoi(ooxml.Attr(t, "numFmtId"))
				customDate[id] = dateFormatCode(ooxml.Attr(t, "formatCode"))
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id, _ := strconv.Atoi(ooxml.Attr(t, "numFmtId"))
				cs.dateStyle = append(cs.dateStyle, builtinDateFormat(id) || customDate[id])
			}
		case xml.EndElement:
			if t.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
	return cs
}

// dateFormatCode reports whether a custom number format renders date or time
// components. Bracketed sections and quoted literals do not count.
func dateFormatCode(code string) bool {
	var cleaned strings.Builder
	inBracket, inQuote := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case inBracket:
			if c == ']' {
				inBracket = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\':
			i++
		default:
			cleaned.WriteByte(c)
		}
	}
	return strings.ContainsAny(cleaned.String(), "ymdhsYMDHS")
}

func (cs cellStyles) isDate(styleIdx string) bool {
	if styleIdx == "" {
		return false
	}
	i, err := strconv.Atoi(styleIdx)
	if err != nil || i < 0 || i >= len(cs.dateStyle) {
		return false
	}
	return cs.dateStyle[i]
}

type xlsxParser struct {
	pkg       *opc.Package
	opts      *types.Options
	res       *types.Result
	pending   *pendingImages
	shared    []string
	styles    cellStyles
	usedBytes int
}

func (w *xlsxParser) renderSheet(sheet worksheet) string {
	data, ok, err := w.pkg.ReadBytes(sheet.part)
	if err != nil || !ok {
		w.res.Warn(types.WarnSkippedElement, "missing worksheet part "+sheet.part, sheet.part)
		return ""
	}
	grid, maxRow, maxCol := w.parseSheetData(data, sheet)
	images := w.sheetImages(sheet)
	if maxRow == 0 {
		if len(images) == 0 {
			return ""
		}
		return "## " + sheet.name + "\n\n" + strings.Join(images, "\n\n")
	}

	rows := make([][]string, maxRow)
	for r := 1; r <= maxRow; r++ {
		row := make([]string, maxCol)
		for c := 0; c < maxCol; c++ {
			row[c] = grid[[2]int{r, c}]
		}
		rows[r-1] = row
	}
	out := "## " + sheet.name + "\n\n" + markdown.BuildTable(rows[0], rows[1:])
	if len(images) > 0 {
		out = strings.TrimRight(out, "\n") + "\n\n" + strings.Join(images, "\n\n")
	}
	return strings.TrimRight(out, "\n")
}

// parseSheetData fills a sparse grid keyed by (1-based row, 0-based col).
func (w *xlsxParser) parseSheetData(data []byte, sheet worksheet) (map[[2]int]string, int, int) {
	grid := map[[2]int]string{}
	maxRow, maxCol := 0, 0

	dec := xml.NewDecoder(strings.NewReader(string(data)))
	var cellRef, cellType, cellStyle string
	var value strings.Builder
	inValue := false
	rowNum := 0
	colNum := -1
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.res.Warn(types.WarnMalformedSegment, "worksheet parse aborted: "+err.Error(), sheet.part)
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				if r, err := strconv.Atoi(ooxml.Attr(t, "r")); err == nil {
					rowNum = r
				} else {
					rowNum++
				}
				colNum = -1
			case "c":
				cellRef = ooxml.Attr(t, "r")
				cellType = ooxml.Attr(t, "t")
				cellStyle = ooxml.Attr(t, "s")
				value.Reset()
				inValue = false
			case "v", "t":
				inValue = true
			case "f":
				// formula text; only the stored value matters
				if err := dec.Skip(); err != nil {
					return grid, maxRow, maxCol
				}
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				row, col := rowNum, colNum+1
				if r, c, ok := parseCellRef(cellRef); ok {
					row, col = r, c
				}
				colNum = col
				rendered, hasValue := w.formatCell(cellType, cellStyle, value.String(), sheet.name, row, col)
				if !hasValue {
					continue
				}
				grid[[2]int{row, col}] = rendered
				if row > maxRow {
					maxRow = row
				}
				if col+1 > maxCol {
					maxCol = col + 1
				}
			}
		}
	}
	return grid, maxRow, maxCol
}

// formatCell renders one cell per the value-variant rules. The second return
// is false for cells with no stored value.
func (w *xlsxParser) formatCell(cellType, cellStyle, raw, sheetName string, row, col int) (string, bool) {
	switch cellType {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(w.shared) {
			return "", false
		}
		return w.shared[idx], true
	case "str", "inlineStr":
		return raw, true
	case "b":
		if strings.TrimSpace(raw) == "1" {
			return "TRUE", true
		}
		return "FALSE", true
	case "e":
		token := strings.TrimSpace(raw)
		w.res.Warn(types.WarnMalformedSegment,
			fmt.Sprintf("cell contains error value %s", token),
			fmt.Sprintf("%s!%s%d", sheetName, ColumnLetter(col), row))
		return token, true
	case "d":
		// already ISO-serialized
		return strings.TrimSpace(raw), true
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, true
	}
	if w.styles.isDate(cellStyle) {
		return formatSerialDate(f), true
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// excelEpoch is day zero of the 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// formatSerialDate renders an Excel serial as YYYY-MM-DD, with a time
// component only when it is not midnight.
func formatSerialDate(serial float64) string {
	days := int(serial)
	secs := int((serial-float64(days))*86400.0 + 0.5)
	t := excelEpoch.AddDate(0, 0, days).Add(time.Duration(secs) * time.Second)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// ColumnLetter encodes a 0-based column index in the Excel letter scheme:
// A..Z, AA..AZ, BA.. and so on.
func ColumnLetter(n int) string {
	var letters []byte
	for {
		letters = append([]byte{byte('A' + n%26)}, letters...)
		if n < 26 {
			break
		}
		n = n/26 - 1
	}
	return string(letters)
}

// parseCellRef splits a reference like "E2" into (row 2, col 4).
func parseCellRef(ref string) (int, int, bool) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, false
	}
	col := 0
	for _, c := range ref[:i] {
		col = col*26 + int(c-'A'+1)
	}
	row, err := strconv.Atoi(ref[i:])
	if err != nil {
		return 0, 0, false
	}
	return row, col - 1, true
}

// sheetImages walks the sheet -> drawing -> image relationship chain and
// returns placeholder markup for each referenced media part.
func (w *xlsxParser) sheetImages(sheet worksheet) []string {
	rels, err := w.pkg.Relationships(sheet.part)
	if err != nil {
		return nil
	}
	var images []string
	for _, rel := range sortedRels(rels) {
		if !strings.HasSuffix(rel.Type, "/drawing") {
			continue
		}
		drawingPart := opc.ResolveFromPart(sheet.part, rel.Target)
		drawingRels, err := w.pkg.Relationships(drawingPart)
		if err != nil {
			continue
		}
		for _, dr := range sortedRels(drawingRels) {
			if !strings.HasSuffix(dr.Type, "/image") {
				continue
			}
			target := opc.ResolveFromPart(drawingPart, dr.Target)
			imgData, ok, err := w.pkg.ReadBytes(target)
			if err != nil || !ok {
				w.res.Warn(types.WarnSkippedElement, "missing image part "+target, sheet.name)
				continue
			}
			name := path.Base(target)
			extractImage(name, imgData, &w.usedBytes, w.opts, w.res)
			images = append(images, w.pending.add("", name, imgData))
		}
	}
	return images
}
