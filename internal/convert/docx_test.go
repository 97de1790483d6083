// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer0hye/anytomd/pkg/types"
)

const wBody = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"
 xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
 xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><w:body>`

const wBodyEnd = `</w:body></w:document>`

func docxFixture(t *testing.T, body string, extra map[string]string) []byte {
	t.Helper()
	parts := map[string]string{"word/document.xml": wBody + body + wBodyEnd}
	for name, content := range extra {
		parts[name] = content
	}
	return buildPackage(t, textParts(parts))
}

func para(runs string) string  { return "<w:p>" + runs + "</w:p>" }
func run(text string) string   { return "<w:r><w:t>" + text + "</w:t></w:r>" }
func styled(id, text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="` + id + `"/></w:pPr>` + run(text) + `</w:p>`
}
func listed(numID, ilvl, text string) string {
	return `<w:p><w:pPr><w:numPr><w:ilvl w:val="` + ilvl + `"/><w:numId w:val="` + numID + `"/></w:numPr></w:pPr>` + run(text) + `</w:p>`
}

func TestDocxHeadingAndBulletList(t *testing.T) {
	data := docxFixture(t, styled("Heading1", "T")+listed("1", "0", "one")+listed("1", "0", "two"), nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "# T\n\n- one\n- two\n", res.Markdown)
	require.NotNil(t, res.Title)
	assert.Equal(t, "T", *res.Title)
	assert.Empty(t, res.Warnings)
}

func TestDocxOrderedList(t *testing.T) {
	numbering := `<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:abstractNum w:abstractNumId="10"><w:lvl w:ilvl="0"><w:numFmt w:val="decimal"/></w:lvl>
<w:lvl w:ilvl="1"><w:numFmt w:val="bullet"/></w:lvl></w:abstractNum>
<w:num w:numId="1"><w:abstractNumId w:val="10"/></w:num>
</w:numbering>`
	body := listed("1", "0", "a") + listed("1", "0", "b") + listed("1", "1", "nested") + listed("1", "0", "c")
	data := docxFixture(t, body, map[string]string{"word/numbering.xml": numbering})

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "1. a\n2. b\n  - nested\n3. c\n", res.Markdown)
}

func TestDocxStyleTableHeadings(t *testing.T) {
	styles := `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:styleId="Rubrik2"><w:name w:val="heading 2"/></w:style>
</w:styles>`
	data := docxFixture(t, styled("Rubrik2", "Section"), map[string]string{"word/styles.xml": styles})

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "## Section\n", res.Markdown)
	assert.Nil(t, res.Title)
}

func TestDocxSecondHeadingOneDoesNotOverrideTitle(t *testing.T) {
	data := docxFixture(t, styled("Heading1", "First")+styled("Heading1", "Second"), nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Title)
	assert.Equal(t, "First", *res.Title)
	assert.Equal(t, "# First\n\n# Second\n", res.Markdown)
}

func TestDocxTableEscapesPipes(t *testing.T) {
	body := `<w:tbl>
<w:tr><w:tc>` + para(run("H1")) + `</w:tc><w:tc>` + para(run("H2")) + `</w:tc></w:tr>
<w:tr><w:tc>` + para(run("x|y")) + `</w:tc><w:tc>` + para(run("z")) + `</w:tc></w:tr>
</w:tbl>`
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "| H1 | H2 |")
	assert.Contains(t, res.Markdown, "|---|---|")
	assert.Contains(t, res.Markdown, `| x\|y | z |`)
}

func TestDocxNestedTableSkippedWithWarning(t *testing.T) {
	body := `<w:tbl>
<w:tr><w:tc>` + para(run("H")) + `</w:tc></w:tr>
<w:tr><w:tc><w:tbl><w:tr><w:tc>` + para(run("inner")) + `</w:tc></w:tr></w:tbl>` + para(run("outer")) + `</w:tc></w:tr>
</w:tbl>`
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.NotContains(t, res.Markdown, "inner")
	assert.Contains(t, res.Markdown, "| outer |")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnSkippedElement, res.Warnings[0].Code)
}

func TestDocxEmphasis(t *testing.T) {
	body := para(`<w:r><w:rPr><w:b/></w:rPr><w:t>bold</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve"> then </w:t></w:r>` +
		`<w:r><w:rPr><w:i/></w:rPr><w:t>italic</w:t></w:r>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "**bold** then *italic*\n", res.Markdown)
}

func TestDocxEmphasisSpansMergeAcrossRuns(t *testing.T) {
	body := para(`<w:r><w:rPr><w:b/></w:rPr><w:t>two </w:t></w:r>` +
		`<w:r><w:rPr><w:b/></w:rPr><w:t>runs</w:t></w:r>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "**two runs**\n", res.Markdown)
}

func TestDocxEmphasisDisabledByFalseVal(t *testing.T) {
	body := para(`<w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t>plain</w:t></w:r>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "plain\n", res.Markdown)
}

const docRelsHeader = `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`

func TestDocxHyperlink(t *testing.T) {
	rels := docRelsHeader +
		`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/" TargetMode="External"/>` +
		`</Relationships>`
	body := para(`<w:hyperlink r:id="rId4"><w:r><w:t>site</w:t></w:r></w:hyperlink>`)
	data := docxFixture(t, body, map[string]string{"word/_rels/document.xml.rels": rels})

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "[site](https://example.com/)\n", res.Markdown)
}

func TestDocxHyperlinkUnresolvedKeepsText(t *testing.T) {
	body := para(`<w:hyperlink r:id="rId9"><w:r><w:t>site</w:t></w:r></w:hyperlink>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "site\n", res.Markdown)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnSkippedElement, res.Warnings[0].Code)
}

func TestDocxHyperlinkAnchor(t *testing.T) {
	body := para(`<w:hyperlink w:anchor="intro"><w:r><w:t>up</w:t></w:r></w:hyperlink>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "[up](#intro)\n", res.Markdown)
}

func drawingRun(rid, descr string) string {
	return `<w:r><w:drawing><wp:inline><wp:docPr id="1" name="pic" descr="` + descr + `"/>` +
		`<a:graphic><a:graphicData><pic:pic><pic:blipFill><a:blip r:embed="` + rid + `"/></pic:blipFill></pic:pic></a:graphicData></a:graphic>` +
		`</wp:inline></w:drawing></w:r>`
}

func docxWithImage(t *testing.T, descr string) []byte {
	t.Helper()
	rels := docRelsHeader +
		`<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>` +
		`</Relationships>`
	parts := textParts(map[string]string{
		"word/document.xml":            wBody + para(drawingRun("rId7", descr)) + wBodyEnd,
		"word/_rels/document.xml.rels": rels,
	})
	parts["word/media/image1.png"] = pngBytes
	return buildPackage(t, parts)
}

func TestDocxImageWithoutDescriberKeepsAlt(t *testing.T) {
	data := docxWithImage(t, "a diagram")

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "![a diagram](image1.png)\n", res.Markdown)
	assert.NotContains(t, res.Markdown, "__img_")
}

func TestDocxImageDescribed(t *testing.T) {
	data := docxWithImage(t, "a diagram")
	d := &mockDescriber{reply: "a flow chart"}

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{Describer: d})
	require.NoError(t, err)
	assert.Equal(t, "![a flow chart](image1.png)\n", res.Markdown)
	require.Equal(t, []string{"image/png"}, d.mimes)
}

func TestDocxImageUnresolvedRelationship(t *testing.T) {
	data := docxFixture(t, para(drawingRun("rId7", "gone")), nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "", res.Markdown)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnSkippedElement, res.Warnings[0].Code)
}

func TestDocxImageExtraction(t *testing.T) {
	data := docxWithImage(t, "a diagram")

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{ExtractImages: true})
	require.NoError(t, err)
	require.Len(t, res.Images, 1)
	assert.Equal(t, "image1.png", res.Images[0].Filename)
	assert.Equal(t, pngBytes, res.Images[0].Data)
}

func TestDocxLineBreakAndTab(t *testing.T) {
	body := para(`<w:r><w:t>a</w:t><w:br/><w:t>b</w:t><w:tab/><w:t>c</w:t></w:r>`)
	data := docxFixture(t, body, nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\tc\n", res.Markdown)
}

func TestDocxMissingDocumentPart(t *testing.T) {
	data := buildPackage(t, textParts(map[string]string{"word/styles.xml": "<styles/>"}))

	_, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	var malformed *types.MalformedDocumentError
	require.True(t, errors.As(err, &malformed))
}

func TestDocxTruncatedDocumentKeepsPrefix(t *testing.T) {
	doc := wBody + para(run("before")) + "<w:p><w:r><w:t>half"
	data := buildPackage(t, textParts(map[string]string{"word/document.xml": doc}))

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "before")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnMalformedSegment, res.Warnings[0].Code)
	assert.Equal(t, "word/document.xml", res.Warnings[0].Location)
}

func TestDocxUnicodeContent(t *testing.T) {
	data := docxFixture(t, para(run("한국어 텍스트 🙂")), nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "한국어 텍스트 🙂\n", res.Markdown)
}

func TestDocxEmptyParagraphsProduceNothing(t *testing.T) {
	data := docxFixture(t, para("")+para(run("only"))+para(""), nil)

	res, err := docxConverter{}.Convert(data, "docx", &types.Options{})
	require.NoError(t, err)
	assert.Equal(t, "only\n", res.Markdown)
}
