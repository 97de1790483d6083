// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/developer0hye/anytomd/pkg/types"
)

// htmlConverter maps an HTML tree to Markdown. Script, style, and head
// subtrees are discarded by the conversion; the title comes from <title>,
// falling back to the first <h1>.
type htmlConverter struct{}

func (htmlConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)

	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return nil, &types.MalformedDocumentError{Reason: "html conversion: " + err.Error()}
	}
	res.Markdown = ensureTrailingNewline(md)
	res.Title = htmlTitle(text)
	return res, nil
}

func htmlTitle(html string) *string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	for _, sel := range []string{"title", "h1"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return &t
		}
	}
	return nil
}
