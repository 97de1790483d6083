// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/developer0hye/anytomd/pkg/types"
)

// pdfConverter extracts plain text page by page. Pages that cannot be read
// are skipped with a warning rather than failing the document.
type pdfConverter struct{}

func (pdfConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &types.MalformedDocumentError{Reason: "invalid pdf: " + err.Error()}
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			res.Warn(types.WarnSkippedElement,
				fmt.Sprintf("unreadable pdf page %d: %v", i, err), fmt.Sprintf("page %d", i))
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	res.Markdown = ensureTrailingNewline(strings.Join(pages, "\n\n"))
	return res, nil
}
