// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/csv"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/pkg/types"
)

// csvConverter renders comma-separated input as one Markdown table, first
// row as header. Row lengths may vary; short rows are padded by the table
// builder.
type csvConverter struct{}

func (csvConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, &types.MalformedDocumentError{Reason: "invalid csv: " + err.Error()}
	}
	if len(records) == 0 {
		return res, nil
	}
	res.Markdown = markdown.BuildTable(records[0], records[1:])
	return res, nil
}
