// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"github.com/developer0hye/anytomd/pkg/types"
)

// textConverter passes decoded text through unchanged. Markdown inputs also
// get a title from their first level-1 heading.
type textConverter struct{}

func (textConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)
	res.Markdown = ensureTrailingNewline(text)
	if ext == "md" || ext == "markdown" {
		res.Title = firstHeadingTitle([]byte(text))
	}
	return res, nil
}
