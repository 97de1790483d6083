// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"github.com/developer0hye/anytomd/internal/detect"
	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/pkg/types"
)

// codeConverter wraps source files in a fence tagged by the extension's
// language.
type codeConverter struct{}

func (codeConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)
	res.Markdown = markdown.CodeFence(detect.CodeLanguages[ext], text) + "\n"
	return res, nil
}
