// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/pkg/types"
)

// jsonConverter re-serializes the value tree with two-space indentation
// inside a json fence. Pretty-printing its own output is a fixed point.
type jsonConverter struct{}

func (jsonConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, &types.MalformedDocumentError{Reason: "invalid json: " + err.Error()}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, &types.MalformedDocumentError{Reason: "json re-serialization: " + err.Error()}
	}
	res.Markdown = markdown.CodeFence("json", buf.String()) + "\n"
	return res, nil
}
