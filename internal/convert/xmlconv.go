// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/pkg/types"
)

// xmlConverter re-emits the token stream through an indenting writer with
// two-space indentation, trimming inter-element whitespace, inside an xml
// fence.
type xmlConverter struct{}

func (xmlConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)
	if strings.TrimSpace(text) == "" {
		return nil, &types.MalformedDocumentError{Reason: "empty xml input"}
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	dec := xml.NewDecoder(strings.NewReader(text))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.XMLError{Err: err}
		}
		if cd, ok := tok.(xml.CharData); ok {
			trimmed := strings.TrimSpace(string(cd))
			if trimmed == "" {
				continue
			}
			tok = xml.CharData(trimmed)
		}
		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return nil, &types.XMLError{Err: err}
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, &types.XMLError{Err: err}
	}
	res.Markdown = markdown.CodeFence("xml", buf.String()) + "\n"
	return res, nil
}
