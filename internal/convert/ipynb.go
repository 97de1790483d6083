// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/pkg/types"
)

// notebookConverter renders Jupyter notebooks: markdown cells verbatim, code
// cells fenced with the notebook language, raw cells in an untagged fence.
// Cell outputs are ignored.
type notebookConverter struct{}

// cellSource accepts the notebook source field as either a single string or
// an array of line strings.
type cellSource string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = cellSource(one)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*s = cellSource(strings.Join(lines, ""))
	return nil
}

type notebook struct {
	Cells []struct {
		CellType string     `json:"cell_type"`
		Source   cellSource `json:"source"`
	} `json:"cells"`
	Metadata struct {
		Title      string `json:"title"`
		Kernelspec struct {
			Language string `json:"language"`
		} `json:"kernelspec"`
		LanguageInfo struct {
			Name string `json:"name"`
		} `json:"language_info"`
	} `json:"metadata"`
}

func (notebookConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res := &types.Result{}
	text := decodeText(data, res)

	var nb notebook
	if err := json.Unmarshal([]byte(text), &nb); err != nil {
		return nil, &types.MalformedDocumentError{Reason: "invalid notebook json: " + err.Error()}
	}

	lang := nb.Metadata.Kernelspec.Language
	if lang == "" {
		lang = nb.Metadata.LanguageInfo.Name
	}
	if lang == "" {
		lang = "python"
	}

	var blocks []string
	for i, cell := range nb.Cells {
		src := string(cell.Source)
		switch cell.CellType {
		case "markdown":
			if strings.TrimSpace(src) == "" {
				continue
			}
			blocks = append(blocks, strings.TrimRight(src, "\n"))
			if res.Title == nil {
				res.Title = firstHeadingTitle([]byte(src))
			}
		case "code":
			blocks = append(blocks, markdown.CodeFence(lang, src))
		case "raw":
			blocks = append(blocks, markdown.CodeFence("", src))
		default:
			res.Warn(types.WarnUnsupportedFeature,
				fmt.Sprintf("unknown cell type %q", cell.CellType), fmt.Sprintf("cell %d", i))
		}
	}

	if nb.Metadata.Title != "" {
		title := nb.Metadata.Title
		res.Title = &title
	}
	res.Markdown = ensureTrailingNewline(strings.Join(blocks, "\n\n"))
	return res, nil
}
