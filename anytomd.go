// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anytomd converts heterogeneous document formats (OOXML word,
// presentation, and spreadsheet packages, PDF, CSV, JSON, XML, HTML, Jupyter
// notebooks, source code, plain text, and standalone images) into a single
// normalized Markdown representation.
//
// The two entry points are ConvertFile and ConvertBytes. Image alt text can
// be filled in by a pluggable vision model through types.Options.Describer;
// the context-aware variants describe a document's images concurrently when
// a types.ContextDescriber is configured.
package anytomd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/developer0hye/anytomd/internal/convert"
	"github.com/developer0hye/anytomd/pkg/types"
)

// ConvertFile reads and converts one file. The format is detected from the
// content first and the path extension second.
func ConvertFile(path string, opts *types.Options) (*types.Result, error) {
	data, ext, err := readInput(path, opts)
	if err != nil {
		return nil, err
	}
	return convert.Dispatch(data, ext, opts)
}

// ConvertFileContext is ConvertFile with a context governing image
// description.
func ConvertFileContext(ctx context.Context, path string, opts *types.Options) (*types.Result, error) {
	data, ext, err := readInput(path, opts)
	if err != nil {
		return nil, err
	}
	return convert.DispatchContext(ctx, data, ext, opts)
}

// ConvertBytes converts in-memory data. ext is the path extension (or
// format tag) without a leading dot; content magic still wins over it.
func ConvertBytes(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	return convert.Dispatch(data, normalizeExt(ext), opts)
}

// ConvertBytesContext is ConvertBytes with a context governing image
// description.
func ConvertBytesContext(ctx context.Context, data []byte, ext string, opts *types.Options) (*types.Result, error) {
	return convert.DispatchContext(ctx, data, normalizeExt(ext), opts)
}

func readInput(path string, opts *types.Options) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", &types.IOError{Path: path, Err: err}
	}
	if fi.Size() > int64(opts.InputLimit()) {
		return nil, "", &types.InputTooLargeError{Size: fi.Size(), Limit: int64(opts.InputLimit())}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &types.IOError{Path: path, Err: err}
	}
	return data, normalizeExt(filepath.Ext(path)), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
