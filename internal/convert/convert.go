// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert hosts one converter per input format plus the dispatcher
// and the image-description resolution shared between them.
package convert

import (
	"context"

	"github.com/developer0hye/anytomd/internal/detect"
	"github.com/developer0hye/anytomd/pkg/types"
)

// Converter turns one input format into Markdown. Converters are stateless;
// everything a call needs lives on its stack and is dropped on return.
type Converter interface {
	Convert(data []byte, ext string, opts *types.Options) (*types.Result, error)
}

// pendingConverter is implemented by converters that emit image placeholders
// and can hand resolution to the caller, enabling the concurrent path.
type pendingConverter interface {
	convertPending(data []byte, ext string, opts *types.Options) (*types.Result, *pendingImages, error)
}

// converters maps each detected kind to its implementation.
var converters = map[detect.Kind]Converter{
	detect.Docx:     docxConverter{},
	detect.Pptx:     pptxConverter{},
	detect.Xlsx:     xlsxConverter{},
	detect.PDF:      pdfConverter{},
	detect.CSV:      csvConverter{},
	detect.JSON:     jsonConverter{},
	detect.XML:      xmlConverter{},
	detect.HTML:     htmlConverter{},
	detect.Notebook: notebookConverter{},
	detect.Code:     codeConverter{},
	detect.Image:    imageConverter{},
	detect.Text:     textConverter{},
}

// Dispatch detects the format and runs the matching converter. Image
// placeholders are resolved synchronously through opts.Describer.
func Dispatch(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	c, err := converterFor(data, ext, opts)
	if err != nil {
		return nil, err
	}
	return c.Convert(data, ext, opts)
}

// DispatchContext is Dispatch with a context. When the converter supports
// deferred image resolution and opts carries a ContextDescriber, the
// describe calls for one document run concurrently.
func DispatchContext(ctx context.Context, data []byte, ext string, opts *types.Options) (*types.Result, error) {
	c, err := converterFor(data, ext, opts)
	if err != nil {
		return nil, err
	}
	pc, ok := c.(pendingConverter)
	if !ok || opts == nil || opts.ContextDescriber == nil {
		return c.Convert(data, ext, opts)
	}
	res, pending, err := pc.convertPending(data, ext, opts)
	if err != nil {
		return nil, err
	}
	res.Markdown = pending.resolveContext(ctx, res.Markdown, opts.ContextDescriber, opts, res)
	return res, nil
}

func converterFor(data []byte, ext string, opts *types.Options) (Converter, error) {
	if int64(len(data)) > int64(opts.InputLimit()) {
		return nil, &types.InputTooLargeError{Size: int64(len(data)), Limit: int64(opts.InputLimit())}
	}
	kind := detect.Detect(data, ext)
	c, ok := converters[kind]
	if !ok {
		return nil, &types.UnsupportedFormatError{Extension: ext}
	}
	return c, nil
}
