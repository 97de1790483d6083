// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"github.com/developer0hye/anytomd/pkg/types"
)

// imageConverter handles standalone image files: a single image reference
// whose filename is derived from the sniffed MIME type and whose alt text
// comes from the describer when one is configured.
type imageConverter struct{}

func (c imageConverter) Convert(data []byte, ext string, opts *types.Options) (*types.Result, error) {
	res, pending, err := c.convertPending(data, ext, opts)
	if err != nil {
		return nil, err
	}
	res.Markdown = pending.resolve(res.Markdown, opts, res)
	return res, nil
}

func (imageConverter) convertPending(data []byte, ext string, opts *types.Options) (*types.Result, *pendingImages, error) {
	res := &types.Result{}
	pending := newPendingImages()

	filename := "image." + imageExtension(MIMEFromImage(data))
	res.Markdown = pending.add("", filename, data) + "\n"

	var used int
	extractImage(filename, data, &used, opts, res)
	return res, pending, nil
}
