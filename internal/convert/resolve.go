// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/developer0hye/anytomd/internal/markdown"
	"github.com/developer0hye/anytomd/internal/opc"
	"github.com/developer0hye/anytomd/pkg/types"
)

// pendingImage is one placeholder planted in the Markdown during parsing,
// waiting for its final alt text.
type pendingImage struct {
	placeholder string
	alt         string
	filename    string
}

// pendingImages is the side table the image-resolution protocol works from:
// placeholder infos in emission order plus the bytes of every image whose
// contents are known.
type pendingImages struct {
	infos []pendingImage
	bytes map[string][]byte
}

func newPendingImages() *pendingImages {
	return &pendingImages{bytes: map[string][]byte{}}
}

// add registers an image and returns the Markdown to emit for it: an image
// reference whose alt text is an opaque placeholder of the form __img_N__.
func (p *pendingImages) add(alt, filename string, data []byte) string {
	ph := fmt.Sprintf("__img_%d__", len(p.infos))
	p.infos = append(p.infos, pendingImage{placeholder: ph, alt: alt, filename: filename})
	if data != nil {
		if _, seen := p.bytes[filename]; !seen {
			p.bytes[filename] = data
		}
	}
	return markdown.Image(ph, filename)
}

// resolve substitutes every placeholder. With no describer the original alt
// text is restored; otherwise each image is sniffed and described, falling
// back to the original alt on failure. Images larger than the byte budget
// are never sent to the describer.
func (p *pendingImages) resolve(md string, opts *types.Options, res *types.Result) string {
	var describer types.Describer
	if opts != nil {
		describer = opts.Describer
	}
	for _, info := range p.infos {
		alt := info.alt
		if describer != nil {
			if data, ok := p.bytes[info.filename]; ok {
				alt = p.describeOne(data, info, describer.Describe, opts, res)
			}
		}
		md = substitute(md, info, alt)
	}
	return md
}

// resolveContext is the concurrent variant: all describe calls are issued at
// once and results are paired to placeholders by position. A failed or
// cancelled describe falls back to the original alt text, so the output
// never contains a raw placeholder.
func (p *pendingImages) resolveContext(ctx context.Context, md string, describer types.ContextDescriber, opts *types.Options, res *types.Result) string {
	alts := make([]string, len(p.infos))
	warns := make([][]types.Warning, len(p.infos))
	g, ctx := errgroup.WithContext(ctx)
	for i, info := range p.infos {
		alts[i] = info.alt
		data, ok := p.bytes[info.filename]
		if !ok {
			continue
		}
		g.Go(func() error {
			var local types.Result
			alts[i] = p.describeOne(data, info, func(b []byte, mime, prompt string) (string, error) {
				return describer.DescribeContext(ctx, b, mime, prompt)
			}, opts, &local)
			warns[i] = local.Warnings
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors; failures become warnings
	for i, info := range p.infos {
		res.Warnings = append(res.Warnings, warns[i]...)
		md = substitute(md, info, alts[i])
	}
	return md
}

type describeFunc func(data []byte, mimeType, prompt string) (string, error)

func (p *pendingImages) describeOne(data []byte, info pendingImage, describe describeFunc, opts *types.Options, res *types.Result) string {
	if len(data) > opts.ImageBudget() {
		res.Warn(types.WarnResourceLimitReached,
			fmt.Sprintf("image '%s' exceeds the image byte budget; description skipped", info.filename), "")
		return info.alt
	}
	desc, err := describe(data, MIMEFromImage(data), types.ImagePrompt)
	if err != nil {
		res.Warn(types.WarnSkippedElement,
			(&types.ImageDescriptionError{Filename: info.filename, Err: err}).Error(), "")
		return info.alt
	}
	if strings.TrimSpace(desc) == "" {
		return info.alt
	}
	return strings.TrimSpace(desc)
}

// substitute replaces the first occurrence of the placeholder image markup
// with the final alt text.
func substitute(md string, info pendingImage, alt string) string {
	old := markdown.Image(info.placeholder, info.filename)
	return strings.Replace(md, old, markdown.Image(alt, info.filename), 1)
}

// extractImage appends image bytes to the result when extraction is on,
// respecting the running byte budget. It returns false once the budget
// would be exceeded, with a warning recorded.
func extractImage(filename string, data []byte, used *int, opts *types.Options, res *types.Result) bool {
	if opts == nil || !opts.ExtractImages {
		return true
	}
	if *used+len(data) > opts.ImageBudget() {
		res.Warn(types.WarnResourceLimitReached,
			fmt.Sprintf("image '%s' dropped: total image bytes would exceed the budget", filename), "")
		return false
	}
	*used += len(data)
	res.Images = append(res.Images, types.ExtractedImage{Filename: filename, Data: data})
	return true
}

// sortedRels returns relationships ordered by id, for deterministic output
// when the .rels map is scanned rather than looked up.
func sortedRels(rels map[string]opc.Relationship) []opc.Relationship {
	ids := make([]string, 0, len(rels))
	for id := range rels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]opc.Relationship, len(ids))
	for i, id := range ids {
		out[i] = rels[id]
	}
	return out
}

// MIMEFromImage sniffs an image MIME type from magic bytes, falling back to
// application/octet-stream.
func MIMEFromImage(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return "image/bmp"
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}), bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return "image/tiff"
	case bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("<?xml")),
		bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("<svg")):
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// imageExtension picks a filename extension from a sniffed MIME type.
func imageExtension(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/svg+xml":
		return "svg"
	default:
		return "bin"
	}
}
