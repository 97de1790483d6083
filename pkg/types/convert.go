// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "context"

// WarningCode classifies a recoverable anomaly attached to a successful result.
type WarningCode string

const (
	WarnSkippedElement       WarningCode = "SkippedElement"
	WarnUnsupportedFeature   WarningCode = "UnsupportedFeature"
	WarnResourceLimitReached WarningCode = "ResourceLimitReached"
	WarnMalformedSegment     WarningCode = "MalformedSegment"
)

// Warning records a recoverable anomaly encountered during conversion.
// Location is an optional anchor such as "Sheet1!E2" or a slide part name.
type Warning struct {
	Code     WarningCode `json:"code" yaml:"code"`
	Message  string      `json:"message" yaml:"message"`
	Location string      `json:"location,omitempty" yaml:"location,omitempty"`
}

// ExtractedImage is one embedded image pulled out of a document when
// image extraction is requested.
type ExtractedImage struct {
	Filename string
	Data     []byte
}

// Result is the outcome of one conversion call.
type Result struct {
	// Markdown is the converted document. Always valid enough to render:
	// fences are closed and table rows are padded.
	Markdown string
	// Title is the document title, nil when no heading-class element was seen.
	Title *string
	// Warnings lists recoverable anomalies in emission order.
	Warnings []Warning
	// Images holds extracted image bytes, populated only when
	// Options.ExtractImages is set.
	Images []ExtractedImage
}

// Warn appends a warning to the result.
func (r *Result) Warn(code WarningCode, message, location string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: message, Location: location})
}

// Default resource limits.
const (
	DefaultMaxTotalImageBytes      = 50 << 20
	DefaultMaxInputBytes           = 100 << 20
	DefaultMaxUncompressedZipBytes = 500 << 20
)

// ImagePrompt is the canonical instruction sent to describers.
const ImagePrompt = "Describe this image concisely for use as alt text."

// Describer turns image bytes into descriptive text suitable as alt text.
// Implementations must be safe for use from a single goroutine; share one
// across conversions only if it is itself concurrency-safe.
type Describer interface {
	Describe(image []byte, mimeType, prompt string) (string, error)
}

// ContextDescriber is the awaitable variant of Describer. When set on
// Options, image descriptions for one document are requested concurrently.
type ContextDescriber interface {
	DescribeContext(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// Options configures one conversion call. The zero value (and nil) uses the
// defaults above with no image description or extraction.
type Options struct {
	// Describer, when non-nil, replaces image alt text with generated
	// descriptions.
	Describer Describer
	// ContextDescriber, when non-nil, is preferred by the context-aware
	// entry points and drives concurrent description.
	ContextDescriber ContextDescriber
	// ExtractImages collects embedded image bytes into Result.Images.
	ExtractImages bool
	// Strict is reserved: the library never aborts on warnings; callers
	// that want warnings to be fatal inspect Result.Warnings themselves.
	Strict bool

	MaxTotalImageBytes      int
	MaxInputBytes           int
	MaxUncompressedZipBytes int64
}

// ImageBudget returns the effective total-image-bytes cap.
func (o *Options) ImageBudget() int {
	if o == nil || o.MaxTotalImageBytes <= 0 {
		return DefaultMaxTotalImageBytes
	}
	return o.MaxTotalImageBytes
}

// InputLimit returns the effective input-size cap.
func (o *Options) InputLimit() int {
	if o == nil || o.MaxInputBytes <= 0 {
		return DefaultMaxInputBytes
	}
	return o.MaxInputBytes
}

// ZipLimit returns the effective uncompressed-archive cap.
func (o *Options) ZipLimit() int64 {
	if o == nil || o.MaxUncompressedZipBytes <= 0 {
		return DefaultMaxUncompressedZipBytes
	}
	return o.MaxUncompressedZipBytes
}
