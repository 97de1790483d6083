// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// UnsupportedFormatError reports an input whose format no converter accepts.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported format"
	}
	return fmt.Sprintf("unsupported format: %q", e.Extension)
}

// InputTooLargeError reports an input or archive exceeding a configured cap.
type InputTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("input too large: %d bytes exceeds limit of %d", e.Size, e.Limit)
}

// MalformedDocumentError reports a document missing required structure.
type MalformedDocumentError struct {
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return "malformed document: " + e.Reason
}

// IOError wraps a filesystem failure.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("io failure on %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// ZipError wraps an archive failure other than a missing entry.
type ZipError struct {
	Err error
}

func (e *ZipError) Error() string { return "zip failure: " + e.Err.Error() }
func (e *ZipError) Unwrap() error { return e.Err }

// XMLError wraps an XML parse failure that aborts a converter.
type XMLError struct {
	Err error
}

func (e *XMLError) Error() string { return "xml failure: " + e.Err.Error() }
func (e *XMLError) Unwrap() error { return e.Err }

// EncodingError wraps a text-decoding failure.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return "encoding failure: " + e.Err.Error() }
func (e *EncodingError) Unwrap() error { return e.Err }

// ImageDescriptionError wraps a describer failure for one image.
type ImageDescriptionError struct {
	Filename string
	Err      error
}

func (e *ImageDescriptionError) Error() string {
	return fmt.Sprintf("image description failed for '%s': %v", e.Filename, e.Err)
}

func (e *ImageDescriptionError) Unwrap() error { return e.Err }
