package types

import "errors"

var (
	// ErrClipboardRead means the clipboard could not be read. Sources
	// swallow it and report no content.
	ErrClipboardRead = errors.New("clipboard read failed")

	// ErrExtraction covers undecodable images and OCR failures.
	ErrExtraction = errors.New("extraction failed")

	// ErrModelCall covers any failure of a text, vision, embedding or
	// generation model.
	ErrModelCall = errors.New("model call failed")

	ErrEmptyResponse = errors.New("no response from model")

	// ErrEmbeddingMismatch is returned when an index built with one
	// embedding model is used with another.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")
)
