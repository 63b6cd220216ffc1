package models

import (
	"bytes"
	"strings"
)

// Payload is whatever was read from the clipboard on a single poll. A source
// may fill both fields; image bytes always win.
type Payload struct {
	Text  string
	Image []byte
}

func TextPayload(s string) Payload {
	return Payload{Text: s}
}

func ImagePayload(b []byte) Payload {
	return Payload{Image: b}
}

// IsImage reports whether the payload carries image bytes.
func (p Payload) IsImage() bool {
	return len(p.Image) > 0
}

// Empty reports whether there is nothing worth processing.
func (p Payload) Empty() bool {
	return !p.IsImage() && strings.TrimSpace(p.Text) == ""
}

// Equal compares images byte-for-byte and text by string equality.
func (p Payload) Equal(o Payload) bool {
	if p.IsImage() != o.IsImage() {
		return false
	}
	if p.IsImage() {
		return bytes.Equal(p.Image, o.Image)
	}
	return p.Text == o.Text
}

// Image is a clipboard image whose header has been decoded successfully.
type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Question is what gets sent to the answer model. Exactly one of Text and
// Image is set.
type Question struct {
	Text  string
	Image *Image
}

func (q Question) IsImage() bool {
	return q.Image != nil
}
