package glimpse

import (
	"fmt"
	"mime"
	"strings"
)

// Supported image MIME types.
const (
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
)

// Image is an uploaded picture: raw bytes plus the declared MIME type.
// Only the declaration is validated; content is never sniffed or re-encoded.
// Turns share an Image by pointer when a follow-up question reuses it.
type Image struct {
	Name     string // display name, usually the uploaded file name
	MimeType string // normalized: image/png or image/jpeg
	Data     []byte
}

// NewImage validates the declared mimeType and returns an Image. It fails
// with ErrUnsupportedFormat for anything but PNG or JPEG, and with
// ErrValidation for empty data.
func NewImage(name string, data []byte, mimeType string) (Image, error) {
	mt, err := NormalizeMimeType(mimeType)
	if err != nil {
		return Image{}, err
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image %q is empty: %w", name, ErrValidation)
	}
	return Image{Name: name, MimeType: mt, Data: data}, nil
}

// NormalizeMimeType lowercases mimeType, strips parameters, and checks it
// against the supported set.
func NormalizeMimeType(mimeType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch mt {
	case MimeTypePNG, MimeTypeJPEG:
		return mt, nil
	}
	if mt == "" {
		mt = "no content type"
	}
	return "", fmt.Errorf("%s: %w", mt, ErrUnsupportedFormat)
}

// Ext returns the canonical file extension without the dot.
func (img Image) Ext() string {
	if img.MimeType == MimeTypeJPEG {
		return "jpg"
	}
	return "png"
}

// Size returns the image size in bytes.
func (img Image) Size() int { return len(img.Data) }
