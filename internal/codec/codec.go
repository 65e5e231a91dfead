// Package codec decodes input images by file extension and encodes diff
// images as PNG.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/xerrors"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("cannot read file %s: unsupported format (want .png, .jpg or .jpeg)", e.Path)
}

type DecodeError struct {
	Path   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FormatOf picks the format from the extension of path. Matching is case
// sensitive and never looks at the content.
func FormatOf(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".png"):
		return PNG, nil
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return JPEG, nil
	default:
		return "", &UnsupportedFormatError{Path: path}
	}
}

func Decode(path string, format Format, data []byte) (image.Image, error) {
	var img image.Image
	var err error
	switch format {
	case PNG:
		img, err = png.Decode(bytes.NewReader(data))
	case JPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Err: err}
	}

	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return nil, xerrors.Errorf("failed to encode diff image: %w", err)
	}
	return buffer.Bytes(), nil
}
