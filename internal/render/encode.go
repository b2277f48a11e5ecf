package render

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
	ImageBMP  ImageFormat = "bmp"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
	ImageBMP:  {},
}

// ParseImageFormat validates a format name. "jpg" is accepted for jpeg.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(strings.TrimPrefix(s, ".")))
	if f == "jpg" {
		f = ImageJPEG
	}
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", s)
	}
	return f, nil
}

// ImageFormatFromPath derives the format from a file extension, defaulting
// to png.
func ImageFormatFromPath(path string) (ImageFormat, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return ImagePNG, nil
	}
	return ParseImageFormat(ext)
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{
			Quality: 98,
		})
	case ImageBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("invalid image format: %s", format)
}
