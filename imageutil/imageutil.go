// Package imageutil decodes, resizes and re-encodes image payloads for
// previews, history thumbnails and downloads.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/gift"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageWidth  = 8000
	MaxImageHeight = 8000
	JPEGQuality    = 90

	PreviewEdge   = 256
	ThumbnailEdge = 128
)

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Inspect reads the header of data without decoding the pixels.
func Inspect(data []byte) (Dimensions, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, "", fmt.Errorf("failed to read image header: %v", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, format, nil
}

func decode(data []byte) (image.Image, string, error) {
	dims, _, err := Inspect(data)
	if err != nil {
		return nil, "", err
	}
	if dims.Width > MaxImageWidth || dims.Height > MaxImageHeight {
		return nil, "", fmt.Errorf("image too large (max %dx%d)", MaxImageWidth, MaxImageHeight)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %v", err)
	}
	return img, format, nil
}

// Thumbnail returns a JPEG no larger than maxEdge on either side. Smaller
// images keep their size.
func Thumbnail(data []byte, maxEdge int) ([]byte, error) {
	src, _, err := decode(data)
	if err != nil {
		return nil, err
	}

	g := gift.New(gift.ResizeToFit(maxEdge, maxEdge, gift.LanczosResampling))
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	return encode(dst, "jpeg")
}

// NormalizeFormat maps a requested download format to "png" or "jpeg".
func NormalizeFormat(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "", "png":
		return "png", true
	case "jpeg", "jpg":
		return "jpeg", true
	}
	return "", false
}

// Transcode re-encodes data as format ("png" or "jpeg") unless it already is.
func Transcode(data []byte, format string) ([]byte, error) {
	_, current, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if current == format {
		return data, nil
	}

	img, _, err := decode(data)
	if err != nil {
		return nil, err
	}
	return encode(img, format)
}

func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	return buf.Bytes(), nil
}
