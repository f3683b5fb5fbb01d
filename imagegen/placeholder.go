package imagegen

import (
	"bytes"
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/krishkalaria12/snap-swap/imageutil"
)

// Placeholder renders a flat PNG whose colour is derived from the prompt.
// It needs no credentials and is what local runs and tests use.
type Placeholder struct {
	Size int
}

func NewPlaceholder() *Placeholder {
	return &Placeholder{Size: 512}
}

func (p *Placeholder) Model() string {
	return "placeholder"
}

func (p *Placeholder) Generate(_ context.Context, prompt string) Result {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	sum := h.Sum32()

	fill := color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 255}
	img := image.NewRGBA(image.Rect(0, 0, p.Size, p.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return failed(err.Error())
	}
	return Result{Success: true, ImageData: imageutil.DataURL("image/png", buf.Bytes())}
}
