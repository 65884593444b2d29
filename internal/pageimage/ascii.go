package pageimage

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// asciiRamp runs from the densest glyph to blank.
const asciiRamp = "$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. "

// ToASCII draws img as text inside a cols x rows cell box, keeping its
// aspect ratio for cells twice as tall as they are wide.
func ToASCII(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return ""
	}

	scale := min(float64(cols)/float64(w), float64(2*rows)/float64(h))
	tw := max(1, min(cols, int(float64(w)*scale)))
	th := max(1, min(rows, int(float64(h)*scale/2)))
	gray := imaging.Grayscale(imaging.Resize(img, tw, th, imaging.Linear))

	ramp := []rune(asciiRamp)
	steps := len(ramp) - 1
	var b strings.Builder
	b.Grow((tw + 1) * th)
	for y := 0; y < th; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < tw; x++ {
			luma := int(row[x*4])
			b.WriteRune(ramp[luma*steps/255])
		}
	}
	return b.String()
}
