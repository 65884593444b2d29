package pageimage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecoder_DecodesPNGAndJPEG(t *testing.T) {
	src := solid(12, 20, color.White)

	img, err := Decoder{}.Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if _, err := (Decoder{}).Decode(buf.Bytes()); err != nil {
		t.Fatalf("Decode jpeg returned error: %v", err)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	_, err := Decoder{}.Decode([]byte("<html>rate limited</html>"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	_, err = Decoder{}.Decode(nil)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for empty body, got %v", err)
	}
}

func TestDecoder_RejectsOversizedImages(t *testing.T) {
	data := encodePNG(t, solid(20, 20, color.Black))

	_, err := Decoder{MaxPixels: 100}.Decode(data)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !strings.Contains(err.Error(), "20x20") {
		t.Fatalf("expected dimensions in error, got %v", err)
	}
}

func TestToASCII_MapsBrightness(t *testing.T) {
	white := ToASCII(solid(100, 100, color.White), 20, 10)
	lines := strings.Split(white, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	for _, line := range lines {
		if line != strings.Repeat(" ", 20) {
			t.Fatalf("expected blank row for white image, got %q", line)
		}
	}

	black := ToASCII(solid(100, 100, color.Black), 20, 10)
	if strings.Trim(strings.ReplaceAll(black, "\n", ""), "$") != "" {
		t.Fatalf("expected densest glyph for black image, got %q", black)
	}
}

func TestToASCII_KeepsAspectRatio(t *testing.T) {
	// a tall page in a wide box is limited by height
	out := ToASCII(solid(100, 200, color.White), 80, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	if len(lines[0]) != 10 {
		t.Fatalf("expected 10 columns, got %d", len(lines[0]))
	}
}

func TestToASCII_EmptyInput(t *testing.T) {
	if ToASCII(nil, 10, 10) != "" {
		t.Fatal("expected empty output for nil image")
	}
	if ToASCII(solid(4, 4, color.White), 0, 10) != "" {
		t.Fatal("expected empty output for zero width")
	}
}
