package termimage

import (
	"fmt"
	"strings"

	"github.com/blacktop/go-termimg"
	"github.com/disintegration/imaging"
)

// Mode selects how page bitmaps are drawn.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeHalfblocks Mode = "halfblocks"
	ModeKitty      Mode = "kitty"
	ModeSixel      Mode = "sixel"
	ModeASCII      Mode = "ascii"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeHalfblocks, ModeKitty, ModeSixel, ModeASCII:
		return m, nil
	default:
		return "", fmt.Errorf("render mode must be auto, halfblocks, kitty, sixel or ascii: %s", s)
	}
}

// ParseFilter maps a filter name onto an imaging resampling filter.
func ParseFilter(s string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "", "triangle":
		return imaging.Linear, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("scale filter must be nearest, triangle, catmullrom or lanczos: %s", s)
	}
}

// Resolve turns a mode into a terminal protocol. Auto asks the terminal.
func Resolve(mode Mode) termimg.Protocol {
	switch mode {
	case ModeKitty:
		return termimg.Kitty
	case ModeSixel:
		return termimg.Sixel
	case ModeHalfblocks, ModeASCII:
		return termimg.Halfblocks
	default:
		return termimg.DetectProtocol()
	}
}

// ProtocolName is used in the status line.
func ProtocolName(p termimg.Protocol) string {
	switch p {
	case termimg.Kitty:
		return "kitty"
	case termimg.Sixel:
		return "sixel"
	case termimg.Halfblocks:
		return "halfblocks"
	default:
		return "unknown"
	}
}
