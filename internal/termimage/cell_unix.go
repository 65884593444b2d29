//go:build unix

package termimage

import (
	"os"

	"golang.org/x/sys/unix"
)

func winsizeCell() CellSize {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0o666)
	if err != nil {
		return CellSize{}
	}
	defer f.Close()

	sz, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || sz.Col == 0 || sz.Row == 0 {
		return CellSize{}
	}
	return CellSize{Width: int(sz.Xpixel) / int(sz.Col), Height: int(sz.Ypixel) / int(sz.Row)}
}
