// Package clockface draws the date and time from the RTC on a small pixel display, such as a 128x64 SSD1306.
package clockface

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/ajanata/tinygo-drivers/ds1302"
)

var (
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black = color.RGBA{A: 0xFF}
)

var weekdays = [...]string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// clearer is implemented by displays with a framebuffer that can be wiped in one call, like the SSD1306.
type clearer interface {
	ClearBuffer()
}

type Face struct {
	display drivers.Displayer
	font    *tinyfont.Font
	// LineHeight is the baseline distance between the two lines, in pixels.
	LineHeight int16
	Color      color.RGBA
}

// New returns a face using the 8pt Proggy font in white.
func New(display drivers.Displayer) *Face {
	return &Face{
		display:    display,
		font:       &proggy.TinySZ8pt7b,
		LineHeight: 12,
		Color:      white,
	}
}

// Show replaces the display contents with the date on the first line and the time on the second.
func (f *Face) Show(cal ds1302.Calendar, clk ds1302.Clock) error {
	f.clear()
	tinyfont.WriteLine(f.display, f.font, 0, f.LineHeight, DateLine(cal), f.Color)
	tinyfont.WriteLine(f.display, f.font, 0, 2*f.LineHeight, TimeLine(clk), f.Color)
	return f.display.Display()
}

// DateLine formats cal as "2024-03-15 Fri". Out of range weekdays are left off.
func DateLine(cal ds1302.Calendar) string {
	s := fmt.Sprintf("%04d-%02d-%02d", cal.Year, cal.Month, cal.Date)
	if int(cal.Day) < len(weekdays) && cal.Day > 0 {
		s += " " + weekdays[cal.Day]
	}
	return s
}

// TimeLine formats clk as "13:45:30".
func TimeLine(clk ds1302.Clock) string {
	return fmt.Sprintf("%02d:%02d:%02d", clk.Hours, clk.Minutes, clk.Seconds)
}

func (f *Face) clear() {
	if c, ok := f.display.(clearer); ok {
		c.ClearBuffer()
		return
	}
	w, h := f.display.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			f.display.SetPixel(x, y, black)
		}
	}
}
