// SPDX-License-Identifier: MIT
package render

import "image/color"

// Canvas is the drawing surface a display backend exposes to the
// renderer. Coordinates are pixels with the origin at the top left.
type Canvas interface {
	Size() (width, height int)
	Clear(c color.RGBA) error
	DrawLine(x1, y1, x2, y2 float32, c color.RGBA) error
	DrawText(x, y float32, text string, c color.RGBA) error
	Present() error
}

var (
	Black = color.RGBA{A: 0xff}
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)
