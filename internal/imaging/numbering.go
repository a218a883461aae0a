package imaging

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Badge geometry for candidate numbering overlays.
const (
	badgeMargin  = 8
	badgePadding = 6
)

// AddNumber returns a copy of img with a "#n" badge drawn in the top-left
// corner so a human reviewer can reference candidates by index.
func AddNumber(img image.Image, n int) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), img, b.Min, stddraw.Src)

	label := fmt.Sprintf("#%d", n)
	face := basicfont.Face7x13
	textW := font.MeasureString(face, label).Ceil()
	textH := face.Metrics().Height.Ceil()

	badge := image.Rect(
		badgeMargin, badgeMargin,
		badgeMargin+textW+2*badgePadding, badgeMargin+textH+2*badgePadding,
	)
	stddraw.Draw(dst, badge, image.NewUniform(color.RGBA{A: 200}), image.Point{}, stddraw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.P(
			badgeMargin+badgePadding,
			badgeMargin+badgePadding+face.Metrics().Ascent.Ceil(),
		),
	}
	d.DrawString(label)

	return dst
}
