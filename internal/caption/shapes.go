package caption

import (
	"image"
	"image/color"
	"image/draw"
)

// fillRect blends c over r.
func fillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

// fillRoundedRect blends c over r with corners of the given radius. The
// shape is two overlapping rectangles plus four corner discs, rasterized
// into a single mask so overlapping parts are not blended twice.
func fillRoundedRect(dst draw.Image, r image.Rectangle, radius int, c color.Color) {
	radius = min(radius, r.Dx()/2, r.Dy()/2)
	if radius <= 0 {
		fillRect(dst, r, c)
		return
	}

	mask := image.NewAlpha(r)
	opaque := image.NewUniform(color.Alpha{A: 0xff})
	draw.Draw(mask, image.Rect(r.Min.X+radius, r.Min.Y, r.Max.X-radius, r.Max.Y), opaque, image.Point{}, draw.Src)
	draw.Draw(mask, image.Rect(r.Min.X, r.Min.Y+radius, r.Max.X, r.Max.Y-radius), opaque, image.Point{}, draw.Src)

	corners := []image.Point{
		{r.Min.X + radius, r.Min.Y + radius},
		{r.Max.X - radius - 1, r.Min.Y + radius},
		{r.Min.X + radius, r.Max.Y - radius - 1},
		{r.Max.X - radius - 1, r.Max.Y - radius - 1},
	}
	for _, center := range corners {
		fillDisc(mask, center, radius)
	}

	draw.DrawMask(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}

func fillDisc(mask *image.Alpha, center image.Point, radius int) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				mask.SetAlpha(center.X+dx, center.Y+dy, color.Alpha{A: 0xff})
			}
		}
	}
}
