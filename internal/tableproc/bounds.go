package tableproc

import (
	"image"
	"image/color"
)

// PadRect grows r by ratio of the frame size on every side, clipped to frame.
func PadRect(r, frame image.Rectangle, ratio float64) image.Rectangle {
	padX := int(ratio * float64(frame.Dx()))
	padY := int(ratio * float64(frame.Dy()))
	return image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY).Intersect(frame)
}

// Coverage is the share of frame covered by r.
func Coverage(r, frame image.Rectangle) float64 {
	if frame.Empty() {
		return 0
	}
	r = r.Intersect(frame)
	return float64(r.Dx()*r.Dy()) / float64(frame.Dx()*frame.Dy())
}

// toGrayscale converts an image to grayscale
func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}

	return gray
}

// inkBounds returns the smallest rectangle holding every row and column whose
// share of dark pixels reaches minInk. It is empty when nothing qualifies.
func inkBounds(gray *image.Gray, threshold uint8, minInk float64) image.Rectangle {
	b := gray.Bounds()
	rowInk := make([]int, b.Dy())
	colInk := make([]int, b.Dx())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[(y-b.Min.Y)*gray.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x] < threshold {
				rowInk[y-b.Min.Y]++
				colInk[x]++
			}
		}
	}

	top, bottom := span(rowInk, max(1, int(minInk*float64(b.Dx()))))
	left, right := span(colInk, max(1, int(minInk*float64(b.Dy()))))
	if top < 0 || left < 0 {
		return image.Rectangle{}
	}
	return image.Rect(left, top, right+1, bottom+1).Add(b.Min)
}

// span returns the first and last index whose count reaches least, or -1, -1.
func span(counts []int, least int) (first, last int) {
	first, last = -1, -1
	for i, c := range counts {
		if c >= least {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last
}
