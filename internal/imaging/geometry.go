package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Preview trim ratios
const (
	PreviewLeftTrimRatio   = 0.27
	PreviewBottomTrimRatio = 0.12
)

// PreviewTrimRect returns the window kept by the preview trim for a w x h image,
// relative to the image origin.
//
// The right edge is max(left+1, w), which equals w for every non-empty image, so
// only the left and bottom trims take effect. Existing previews depend on this
// geometry; keep it as is.
func PreviewTrimRect(w, h int) image.Rectangle {
	left := int(PreviewLeftTrimRatio * float64(w))
	bottomTrim := int(PreviewBottomTrimRatio * float64(h))
	right := max(left+1, w)
	bottom := max(1, h-bottomTrim)
	return image.Rect(left, 0, right, bottom)
}

// PreviewTrim removes ~27% from the left and ~12% from the bottom of img.
func PreviewTrim(img image.Image) (image.Image, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot trim empty image %v", b)
	}
	return Crop(img, PreviewTrimRect(b.Dx(), b.Dy()))
}

// SplitRects returns the top and bottom windows of an equal horizontal split.
// For odd heights the bottom half receives the extra row.
func SplitRects(w, h int) (top, bottom image.Rectangle) {
	mid := h / 2
	return image.Rect(0, 0, w, mid), image.Rect(0, mid, w, h)
}

// SplitHalves bisects img along its horizontal midline.
func SplitHalves(img image.Image) (top, bottom image.Image, err error) {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 2 {
		return nil, nil, fmt.Errorf("image of %dx%d is too small to split", b.Dx(), b.Dy())
	}
	topRect, bottomRect := SplitRects(b.Dx(), b.Dy())
	if top, err = Crop(img, topRect); err != nil {
		return nil, nil, err
	}
	if bottom, err = Crop(img, bottomRect); err != nil {
		return nil, nil, err
	}
	return top, bottom, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop slices rect (relative to the image origin) out of img. Pixels are never resampled.
func Crop(img image.Image, rect image.Rectangle) (image.Image, error) {
	b := img.Bounds()
	abs := rect.Add(b.Min)
	if !abs.In(b) || abs.Empty() {
		return nil, fmt.Errorf("crop window %v outside image bounds %v", rect, b.Sub(b.Min))
	}

	if si, ok := img.(subImager); ok {
		return si.SubImage(abs), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, abs.Dx(), abs.Dy()))
	draw.Draw(dst, dst.Bounds(), img, abs.Min, draw.Src)
	return dst, nil
}
