package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/photostack/boardkit/internal/errs"
)

// JPEGQuality is used for every resized photo.
const JPEGQuality = 95

// CoverFit scales src so it fully covers target and crops the overflow
// evenly from both sides. The result is exactly target in size.
func CoverFit(src image.Image, target Size) image.Image {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, target.Width, target.Height))
	if sw == 0 || sh == 0 {
		return dst
	}

	scale := math.Max(float64(target.Width)/float64(sw), float64(target.Height)/float64(sh))
	cw := clampInt(int(math.Round(float64(target.Width)/scale)), 1, sw)
	ch := clampInt(int(math.Round(float64(target.Height)/scale)), 1, sh)
	x0 := sb.Min.X + (sw-cw)/2
	y0 := sb.Min.Y + (sh-ch)/2

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+cw, y0+ch), draw.Src, nil)
	return dst
}

// ResizeFile decodes srcPath, cover-fits it to target and writes a JPEG to dstPath.
// Errors are of kind ResizeFailure.
func ResizeFile(srcPath, dstPath string, target Size) error {
	const op = "assets.ResizeFile"
	if target.Width <= 0 || target.Height <= 0 {
		return errs.E(errs.ResizeFailure, op, fmt.Sprintf("invalid target size %dx%d", target.Width, target.Height), nil)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return errs.E(errs.ResizeFailure, op, "failed to open photo", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return errs.E(errs.ResizeFailure, op, "failed to decode photo", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, CoverFit(img, target), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return errs.E(errs.ResizeFailure, op, "failed to encode photo", err)
	}
	if err := writeAtomic(dstPath, &buf); err != nil {
		return errs.E(errs.ResizeFailure, op, "failed to write resized photo", err)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
