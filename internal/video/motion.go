package video

import (
	"context"
	"errors"
	"image"

	"golang.org/x/image/draw"

	"github.com/dkeye/Nursery/internal/core"
)

const (
	DefaultMotionThreshold int64 = 2_000_000
	DefaultCompareSize           = 256
)

var ErrEmptyFrame = errors.New("frame has no image")

// DiffAnalyzer converts both frames to grayscale, scales them to a fixed
// square and reports motion when the sum of absolute pixel differences
// exceeds the threshold.
type DiffAnalyzer struct {
	Size int
}

var _ core.MotionAnalyzer = DiffAnalyzer{}

func (a DiffAnalyzer) Detect(ctx context.Context, prev, cur core.VideoFrame, threshold int64) (bool, error) {
	if prev.Image == nil || cur.Image == nil {
		return false, ErrEmptyFrame
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	size := a.Size
	if size <= 0 {
		size = DefaultCompareSize
	}
	g1 := scaledGray(prev.Image, size)
	g2 := scaledGray(cur.Image, size)
	return DiffSum(g1, g2) > threshold, nil
}

// DiffSum adds |a-b| over all pixels of two same-shaped gray images.
func DiffSum(a, b *image.Gray) int64 {
	var sum int64
	for i := range a.Pix {
		d := int64(a.Pix[i]) - int64(b.Pix[i])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

func scaledGray(src image.Image, size int) *image.Gray {
	var g *image.Gray
	switch s := src.(type) {
	case *image.Gray:
		g = s
	case *image.YCbCr:
		// The luma plane already is the grayscale picture.
		g = &image.Gray{Pix: s.Y, Stride: s.YStride, Rect: s.Rect}
	default:
		g = image.NewGray(src.Bounds())
		draw.Draw(g, g.Bounds(), src, src.Bounds().Min, draw.Src)
	}
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), g, g.Bounds(), draw.Src, nil)
	return dst
}
