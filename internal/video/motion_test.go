package video

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/dkeye/Nursery/internal/core"
)

func solid(w, h int, c color.Color) core.VideoFrame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return core.VideoFrame{Width: w, Height: h, Image: img}
}

func TestDiffAnalyzerStillScene(t *testing.T) {
	a := DiffAnalyzer{}
	f := solid(64, 48, color.RGBA{R: 120, G: 80, B: 40, A: 255})
	moved, err := a.Detect(context.Background(), f, f, DefaultMotionThreshold)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if moved {
		t.Error("identical frames reported as motion")
	}
}

func TestDiffAnalyzerBlackToWhite(t *testing.T) {
	a := DiffAnalyzer{}
	black := solid(320, 240, color.Black)
	white := solid(320, 240, color.White)

	// 256*256 pixels * 255 = 16,711,680 > 2,000,000
	moved, err := a.Detect(context.Background(), black, white, DefaultMotionThreshold)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !moved {
		t.Error("full-frame change not reported as motion")
	}

	moved, _ = a.Detect(context.Background(), black, white, 256*256*256)
	if moved {
		t.Error("difference below threshold reported as motion")
	}
}

func TestDiffAnalyzerYCbCrUsesLuma(t *testing.T) {
	mk := func(y uint8) core.VideoFrame {
		img := image.NewYCbCr(image.Rect(0, 0, 32, 32), image.YCbCrSubsampleRatio420)
		for i := range img.Y {
			img.Y[i] = y
		}
		return core.VideoFrame{Width: 32, Height: 32, Image: img}
	}
	a := DiffAnalyzer{Size: 16}
	moved, err := a.Detect(context.Background(), mk(10), mk(20), 16*16*5)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !moved {
		t.Error("luma change of 10 per pixel not detected")
	}
}

func TestDiffAnalyzerEmptyFrame(t *testing.T) {
	_, err := DiffAnalyzer{}.Detect(context.Background(), core.VideoFrame{}, solid(2, 2, color.White), 1)
	if err != ErrEmptyFrame {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}
}

func TestDiffSum(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 2, 1))
	b := image.NewGray(image.Rect(0, 0, 2, 1))
	a.Pix[0], a.Pix[1] = 10, 200
	b.Pix[0], b.Pix[1] = 30, 100
	if got := DiffSum(a, b); got != 120 {
		t.Errorf("Expected 120, got %d", got)
	}
}
