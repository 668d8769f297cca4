// Package imagesink normalises a reconstructed image vector into an 8-bit
// grayscale PNG, per original_source/server/src/reconstruction.rs::save_image
// extended with the spec's vertical-flip step.
package imagesink

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/TKach1/image-reconstruction-go/internal/domain"
)

// Sink writes reconstructed images to a directory as PNG files.
type Sink struct {
	dir string
}

// New creates a Sink rooted at dir (the process working directory if dir is
// empty).
func New(dir string) *Sink {
	return &Sink{dir: dir}
}

// Filename returns the deterministic filename for a result; it depends only
// on the result's user id and end time, not on whether a save succeeds.
func Filename(result domain.ReconstructionResult) string {
	return fmt.Sprintf("img_%s_%d.png", result.UserID, result.EndTime.Unix())
}

// Save normalises result.F into an 8-bit grayscale raster, flips it
// vertically, and writes it as a PNG. It returns the filename (not the full
// path) so the report log can reference it independent of -outdir.
func (s *Sink) Save(result domain.ReconstructionResult) (string, error) {
	h, w := result.ImagePixels.Height, result.ImagePixels.Width
	if h*w != len(result.F) {
		return "", domain.NewDomainError(domain.ErrModelDimensionMismatch,
			fmt.Errorf("image_pixels (%d,%d) does not match len(f)=%d", h, w, len(result.F)))
	}

	pixels := normalize(result.F, h, w)

	filename := Filename(result)
	path := filename
	if s.dir != "" {
		path = filepath.Join(s.dir, filename)
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		copy(img.Pix[row*img.Stride:row*img.Stride+w], pixels[row*w:(row+1)*w])
	}

	f, err := os.Create(path)
	if err != nil {
		return filename, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return filename, fmt.Errorf("encode %s: %w", path, err)
	}
	return filename, nil
}

// normalize reshapes f (row-major, h*w) into a vertically flipped,
// min-max-normalised 8-bit raster, per spec §4.3 steps 1-3.
func normalize(f []float64, h, w int) []byte {
	out := make([]byte, h*w)

	min, max := f[0], f[0]
	for _, v := range f {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	rng := max - min

	for row := 0; row < h; row++ {
		srcRow := h - 1 - row // vertical flip
		for col := 0; col < w; col++ {
			v := f[srcRow*w+col]
			var px byte
			if math.Abs(rng) >= 1e-9 {
				scaled := math.Round((v - min) / rng * 255.0)
				px = saturate(scaled)
			}
			out[row*w+col] = px
		}
	}
	return out
}

func saturate(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
