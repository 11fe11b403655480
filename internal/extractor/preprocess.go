package extractor

import (
	"image"
	"image/color"
	"sort"
)

// PreprocessImage cleans a scanned receipt photo for OCR: grayscale,
// contrast stretch, median denoise, then adaptive binarization. Tesseract
// reads clean black-on-white far better than raw phone photos.
func PreprocessImage(img image.Image) image.Image {
	gray := toGray(img)
	stretchContrast(gray)
	gray = medianFilter(gray)
	return binarize(gray)
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// stretchContrast expands the observed intensity range to the full 0-255
// span, in place.
func stretchContrast(gray *image.Gray) {
	min, max := uint8(255), uint8(0)
	for _, p := range gray.Pix {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	if max <= min {
		return
	}
	span := int(max) - int(min)
	for i, p := range gray.Pix {
		gray.Pix[i] = uint8((int(p) - int(min)) * 255 / span)
	}
}

// medianFilter applies a 3x3 median to knock out salt-and-pepper noise.
func medianFilter(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	var window [9]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					window[n] = int(gray.GrayAt(px, py).Y)
					n++
				}
			}
			sort.Ints(window[:n])
			out.SetGray(x, y, color.Gray{Y: uint8(window[n/2])})
		}
	}
	return out
}

// binarize thresholds each pixel against the mean of its local tile, which
// copes with the uneven lighting of handheld photos better than a single
// global threshold.
func binarize(gray *image.Gray) *image.Gray {
	const tile = 32
	bounds := gray.Bounds()
	out := image.NewGray(bounds)

	for ty := bounds.Min.Y; ty < bounds.Max.Y; ty += tile {
		for tx := bounds.Min.X; tx < bounds.Max.X; tx += tile {
			maxX, maxY := tx+tile, ty+tile
			if maxX > bounds.Max.X {
				maxX = bounds.Max.X
			}
			if maxY > bounds.Max.Y {
				maxY = bounds.Max.Y
			}

			sum, count := 0, 0
			for y := ty; y < maxY; y++ {
				for x := tx; x < maxX; x++ {
					sum += int(gray.GrayAt(x, y).Y)
					count++
				}
			}
			threshold := uint8(sum / count)

			for y := ty; y < maxY; y++ {
				for x := tx; x < maxX; x++ {
					if gray.GrayAt(x, y).Y >= threshold {
						out.SetGray(x, y, color.Gray{Y: 255})
					} else {
						out.SetGray(x, y, color.Gray{Y: 0})
					}
				}
			}
		}
	}
	return out
}
