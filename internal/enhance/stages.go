package enhance

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Binary images use black (0) as foreground, white (255) as background,
// matching what OCR engines expect from a scanned page.

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray
}

// otsuThreshold picks the global threshold minimizing intra-class variance.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[g.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	best, bestVar := 128, -1.0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}

func binarize(g *image.Gray, threshold uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y < threshold {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// dilate grows the black foreground by the given radius.
func dilate(bin *image.Gray, radius int) *image.Gray {
	return morph(bin, radius, true)
}

// erode shrinks the black foreground by the given radius.
func erode(bin *image.Gray, radius int) *image.Gray {
	return morph(bin, radius, false)
}

func morph(bin *image.Gray, radius int, grow bool) *image.Gray {
	b := bin.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hit := false
			for dy := -radius; dy <= radius && !hit; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					black := bin.GrayAt(nx, ny).Y == 0
					if grow == black {
						hit = true
						break
					}
				}
			}
			// grow: black if any neighbor black; shrink: white if any neighbor white
			if grow == hit {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// closeOpen removes speckle noise: morphological close followed by open.
func closeOpen(bin *image.Gray, radius int) *image.Gray {
	closed := erode(dilate(bin, radius), radius)
	return dilate(erode(closed, radius), radius)
}

// component is a connected region of foreground pixels with enough raw
// moments to derive its orientation.
type component struct {
	area   int
	bounds image.Rectangle
	sx, sy float64
	sxx    float64
	syy    float64
	sxy    float64
}

// orientationDeg is the angle of the component's major axis from the second
// central moments, in degrees.
func (c component) orientationDeg() float64 {
	if c.area == 0 {
		return 0
	}
	n := float64(c.area)
	mx := c.sx / n
	my := c.sy / n
	mu20 := c.sxx/n - mx*mx
	mu02 := c.syy/n - my*my
	mu11 := c.sxy/n - mx*my
	return 0.5 * math.Atan2(2*mu11, mu20-mu02) * 180 / math.Pi
}

// largestComponent finds the biggest connected black region.
func largestComponent(bin *image.Gray) (component, bool) {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)

	var best component
	found := false
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] {
				continue
			}
			if bin.GrayAt(b.Min.X+x, b.Min.Y+y).Y != 0 {
				visited[y*w+x] = true
				continue
			}
			comp := floodComponent(bin, visited, x, y)
			if !found || comp.area > best.area {
				best = comp
				found = true
			}
		}
	}
	return best, found
}

func floodComponent(bin *image.Gray, visited []bool, startX, startY int) component {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()

	minX, minY, maxX, maxY := startX, startY, startX, startY
	var comp component

	type point struct{ x, y int }
	stack := []point{{startX, startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= w || p.y < 0 || p.y >= h {
			continue
		}
		if visited[p.y*w+p.x] {
			continue
		}
		if bin.GrayAt(b.Min.X+p.x, b.Min.Y+p.y).Y != 0 {
			continue
		}
		visited[p.y*w+p.x] = true

		comp.area++
		fx, fy := float64(p.x), float64(p.y)
		comp.sx += fx
		comp.sy += fy
		comp.sxx += fx * fx
		comp.syy += fy * fy
		comp.sxy += fx * fy

		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}

		stack = append(stack,
			point{p.x + 1, p.y}, point{p.x - 1, p.y},
			point{p.x, p.y + 1}, point{p.x, p.y - 1})
	}

	comp.bounds = image.Rect(b.Min.X+minX, b.Min.Y+minY, b.Min.X+maxX+1, b.Min.Y+maxY+1)
	return comp
}

// rotateGray rotates around the image center, sampling bilinearly with a
// white background.
func rotateGray(g *image.Gray, degrees float64) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	theta := degrees * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// inverse mapping
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cx + dx*cos + dy*sin
			sy := cy - dx*sin + dy*cos
			out.SetGray(x, y, color.Gray{Y: sampleBilinear(g, sx, sy)})
		}
	}
	return out
}

func sampleBilinear(g *image.Gray, x, y float64) uint8 {
	b := g.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	at := func(px, py int) float64 {
		if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
			return 255 // white background
		}
		return float64(g.GrayAt(px, py).Y)
	}

	v := at(x0, y0)*(1-fx)*(1-fy) +
		at(x0+1, y0)*fx*(1-fy) +
		at(x0, y0+1)*(1-fx)*fy +
		at(x0+1, y0+1)*fx*fy
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

func cropGray(g *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(g.Bounds())
	if rect.Empty() {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.SetGray(x, y, g.GrayAt(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

func padRect(rect image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X-pad, rect.Min.Y-pad, rect.Max.X+pad, rect.Max.Y+pad).Intersect(bounds)
}

// scaleGray resizes with cubic (Catmull-Rom) interpolation.
func scaleGray(g *image.Gray, factor float64) *image.Gray {
	if factor <= 0 || factor == 1 {
		return g
	}
	b := g.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 || h < 1 {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), g, b, xdraw.Src, nil)
	return out
}

// equalizeTiles applies contrast-limited local histogram equalization,
// interpolating bilinearly between per-tile mappings to avoid tile seams.
func equalizeTiles(g *image.Gray, tiles int, clipLimit float64) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if tiles < 1 || w < tiles || h < tiles {
		return g
	}
	tw := (w + tiles - 1) / tiles
	th := (h + tiles - 1) / tiles

	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tw, ty*th
			x1, y1 := minInt(x0+tw, w), minInt(y0+th, h)

			var hist [256]int
			n := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[g.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
					n++
				}
			}
			if n == 0 {
				continue
			}

			// clip and redistribute the excess uniformly
			limit := int(clipLimit * float64(n) / 256)
			if limit < 1 {
				limit = 1
			}
			excess := 0
			for i := range hist {
				if hist[i] > limit {
					excess += hist[i] - limit
					hist[i] = limit
				}
			}
			bonus := excess / 256
			for i := range hist {
				hist[i] += bonus
			}

			cum := 0
			for i := 0; i < 256; i++ {
				cum += hist[i]
				v := cum * 255 / n
				if v > 255 {
					v = 255
				}
				luts[ty*tiles+tx][i] = uint8(v)
			}
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// position relative to tile centers
			fx := float64(x)/float64(tw) - 0.5
			fy := float64(y)/float64(th) - 0.5
			tx0 := int(math.Floor(fx))
			ty0 := int(math.Floor(fy))
			dx := fx - float64(tx0)
			dy := fy - float64(ty0)

			tx1 := clampInt(tx0+1, 0, tiles-1)
			ty1 := clampInt(ty0+1, 0, tiles-1)
			tx0 = clampInt(tx0, 0, tiles-1)
			ty0 = clampInt(ty0, 0, tiles-1)

			v := g.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			v00 := float64(luts[ty0*tiles+tx0][v])
			v10 := float64(luts[ty0*tiles+tx1][v])
			v01 := float64(luts[ty1*tiles+tx0][v])
			v11 := float64(luts[ty1*tiles+tx1][v])

			val := v00*(1-dx)*(1-dy) + v10*dx*(1-dy) + v01*(1-dx)*dy + v11*dx*dy
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(math.Round(val))})
		}
	}
	return out
}

// bilateralFilter smooths while preserving edges: weights combine spatial
// distance and intensity difference.
func bilateralFilter(g *image.Gray, radius int, sigmaSpace, sigmaColor float64) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)

	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+(dx+radius)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var colorW [256]float64
	for i := range colorW {
		colorW[i] = math.Exp(-float64(i*i) / (2 * sigmaColor * sigmaColor))
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			center := int(g.GrayAt(x, y).Y)
			var sum, wsum float64
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					v := int(g.GrayAt(nx, ny).Y)
					diff := v - center
					if diff < 0 {
						diff = -diff
					}
					wgt := spatial[(dy+radius)*size+(dx+radius)] * colorW[diff]
					sum += wgt * float64(v)
					wsum += wgt
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(sum / wsum))})
		}
	}
	return out
}

// median3 applies a 3x3 median filter.
func median3(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	var window [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx := clampInt(x+dx, b.Min.X, b.Max.X-1)
					ny := clampInt(y+dy, b.Min.Y, b.Max.Y-1)
					window[n] = g.GrayAt(nx, ny).Y
					n++
				}
			}
			// insertion sort over 9 values
			for i := 1; i < 9; i++ {
				v := window[i]
				j := i - 1
				for j >= 0 && window[j] > v {
					window[j+1] = window[j]
					j--
				}
				window[j+1] = v
			}
			out.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return out
}

// stretchContrast maps the observed intensity range linearly onto 0..255.
func stretchContrast(g *image.Gray) *image.Gray {
	b := g.Bounds()
	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return g
	}
	out := image.NewGray(b)
	span := int(hi) - int(lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := (int(g.GrayAt(x, y).Y) - int(lo)) * 255 / span
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
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
