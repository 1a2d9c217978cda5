package imaging

import "math"

// cannyEdges runs a dual-threshold Canny detector: Sobel gradients,
// non-maximum suppression along the quantized gradient direction and
// hysteresis over 8-connected neighbours. Border pixels are never edges.
func cannyEdges(g *grayBuffer, low, high float64) []bool {
	w, h := g.w, g.h
	edges := make([]bool, w*h)
	if w < 3 || h < 3 {
		return edges
	}

	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -g.at(x-1, y-1) - 2*g.at(x-1, y) - g.at(x-1, y+1) +
				g.at(x+1, y-1) + 2*g.at(x+1, y) + g.at(x+1, y+1)
			gy := -g.at(x-1, y-1) - 2*g.at(x, y-1) - g.at(x+1, y-1) +
				g.at(x-1, y+1) + 2*g.at(x, y+1) + g.at(x+1, y+1)
			i := y*w + x
			mag[i] = math.Hypot(gx, gy)
			dir[i] = quantizeDirection(gx, gy)
		}
	}

	// 0 = suppressed, 1 = weak, 2 = strong
	class := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m < low {
				continue
			}
			var a, b float64
			switch dir[i] {
			case 0:
				a, b = mag[i-1], mag[i+1]
			case 1:
				a, b = mag[i-w-1], mag[i+w+1]
			case 2:
				a, b = mag[i-w], mag[i+w]
			default:
				a, b = mag[i-w+1], mag[i+w-1]
			}
			if m <= a || m < b {
				continue
			}
			if m >= high {
				class[i] = 2
				stack = append(stack, i)
			} else {
				class[i] = 1
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if edges[i] {
			continue
		}
		edges[i] = true
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 1 || ny < 1 || nx >= w-1 || ny >= h-1 {
					continue
				}
				j := ny*w + nx
				if class[j] == 1 && !edges[j] {
					class[j] = 2
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

// quantizeDirection maps a gradient to one of four sectors:
// 0 horizontal, 1 diagonal down-right, 2 vertical, 3 diagonal up-right.
func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}
