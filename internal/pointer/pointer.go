// Package pointer maps scene pointer rays onto canvas coordinates.
package pointer

import (
	"math"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
)

// MaxDistance bounds how far along a ray the drawing surface may be hit.
const MaxDistance = 100.0

type Vec3 struct {
	X, Y, Z float64
}

// Ray is a pointer ray cast into the scene.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// ScreenRay is the orthographic ray a flat 2D host produces for a pointer at
// (x, y): it starts one unit in front of the z=0 plane and points into it.
func ScreenRay(x, y float64) Ray {
	return Ray{Origin: Vec3{x, y, -1}, Direction: Vec3{0, 0, 1}}
}

// Mapper resolves a ray to canvas coordinates. ok is false when the ray
// misses the drawing surface.
type Mapper interface {
	MapPointer(ray Ray) (p canvas.Point, ok bool)
}

// Surface is a flat drawing quad lying in the plane z = Z and spanning
// [MinX, MaxX] x [MinY, MaxY]. The quad's texture coordinate (u, v) runs
// left to right and bottom to top unless FlipY is set, in which case v runs
// top to bottom like screen coordinates.
type Surface struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Z          float64

	// Width and Height are the canvas dimensions texture coordinates scale to.
	Width, Height int
	FlipY         bool
	MaxDistance   float64
}

// ScreenSurface covers a width x height canvas one screen unit per cell,
// with y growing downwards.
func ScreenSurface(width, height int) *Surface {
	return &Surface{
		MaxX:   float64(width),
		MaxY:   float64(height),
		Width:  width,
		Height: height,
		FlipY:  true,
	}
}

// Hit returns the texture coordinate where ray meets the quad.
func (s *Surface) Hit(ray Ray) (u, v float64, ok bool) {
	if ray.Direction.Z == 0 {
		return 0, 0, false
	}
	t := (s.Z - ray.Origin.Z) / ray.Direction.Z
	if t < 0 {
		return 0, 0, false
	}

	maxDist := s.MaxDistance
	if maxDist <= 0 {
		maxDist = MaxDistance
	}
	d := ray.Direction
	if t*math.Sqrt(d.X*d.X+d.Y*d.Y+d.Z*d.Z) > maxDist {
		return 0, 0, false
	}

	x := ray.Origin.X + t*d.X
	y := ray.Origin.Y + t*d.Y
	if x < s.MinX || x > s.MaxX || y < s.MinY || y > s.MaxY {
		return 0, 0, false
	}
	if s.MaxX == s.MinX || s.MaxY == s.MinY {
		return 0, 0, false
	}
	return (x - s.MinX) / (s.MaxX - s.MinX), (y - s.MinY) / (s.MaxY - s.MinY), true
}

// MapPointer scales the hit texture coordinate to the canvas. Canvas rows
// grow downwards, so an unflipped v is inverted.
func (s *Surface) MapPointer(ray Ray) (canvas.Point, bool) {
	u, v, ok := s.Hit(ray)
	if !ok {
		return canvas.Point{}, false
	}
	if !s.FlipY {
		v = 1 - v
	}
	return canvas.Point{X: u * float64(s.Width), Y: v * float64(s.Height)}, true
}
