// Package voxel defines the value types stored in the sparse voxel grids:
// renderable blocks, per-face shade data and scalar light samples.
package voxel

import "github.com/go-gl/mathgl/mgl32"

// Face identifies one of the six axis-aligned cube faces.
type Face int

const (
	FaceTop Face = iota
	FaceBottom
	FaceLeft
	FaceRight
	FaceFront
	FaceBack
)

// Faces lists all six faces in a fixed order.
var Faces = [6]Face{FaceTop, FaceBottom, FaceLeft, FaceRight, FaceFront, FaceBack}

// Normal returns the outward unit normal of the face.
//
// The axis convention matches the mesh builder: Top/Bottom are ±Y,
// Front/Back are ±Z, Left/Right are +X/-X.
func (f Face) Normal() mgl32.Vec3 {
	switch f {
	case FaceTop:
		return mgl32.Vec3{0, 1, 0}
	case FaceBottom:
		return mgl32.Vec3{0, -1, 0}
	case FaceLeft:
		return mgl32.Vec3{1, 0, 0}
	case FaceRight:
		return mgl32.Vec3{-1, 0, 0}
	case FaceFront:
		return mgl32.Vec3{0, 0, 1}
	default:
		return mgl32.Vec3{0, 0, -1}
	}
}

// Offset returns the cell offset of the neighbor across the face.
func (f Face) Offset() (dx, dy, dz int) {
	n := f.Normal()
	return int(n.X()), int(n.Y()), int(n.Z())
}

func (f Face) String() string {
	switch f {
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceLeft:
		return "left"
	case FaceRight:
		return "right"
	case FaceFront:
		return "front"
	default:
		return "back"
	}
}

// Shade holds the lighting scalar for each of a block's six faces.
type Shade struct {
	Top    float32
	Bottom float32
	Left   float32
	Right  float32
	Front  float32
	Back   float32
}

// DefaultShade is a fully lit shade, the state of freshly generated blocks
// before the lighting passes run.
func DefaultShade() Shade {
	return Shade{Top: 1, Bottom: 1, Left: 1, Right: 1, Front: 1, Back: 1}
}

// Get returns the shade scalar for the given face.
func (s Shade) Get(f Face) float32 {
	switch f {
	case FaceTop:
		return s.Top
	case FaceBottom:
		return s.Bottom
	case FaceLeft:
		return s.Left
	case FaceRight:
		return s.Right
	case FaceFront:
		return s.Front
	default:
		return s.Back
	}
}

// Set overwrites the shade scalar for the given face.
func (s *Shade) Set(f Face, v float32) {
	switch f {
	case FaceTop:
		s.Top = v
	case FaceBottom:
		s.Bottom = v
	case FaceLeft:
		s.Left = v
	case FaceRight:
		s.Right = v
	case FaceFront:
		s.Front = v
	default:
		s.Back = v
	}
}

// Light is a raw occlusion sample: 1 for an unobstructed cell, 0 for a
// shadowed one. Smoothing produces intermediate values.
type Light float32

// Equal reports whether two light samples are identical.
func (l Light) Equal(other Light) bool { return l == other }

// CanMerge always allows spatial merging of light cells.
func (l Light) CanMerge() bool { return true }

// Average collapses light samples by arithmetic mean.
func (l Light) Average(values []Light) (Light, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float32
	for _, v := range values {
		sum += float32(v)
	}
	return Light(sum / float32(len(values))), true
}
