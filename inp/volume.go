// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data of an acoustic simulation: the
// voxel volume, material mask, density field and transducer placement.
package inp

import (
	"math"

	"github.com/mattemangia/acousticsim/simerr"
)

// Axis names the propagation direction used for default transducer placement.
type Axis int

// axes
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// WaveType tags which wave family the caller is interested in.
type WaveType int

// wave types
const (
	WaveP WaveType = iota
	WaveS
	WaveBoth
)

// Volume holds the immutable voxel volume a simulation runs against:
// dimensions, voxel pitch, material mask, density field and the
// selected material id. Coordinates are non-negative integers addressed
// through Idx, mirroring the flat-buffer-plus-dimension-descriptor idiom
// noted for multi-dimensional arrays.
type Volume struct {
	W, H, D   int       // grid dimensions in voxels
	Pitch     float64   // voxel pitch h, in metres
	Labels    []uint8   // flat material label grid, length W*H*D
	Density   []float32 // flat density grid, kg/m^3, length W*H*D
	Selected  uint8     // active material id
	TX, RX    [3]int    // transmitter / receiver voxel coordinates
}

// Idx converts a voxel coordinate into the flat index used by Labels and
// Density: idx(x,y,z) = (z*H + y)*W + x.
func Idx(x, y, z, W, H int) int {
	return (z*H+y)*W + x
}

// At returns the flat index of (x,y,z) within this volume.
func (v *Volume) At(x, y, z int) int {
	return Idx(x, y, z, v.W, v.H)
}

// NewVolume allocates a volume with zero labels and zero density; callers
// fill Labels/Density before use.
func NewVolume(W, H, D int, pitch float64) (*Volume, error) {
	if W < 3 || H < 3 || D < 3 {
		return nil, simerr.New(simerr.InvalidParameters, "volume dimensions must be >= 3 in every axis, got %dx%dx%d", W, H, D)
	}
	if pitch <= 0 {
		return nil, simerr.New(simerr.InvalidParameters, "voxel pitch must be positive, got %v", pitch)
	}
	n := W * H * D
	v := &Volume{
		W: W, H: H, D: D, Pitch: pitch,
		Labels:  make([]uint8, n),
		Density: make([]float32, n),
	}
	return v, nil
}

// Active reports whether (x,y,z) carries the selected material id.
func (v *Volume) Active(x, y, z int) bool {
	return v.Labels[v.At(x, y, z)] == v.Selected
}

// Interior reports whether (x,y,z) is strictly inside the grid, i.e. not
// on a boundary face along any axis; boundary voxels are never updated
// by the stencil and act as implicit reflective walls.
func (v *Volume) Interior(x, y, z int) bool {
	return x > 0 && x < v.W-1 && y > 0 && y < v.H-1 && z > 0 && z < v.D-1
}

// MeanActiveDensity returns the mean density over active voxels, used by
// the solver's analytic fallback when the receiver is never touched.
func (v *Volume) MeanActiveDensity() (float64, error) {
	var sum float64
	var n int
	for z := 0; z < v.D; z++ {
		for y := 0; y < v.H; y++ {
			for x := 0; x < v.W; x++ {
				if v.Active(x, y, z) {
					sum += float64(v.Density[v.At(x, y, z)])
					n++
				}
			}
		}
	}
	if n == 0 {
		return 0, simerr.New(simerr.InvalidParameters, "volume has no active voxels for material id %d", v.Selected)
	}
	return sum / float64(n), nil
}

// MinActiveDensity returns the minimum density over active voxels, used
// by the stability planner to bound the maximum P-wave velocity.
func (v *Volume) MinActiveDensity() (float64, error) {
	min := math.Inf(1)
	found := false
	for z := 0; z < v.D; z++ {
		for y := 0; y < v.H; y++ {
			for x := 0; x < v.W; x++ {
				if v.Active(x, y, z) {
					rho := float64(v.Density[v.At(x, y, z)])
					if rho <= 0 {
						return 0, simerr.New(simerr.InvalidParameters, "density must be strictly positive on active voxels, found %v at (%d,%d,%d)", rho, x, y, z)
					}
					if rho < min {
						min = rho
					}
					found = true
				}
			}
		}
	}
	if !found {
		return 0, simerr.New(simerr.InvalidParameters, "volume has no active voxels for material id %d", v.Selected)
	}
	return min, nil
}

// DefaultTransducers places TX on the face-centre at the low end of the
// given axis and RX on the face-centre at the high end, per the
// axis-aligned placement rule. The caller may still override TX/RX
// afterwards.
func (v *Volume) DefaultTransducers(axis Axis) {
	cx, cy, cz := v.W/2, v.H/2, v.D/2
	switch axis {
	case AxisX:
		v.TX = [3]int{0, cy, cz}
		v.RX = [3]int{v.W - 1, cy, cz}
	case AxisY:
		v.TX = [3]int{cx, 0, cz}
		v.RX = [3]int{cx, v.H - 1, cz}
	case AxisZ:
		v.TX = [3]int{cx, cy, 0}
		v.RX = [3]int{cx, cy, v.D - 1}
	}
}

// ValidateTransducers checks TX/RX lie within grid bounds.
func (v *Volume) ValidateTransducers() error {
	for _, p := range [][3]int{v.TX, v.RX} {
		if p[0] < 0 || p[0] >= v.W || p[1] < 0 || p[1] >= v.H || p[2] < 0 || p[2] >= v.D {
			return simerr.New(simerr.InvalidParameters, "transducer coordinate %v out of bounds for volume %dx%dx%d", p, v.W, v.H, v.D)
		}
	}
	return nil
}

// TXRXDistance returns the Euclidean distance between TX and RX in metres.
func (v *Volume) TXRXDistance() float64 {
	dx := float64(v.RX[0]-v.TX[0]) * v.Pitch
	dy := float64(v.RX[1]-v.TX[1]) * v.Pitch
	dz := float64(v.RX[2]-v.TX[2]) * v.Pitch
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NewTwoShellVolume builds a two-material fixture: a dense inner cube of
// side `inner` centred in a W x H x D volume, surrounded by an outer
// shell. Only the outer shell is selected active, matching end-to-end
// scenario 3: the inner block contributes no signal to the stencil.
func NewTwoShellVolume(W, H, D, inner int, pitch float64, rhoInner, rhoOuter float32) (*Volume, error) {
	v, err := NewVolume(W, H, D, pitch)
	if err != nil {
		return nil, err
	}
	const outerID, innerID = 1, 2
	v.Selected = outerID
	lo := [3]int{(W - inner) / 2, (H - inner) / 2, (D - inner) / 2}
	hi := [3]int{lo[0] + inner, lo[1] + inner, lo[2] + inner}
	for z := 0; z < D; z++ {
		for y := 0; y < H; y++ {
			for x := 0; x < W; x++ {
				i := v.At(x, y, z)
				if x >= lo[0] && x < hi[0] && y >= lo[1] && y < hi[1] && z >= lo[2] && z < hi[2] {
					v.Labels[i] = innerID
					v.Density[i] = rhoInner
				} else {
					v.Labels[i] = outerID
					v.Density[i] = rhoOuter
				}
			}
		}
	}
	return v, nil
}
