// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solver implements the explicit staggered-grid elastic finite
// difference core: the nine field arrays, the stress/velocity update
// passes, source injection, receiver detection, the auto-stop
// controller and the progress/snapshot bus.
package solver

import "github.com/cpmech/gosl/la"

// Fields holds the nine coupled field arrays of the elastic wave
// equation as flat W*H*D buffers, addressed through idx(x,y,z).
// Velocities: Vx, Vy, Vz. Normal stresses: Sxx, Syy, Szz. Shear
// stresses: Sxy, Sxz, Syz. All start at zero.
type Fields struct {
	W, H, D int
	Vx, Vy, Vz    []float64
	Sxx, Syy, Szz []float64
	Sxy, Sxz, Syz []float64
}

// NewFields allocates the nine zeroed field arrays for a W x H x D grid.
func NewFields(W, H, D int) *Fields {
	n := W * H * D
	alloc := func() []float64 { return make([]float64, n) }
	return &Fields{
		W: W, H: H, D: D,
		Vx: alloc(), Vy: alloc(), Vz: alloc(),
		Sxx: alloc(), Syy: alloc(), Szz: alloc(),
		Sxy: alloc(), Sxz: alloc(), Syz: alloc(),
	}
}

// idx converts (x,y,z) into the flat index idx(x,y,z) = (z*H+y)*W+x.
func (f *Fields) idx(x, y, z int) int {
	return (z*f.H+y)*f.W + x
}

// Reset zeroes every field array; used when a run restarts.
func (f *Fields) Reset() {
	for _, s := range [][]float64{f.Vx, f.Vy, f.Vz, f.Sxx, f.Syy, f.Szz, f.Sxy, f.Sxz, f.Syz} {
		la.VecFill(s, 0)
	}
}

// CopyVelocities returns f32 deep copies of Vx and Vy, used by the
// progress bus to publish snapshots without exposing live buffers.
func (f *Fields) CopyVelocities() (vx, vy []float32) {
	vx = make([]float32, len(f.Vx))
	vy = make([]float32, len(f.Vy))
	for i := range f.Vx {
		vx[i] = float32(f.Vx[i])
		vy[i] = float32(f.Vy[i])
	}
	return
}
