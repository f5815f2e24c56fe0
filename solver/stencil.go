// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"runtime"
	"sync"
)

// parallelFor partitions [lo, hi) over the outermost axis across a
// worker pool and blocks until every worker has finished its slab; pass
// boundaries are implicit barriers, mirroring the solver's dispatching
// thread handing each field pass to a data-parallel pool (teacher's
// go-routine/channel fan-out idiom, e.g. fem.Test_bh14c).
func parallelFor(lo, hi int, fn func(z int)) {
	n := hi - lo
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for z := lo; z < hi; z++ {
			fn(z)
		}
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := lo + w*chunk
		end := start + chunk
		if start >= hi {
			break
		}
		if end > hi {
			end = hi
		}
		wg.Add(1)
		go func(a, b int) {
			defer wg.Done()
			for z := a; z < b; z++ {
				fn(z)
			}
		}(start, end)
	}
	wg.Wait()
}

// stressPass updates the six stress components for every active
// interior voxel from centred differences of the velocity field as it
// stood at the start of the step. Boundary voxels (index 0 or last
// along any axis) and inactive voxels are left untouched.
func stressPass(f *Fields, active func(x, y, z int) bool, h, dt, lam, mu float64) {
	inv2h := 1.0 / (2 * h)
	parallelFor(1, f.D-1, func(z int) {
		for y := 1; y < f.H-1; y++ {
			for x := 1; x < f.W-1; x++ {
				if !active(x, y, z) {
					continue
				}
				i := f.idx(x, y, z)
				ixp, ixm := f.idx(x+1, y, z), f.idx(x-1, y, z)
				iyp, iym := f.idx(x, y+1, z), f.idx(x, y-1, z)
				izp, izm := f.idx(x, y, z+1), f.idx(x, y, z-1)

				dvxDx := (f.Vx[ixp] - f.Vx[ixm]) * inv2h
				dvyDy := (f.Vy[iyp] - f.Vy[iym]) * inv2h
				dvzDz := (f.Vz[izp] - f.Vz[izm]) * inv2h

				dvxDy := (f.Vx[iyp] - f.Vx[iym]) * inv2h
				dvyDx := (f.Vy[ixp] - f.Vy[ixm]) * inv2h
				dvxDz := (f.Vx[izp] - f.Vx[izm]) * inv2h
				dvzDx := (f.Vz[ixp] - f.Vz[ixm]) * inv2h
				dvyDz := (f.Vy[izp] - f.Vy[izm]) * inv2h
				dvzDy := (f.Vz[iyp] - f.Vz[iym]) * inv2h

				theta := dvxDx + dvyDy + dvzDz

				f.Sxx[i] += dt * (lam*theta + 2*mu*dvxDx)
				f.Syy[i] += dt * (lam*theta + 2*mu*dvyDy)
				f.Szz[i] += dt * (lam*theta + 2*mu*dvzDz)
				f.Sxy[i] += dt * mu * (dvxDy + dvyDx)
				f.Sxz[i] += dt * mu * (dvxDz + dvzDx)
				f.Syz[i] += dt * mu * (dvyDz + dvzDy)
			}
		}
	})
}

// velocityPass updates the three particle velocity components from
// forward/backward differences of the stress field just written by
// stressPass, reproducing the staggered placement described by the
// spec: vx += dt/rho * (Δ+sxx/h + Δ-sxy/h + Δ-sxz/h), mirrored for vy, vz.
func velocityPass(f *Fields, active func(x, y, z int) bool, h, dt float64, rho func(x, y, z int) float64) {
	invh := 1.0 / h
	parallelFor(1, f.D-1, func(z int) {
		for y := 1; y < f.H-1; y++ {
			for x := 1; x < f.W-1; x++ {
				if !active(x, y, z) {
					continue
				}
				i := f.idx(x, y, z)
				ixp, ixm := f.idx(x+1, y, z), f.idx(x-1, y, z)
				iyp, iym := f.idx(x, y+1, z), f.idx(x, y-1, z)
				izp, izm := f.idx(x, y, z+1), f.idx(x, y, z-1)

				dtOverRho := dt / rho(x, y, z)

				dxPlusSxx := (f.Sxx[i] - f.Sxx[ixm]) * invh
				dyMinusSxy := (f.Sxy[iyp] - f.Sxy[i]) * invh
				dzMinusSxz := (f.Sxz[izp] - f.Sxz[i]) * invh
				f.Vx[i] += dtOverRho * (dxPlusSxx + dyMinusSxy + dzMinusSxz)

				dyPlusSyy := (f.Syy[i] - f.Syy[iym]) * invh
				dxMinusSxy := (f.Sxy[ixp] - f.Sxy[i]) * invh
				dzMinusSyz := (f.Syz[izp] - f.Syz[i]) * invh
				f.Vy[i] += dtOverRho * (dyPlusSyy + dxMinusSxy + dzMinusSyz)

				dzPlusSzz := (f.Szz[i] - f.Szz[izm]) * invh
				dxMinusSxz := (f.Sxz[ixp] - f.Sxz[i]) * invh
				dyMinusSyz := (f.Syz[iyp] - f.Syz[i]) * invh
				f.Vz[i] += dtOverRho * (dzPlusSzz + dxMinusSxz + dyMinusSyz)
			}
		}
	})
}
