// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package tomo reconstructs a per-voxel velocity field and histogram
// from a final wave-field snapshot plus the solver's global P-velocity,
// playing the role of the teacher's ana package (analytic
// post-processing over a solved field) for this domain.
package tomo

import (
	"math"

	"github.com/cpmech/gosl/utl"
	"github.com/mattemangia/acousticsim/inp"
	"github.com/mattemangia/acousticsim/simerr"
)

const histogramBins = 100

// epsilon guards the log10 in the amplitude modulation term.
const epsilon = 1e-12

// Result is the reconstructed velocity field plus its histogram and
// observed range.
type Result struct {
	V         []float32 // per-voxel velocity field, W*H*D, zero off active voxels
	Histogram [histogramBins]int
	BinLo, BinHi float64 // histogram bin edges, [0.5*Vp, 1.5*Vp]
	ObservedMin, ObservedMax float64
}

// Snapshot is the final wave-field state handed to the reconstructor.
type Snapshot struct {
	Vx, Vy, Vz []float64 // W*H*D, final solver state
}

// RayPath is an optional polyline from TX to RX; when nil, the straight
// TX-RX line is used for the proximity term.
type RayPath struct {
	Points [][3]float64
}

// Reconstruct converts a final wave-field snapshot plus the global Vp
// into a per-voxel velocity field, per spec section 4.6.
func Reconstruct(vol *inp.Volume, snap Snapshot, vp float64, path *RayPath) (Result, error) {
	if vp <= 0 {
		return Result{}, simerr.New(simerr.InvalidParameters, "global Vp must be positive, got %v", vp)
	}
	n := vol.W * vol.H * vol.D
	if len(snap.Vx) != n || len(snap.Vy) != n || len(snap.Vz) != n {
		return Result{}, simerr.New(simerr.DimensionMismatch, "snapshot length does not match volume %dx%dx%d", vol.W, vol.H, vol.D)
	}

	rhoMean, err := vol.MeanActiveDensity()
	if err != nil {
		return Result{}, err
	}

	lo, hi := 0.5*vp, 1.5*vp
	cx, cy, cz := float64(vol.W-1)/2, float64(vol.H-1)/2, float64(vol.D-1)/2
	centerDist := math.Sqrt(cx*cx + cy*cy + cz*cz)

	degenerateAmplitude := true

	V := make([]float32, n)
	var obsMin, obsMax float64
	first := true

	for z := 0; z < vol.D; z++ {
		for y := 0; y < vol.H; y++ {
			for x := 0; x < vol.W; x++ {
				if !vol.Active(x, y, z) {
					continue
				}
				i := vol.At(x, y, z)
				A := math.Abs(snap.Vx[i]) + math.Abs(snap.Vy[i])
				if A > 1e-9 {
					degenerateAmplitude = false
				}

				dTX := voxelDistance(x, y, z, vol.TX, vol.Pitch)
				dPath := distanceToPath(x, y, z, vol, path)

				modAmp := 0.2 * math.Log10((A*dTX)/epsilon)
				modAmp = clamp(modAmp, -0.3, 0.3)

				prox := 1 - math.Min(1, dPath/10)
				if prox < 0 {
					prox = 0
				}

				rho := float64(vol.Density[i])
				modRho := 0.15 * (rho/rhoMean - 1)

				v := vp * (1 + 0.7*modAmp*prox + 0.5*modRho*(1-prox))
				v = clamp(v, lo, hi)

				V[i] = float32(v)
				if first {
					obsMin, obsMax = v, v
					first = false
				} else {
					obsMin = utl.Min(obsMin, v)
					obsMax = utl.Max(obsMax, v)
				}
			}
		}
	}

	if degenerateAmplitude {
		first = true
		for z := 0; z < vol.D; z++ {
			for y := 0; y < vol.H; y++ {
				for x := 0; x < vol.W; x++ {
					if !vol.Active(x, y, z) {
						continue
					}
					i := vol.At(x, y, z)
					rho := float64(vol.Density[i])
					dx, dy, dz := float64(x)-cx, float64(y)-cy, float64(z)-cz
					rNorm := 0.0
					if centerDist > 0 {
						rNorm = math.Sqrt(dx*dx+dy*dy+dz*dz) / centerDist
					}
					v := vp * math.Sqrt(rho/rhoMean) * (1 - 0.1*rNorm)
					v = clamp(v, lo, hi)
					V[i] = float32(v)
					if first {
						obsMin, obsMax = v, v
						first = false
					} else {
						obsMin = utl.Min(obsMin, v)
						obsMax = utl.Max(obsMax, v)
					}
				}
			}
		}
	}

	var hist [histogramBins]int
	span := hi - lo
	for z := 0; z < vol.D; z++ {
		for y := 0; y < vol.H; y++ {
			for x := 0; x < vol.W; x++ {
				if !vol.Active(x, y, z) {
					continue
				}
				v := float64(V[vol.At(x, y, z)])
				bin := 0
				if span > 0 {
					bin = int((v - lo) / span * histogramBins)
				}
				if bin < 0 {
					bin = 0
				}
				if bin >= histogramBins {
					bin = histogramBins - 1
				}
				hist[bin]++
			}
		}
	}

	return Result{V: V, Histogram: hist, BinLo: lo, BinHi: hi, ObservedMin: obsMin, ObservedMax: obsMax}, nil
}

// ColorScale computes the adaptive display window [p5-0.05*(p95-p5),
// p95+0.05*(p95-p5)] from the 5th and 95th percentiles of V over active
// voxels.
func ColorScale(vol *inp.Volume, v []float32) (lo, hi float64, err error) {
	var values []float64
	for z := 0; z < vol.D; z++ {
		for y := 0; y < vol.H; y++ {
			for x := 0; x < vol.W; x++ {
				if vol.Active(x, y, z) {
					values = append(values, float64(v[vol.At(x, y, z)]))
				}
			}
		}
	}
	if len(values) == 0 {
		return 0, 0, simerr.New(simerr.InvalidParameters, "no active voxels to compute a colour scale from")
	}
	sortFloat64(values)
	p5 := percentile(values, 0.05)
	p95 := percentile(values, 0.95)
	span := p95 - p5
	return p5 - 0.05*span, p95 + 0.05*span, nil
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sortFloat64(s []float64) {
	// insertion sort is fine here: called once per tomography run over
	// the active-voxel count, not in the solver's hot loop.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return utl.Max(lo, utl.Min(hi, v))
}

func voxelDistance(x, y, z int, p [3]int, pitch float64) float64 {
	dx := float64(x-p[0]) * pitch
	dy := float64(y-p[1]) * pitch
	dz := float64(z-p[2]) * pitch
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// distanceToPath returns the distance in metres from voxel (x,y,z) to
// the given polyline, or to the straight TX-RX line when path is nil.
func distanceToPath(x, y, z int, vol *inp.Volume, path *RayPath) float64 {
	p := [3]float64{float64(x) * vol.Pitch, float64(y) * vol.Pitch, float64(z) * vol.Pitch}
	if path == nil || len(path.Points) < 2 {
		a := [3]float64{float64(vol.TX[0]) * vol.Pitch, float64(vol.TX[1]) * vol.Pitch, float64(vol.TX[2]) * vol.Pitch}
		b := [3]float64{float64(vol.RX[0]) * vol.Pitch, float64(vol.RX[1]) * vol.Pitch, float64(vol.RX[2]) * vol.Pitch}
		return distToSegment(p, a, b)
	}
	min := math.Inf(1)
	for i := 0; i+1 < len(path.Points); i++ {
		d := distToSegment(p, path.Points[i], path.Points[i+1])
		if d < min {
			min = d
		}
	}
	return min
}

func distToSegment(p, a, b [3]float64) float64 {
	ab := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	ap := [3]float64{p[0] - a[0], p[1] - a[1], p[2] - a[2]}
	abLen2 := ab[0]*ab[0] + ab[1]*ab[1] + ab[2]*ab[2]
	if abLen2 < 1e-18 {
		return math.Sqrt(ap[0]*ap[0] + ap[1]*ap[1] + ap[2]*ap[2])
	}
	t := (ap[0]*ab[0] + ap[1]*ab[1] + ap[2]*ab[2]) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := [3]float64{a[0] + t*ab[0], a[1] + t*ab[1], a[2] + t*ab[2]}
	dx, dy, dz := p[0]-closest[0], p[1]-closest[1], p[2]-closest[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
