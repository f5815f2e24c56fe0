// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import "testing"

func TestNewVolumeRejectsBadDims(t *testing.T) {
	if _, err := NewVolume(2, 10, 10, 0.001); err == nil {
		t.Error("expected error for a dimension below 3")
	}
	if _, err := NewVolume(10, 10, 10, 0); err == nil {
		t.Error("expected error for non-positive pitch")
	}
}

func TestIdxInRangeAndDistinct(t *testing.T) {
	W, H := 5, 7
	for z := 0; z < 3; z++ {
		for y := 0; y < H; y++ {
			for x := 0; x < W; x++ {
				i := Idx(x, y, z, W, H)
				if i < 0 || i >= W*H*3 {
					t.Fatalf("Idx(%d,%d,%d) = %d out of range", x, y, z, i)
				}
			}
		}
	}
	// distinct coordinates must map to distinct indices.
	if Idx(1, 0, 0, W, H) == Idx(0, 1, 0, W, H) {
		t.Fatal("distinct coordinates collided")
	}
}

func TestActiveRespectsSelectedMaterial(t *testing.T) {
	v, err := NewVolume(4, 4, 4, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.Selected = 1
	v.Labels[v.At(1, 1, 1)] = 1
	v.Labels[v.At(2, 2, 2)] = 2
	if !v.Active(1, 1, 1) {
		t.Error("(1,1,1) should be active")
	}
	if v.Active(2, 2, 2) {
		t.Error("(2,2,2) should not be active")
	}
}

func TestInteriorExcludesBoundaryFaces(t *testing.T) {
	v, _ := NewVolume(4, 4, 4, 0.001)
	if v.Interior(0, 1, 1) || v.Interior(3, 1, 1) {
		t.Error("x-boundary voxels must not be interior")
	}
	if v.Interior(1, 0, 1) || v.Interior(1, 3, 1) {
		t.Error("y-boundary voxels must not be interior")
	}
	if !v.Interior(1, 1, 1) {
		t.Error("(1,1,1) in a 4x4x4 volume should be interior")
	}
}

func TestDefaultTransducersPlacement(t *testing.T) {
	v, _ := NewVolume(10, 10, 10, 0.001)
	v.DefaultTransducers(AxisZ)
	if v.TX[2] != 0 || v.RX[2] != v.D-1 {
		t.Fatalf("AxisZ placement wrong: TX=%v RX=%v", v.TX, v.RX)
	}
	if err := v.ValidateTransducers(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateTransducersRejectsOutOfBounds(t *testing.T) {
	v, _ := NewVolume(10, 10, 10, 0.001)
	v.TX = [3]int{-1, 0, 0}
	v.RX = [3]int{0, 0, 0}
	if err := v.ValidateTransducers(); err == nil {
		t.Error("expected error for out-of-bounds TX")
	}
}

func TestMinActiveDensityRejectsNonPositive(t *testing.T) {
	v, _ := NewVolume(4, 4, 4, 0.001)
	v.Selected = 1
	i := v.At(1, 1, 1)
	v.Labels[i] = 1
	v.Density[i] = 0
	if _, err := v.MinActiveDensity(); err == nil {
		t.Error("expected error for a zero density on an active voxel")
	}
}

func TestMeanActiveDensityRejectsNoActiveVoxels(t *testing.T) {
	v, _ := NewVolume(4, 4, 4, 0.001)
	v.Selected = 9 // nothing carries this label
	if _, err := v.MeanActiveDensity(); err == nil {
		t.Error("expected error when no voxel is active")
	}
}

func TestNewTwoShellVolumeOnlyOuterShellActive(t *testing.T) {
	v, err := NewTwoShellVolume(8, 8, 8, 2, 0.001, 1500, 2500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the inner cube is centred; its centre voxel must not be active.
	cx, cy, cz := v.W/2, v.H/2, v.D/2
	if v.Active(cx, cy, cz) {
		t.Error("inner cube centre should not be active (only the outer shell is selected)")
	}
	// a corner voxel belongs to the outer shell and must be active.
	if !v.Active(0, 0, 0) {
		t.Error("corner voxel should be active (outer shell)")
	}
}

func TestTXRXDistance(t *testing.T) {
	v, _ := NewVolume(10, 10, 10, 0.002)
	v.TX = [3]int{0, 0, 0}
	v.RX = [3]int{0, 0, 9}
	got := v.TXRXDistance()
	want := 9 * 0.002
	if got < want-1e-12 || got > want+1e-12 {
		t.Fatalf("TXRXDistance() = %v, want %v", got, want)
	}
}
