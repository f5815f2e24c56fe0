// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"context"
	"testing"

	"github.com/mattemangia/acousticsim/inp"
	"github.com/mattemangia/acousticsim/mdl/elastic"
)

func buildTestVolume(t *testing.T) *inp.Volume {
	t.Helper()
	v, err := inp.NewVolume(6, 6, 6, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.Selected = 1
	for i := range v.Labels {
		v.Labels[i] = 1
		v.Density[i] = 2500
	}
	v.DefaultTransducers(inp.AxisZ)
	return v
}

func TestNewRejectsInvalidInputs(t *testing.T) {
	vol := buildTestVolume(t)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	if _, err := New(nil, params, 1e-7, nil, 100, 0, nil, 0); err == nil {
		t.Error("expected error for nil volume")
	}
	if _, err := New(vol, params, 0, nil, 100, 0, nil, 0); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := New(vol, params, 1e-7, nil, 0, 0, nil, 0); err == nil {
		t.Error("expected error for zero max steps")
	}
}

func TestNewDefaultsMaxPostSteps(t *testing.T) {
	vol := buildTestVolume(t)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	sv, err := New(vol, params, 1e-7, nil, 40, 0, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sv.MaxPostSteps != 10 {
		t.Fatalf("MaxPostSteps = %d, want floor of 10", sv.MaxPostSteps)
	}
}

func TestRunInactiveVoxelsStayZero(t *testing.T) {
	vol := buildTestVolume(t)
	// carve out an inactive pocket away from TX/RX so the stencil never
	// touches it.
	vol.Labels[vol.At(1, 1, 1)] = 9

	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	autoStop := NewAutoStop(5, 5, 0.01, 30)
	sv, err := New(vol, params, 1e-8, nil, 30, 10, autoStop, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sv.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i := vol.At(1, 1, 1)
	if sv.Fields.Vx[i] != 0 || sv.Fields.Sxx[i] != 0 {
		t.Error("inactive voxel was written by the stencil")
	}
}

func TestRunBoundaryVoxelsNeverWritten(t *testing.T) {
	vol := buildTestVolume(t)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	autoStop := NewAutoStop(5, 5, 0.01, 20)
	sv, err := New(vol, params, 1e-8, nil, 20, 10, autoStop, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sv.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// x=0 boundary plane must remain exactly zero in every field.
	for y := 0; y < vol.H; y++ {
		for z := 0; z < vol.D; z++ {
			i := vol.At(0, y, z)
			if sv.Fields.Vx[i] != 0 || sv.Fields.Sxx[i] != 0 {
				t.Fatalf("boundary voxel (0,%d,%d) was written", y, z)
			}
		}
	}
}

func TestRunSingleActiveVoxelFallback(t *testing.T) {
	v, err := inp.NewVolume(5, 5, 5, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.Selected = 1
	v.Labels[v.At(2, 2, 2)] = 1
	v.Density[v.At(2, 2, 2)] = 2500
	v.TX = [3]int{2, 2, 0}
	v.RX = [3]int{2, 2, 4}

	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	autoStop := NewAutoStop(5, 5, 0.01, 20)
	sv, err := New(v, params, 1e-8, nil, 20, 10, autoStop, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := sv.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Vp <= 0 {
		t.Errorf("Vp must be positive even with no receiver touch, got %v", res.Vp)
	}
}

func TestRunTwoShellScenario(t *testing.T) {
	vol, err := inp.NewTwoShellVolume(8, 8, 8, 2, 0.001, 1800, 2700)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vol.DefaultTransducers(inp.AxisZ)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	autoStop := NewAutoStop(5, 10, 0.01, 30)
	sv, err := New(vol, params, 1e-8, nil, 30, 15, autoStop, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := sv.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalSteps <= 0 {
		t.Error("expected a positive number of executed steps")
	}
}

func TestRunAutoStopDisabledRunsToMaxSteps(t *testing.T) {
	vol := buildTestVolume(t)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	sv, err := New(vol, params, 1e-8, nil, 12, 50, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sv.AutoStopEnabled = false
	res, err := sv.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalSteps < 12 {
		t.Fatalf("TotalSteps = %d, want >= max_steps (12) since auto-stop is disabled", res.TotalSteps)
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	vol := buildTestVolume(t)
	params, _ := elastic.FromYoungPoisson(70e9, 0.25)
	sv, err := New(vol, params, 1e-8, nil, 1000, 500, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sv.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cancelled {
		t.Error("expected Cancelled to be true when ctx is already done")
	}
	if res.TotalSteps >= 1000 {
		t.Errorf("cancellation should stop well before max_steps, got %d steps", res.TotalSteps)
	}
}
