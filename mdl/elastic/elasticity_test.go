// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elastic

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFromYoungPoissonRejectsBadRanges(t *testing.T) {
	cases := []struct {
		E, nu float64
	}{
		{0, 0.25},
		{-1, 0.25},
		{70e9, 0},
		{70e9, 0.5},
		{70e9, -0.1},
	}
	for _, c := range cases {
		if _, err := FromYoungPoisson(c.E, c.nu); err == nil {
			t.Errorf("FromYoungPoisson(%v, %v): expected error, got nil", c.E, c.nu)
		}
	}
}

func TestFromYoungPoissonVpVsRatioAtPoint25(t *testing.T) {
	// nu = 0.25 gives the classic Vp/Vs = sqrt(3) Poisson-solid ratio.
	p, err := FromYoungPoisson(70e9, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rho := 2700.0
	vp := p.PVelocity(rho)
	vs := p.SVelocity(rho)
	ratio := vp / vs
	if !almostEqual(ratio, math.Sqrt(3), 1e-9) {
		t.Fatalf("Vp/Vs = %v, want sqrt(3) = %v", ratio, math.Sqrt(3))
	}
}

func TestCalcLamMuMatchKnownValues(t *testing.T) {
	// For nu=0.25: lambda = mu, a standard sanity check of the Enu formulas.
	E, nu := 70e9, 0.25
	lam := CalcLamFromEnu(E, nu)
	mu := CalcMuFromEnu(E, nu)
	if !almostEqual(lam, mu, 1e3) {
		t.Fatalf("at nu=0.25 expected lambda == mu, got lambda=%v mu=%v", lam, mu)
	}
}

func TestComputeProducesCFLSafeDt(t *testing.T) {
	plan, err := Compute(10.0, 0.3, 0.001, 2000, 100e3, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Dt <= 0 {
		t.Fatalf("dt must be positive, got %v", plan.Dt)
	}
	// dt must respect both the CFL bound and the 20-samples-per-period bound.
	cflBound := cflCoefficient * 0.001 / plan.VpMax
	freqBound := 1.0 / (float64(minSamplesPerPeriod) * 100e3)
	if plan.Dt > cflBound+1e-15 {
		t.Fatalf("dt=%v exceeds CFL bound %v", plan.Dt, cflBound)
	}
	if plan.Dt > freqBound+1e-15 {
		t.Fatalf("dt=%v exceeds frequency bound %v", plan.Dt, freqBound)
	}
	if plan.ExpectedPreTouchSteps <= 0 {
		t.Fatalf("expected pre-touch steps must be positive, got %v", plan.ExpectedPreTouchSteps)
	}
}

func TestComputeRejectsNonPositiveInputs(t *testing.T) {
	if _, err := Compute(10.0, 0.3, 0.001, 0, 100e3, 0.05); err == nil {
		t.Error("expected error for zero density")
	}
	if _, err := Compute(10.0, 0.3, 0.001, 2000, 0, 0.05); err == nil {
		t.Error("expected error for zero frequency")
	}
}
