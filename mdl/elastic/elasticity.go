// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package elastic computes Lamé parameters from Young's modulus and
// Poisson's ratio, and derives the CFL-safe time step for the explicit
// elastic stencil.
package elastic

import (
	"math"

	"github.com/cpmech/gosl/utl"
	"github.com/mattemangia/acousticsim/simerr"
)

// cflCoefficient is conservative for a second-order staggered stencil in 3-D.
const cflCoefficient = 0.4

// minSamplesPerPeriod enforces at least 20 samples per source period.
const minSamplesPerPeriod = 20

// Params holds the Lamé parameters derived from (E, ν).
type Params struct {
	E, Nu float64 // Young's modulus (Pa) and Poisson's ratio
	Lam   float64 // λ
	Mu    float64 // μ, the shear modulus
}

// FromYoungPoisson converts Young's modulus E (Pa) and Poisson's ratio ν
// into Lamé parameters, mirroring Calc_l_from_Enu/Calc_G_from_Enu.
func FromYoungPoisson(E, nu float64) (Params, error) {
	if nu <= 0 || nu >= 0.5 {
		return Params{}, simerr.New(simerr.InvalidParameters, "Poisson's ratio must be in (0, 0.5), got %v", nu)
	}
	if E <= 0 {
		return Params{}, simerr.New(simerr.InvalidParameters, "Young's modulus must be positive, got %v", E)
	}
	p := Params{
		E: E, Nu: nu,
		Lam: CalcLamFromEnu(E, nu),
		Mu:  CalcMuFromEnu(E, nu),
	}
	if p.Lam+2*p.Mu <= 0 {
		return Params{}, simerr.New(simerr.InvalidParameters, "invalid elastic constants: lambda+2mu = %v must be positive", p.Lam+2*p.Mu)
	}
	return p, nil
}

// CalcLamFromEnu returns λ given E and ν.
func CalcLamFromEnu(E, nu float64) float64 {
	return E * nu / ((1.0 + nu) * (1.0 - 2.0*nu))
}

// CalcMuFromEnu returns μ given E and ν. NOTE: μ == G, the shear modulus.
func CalcMuFromEnu(E, nu float64) float64 {
	return E / (2.0 * (1.0 + nu))
}

// PVelocity returns the bulk P-wave velocity √((λ+2μ)/ρ).
func (p Params) PVelocity(rho float64) float64 {
	return math.Sqrt((p.Lam + 2*p.Mu) / rho)
}

// SVelocity returns the Poisson-solid closure Vs = Vp/√3 for the given ρ.
func (p Params) SVelocity(rho float64) float64 {
	return p.PVelocity(rho) / math.Sqrt(3)
}

// Plan is the output of the stability planner: the derived Lamé
// parameters, the CFL-safe time step and the expected pre-arrival
// iteration count.
type Plan struct {
	Params
	Dt                   float64 // chosen time step, seconds
	VpMax                float64 // max P-velocity bound used to size Dt
	ExpectedPreTouchSteps float64
}

// Compute derives (λ, μ, dt, expected_pre_touch_steps) from Young's
// modulus E (MPa), Poisson's ratio ν, voxel pitch h, minimum active
// density ρ_min and source centre frequency f0 (Hz).
func Compute(eMPa, nu, h, rhoMin, f0, txRxDistance float64) (Plan, error) {
	if rhoMin <= 0 {
		return Plan{}, simerr.New(simerr.InvalidParameters, "minimum density must be positive, got %v", rhoMin)
	}
	if f0 <= 0 {
		return Plan{}, simerr.New(simerr.InvalidParameters, "source frequency must be positive, got %v", f0)
	}
	params, err := FromYoungPoisson(eMPa*1e6, nu)
	if err != nil {
		return Plan{}, err
	}
	vpMax := params.PVelocity(rhoMin)
	dtCFL := cflCoefficient * h / vpMax
	dtFreq := 1.0 / (float64(minSamplesPerPeriod) * f0)
	dt := utl.Min(dtCFL, dtFreq)
	expected := txRxDistance / (dt * vpMax)
	return Plan{Params: params, Dt: dt, VpMax: vpMax, ExpectedPreTouchSteps: expected}, nil
}
