// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package wavelet builds the finite Ricker-like source excitation
// injected into the solver during the first L steps of a run.
package wavelet

import (
	"math"

	"github.com/mattemangia/acousticsim/simerr"
)

// Ricker is a finite Ricker wavelet sampled at the solver's time step.
// It exposes F(t, x) in the same calling shape as the teacher's
// fun.Func-driven boundary condition functions, so it can be injected
// anywhere a time-dependent scalar source is expected.
type Ricker struct {
	Amplitude float64   // A = amplitude * sqrt(energy)
	Freq0     float64   // centre frequency, Hz
	Dt        float64   // solver time step, seconds
	T0        float64   // pulse centre time, seconds
	Samples   []float64 // precomputed w[i] for i in [0, L)
}

// NewRicker builds the finite wavelet of length L = max(100, ceil(10/(f0*dt))),
// centred at t0 = 1.5/f0, with amplitude A = amplitude * sqrt(energy).
func NewRicker(amplitude, energyJ, freq0Hz, dt float64) (*Ricker, error) {
	if freq0Hz <= 0 {
		return nil, simerr.New(simerr.InvalidParameters, "source frequency must be positive, got %v", freq0Hz)
	}
	if dt <= 0 {
		return nil, simerr.New(simerr.InvalidParameters, "time step must be positive, got %v", dt)
	}
	if energyJ < 0 {
		return nil, simerr.New(simerr.InvalidParameters, "source energy must be non-negative, got %v", energyJ)
	}
	L := int(math.Ceil(10.0 / (freq0Hz * dt)))
	if L < 100 {
		L = 100
	}
	r := &Ricker{
		Amplitude: amplitude * math.Sqrt(energyJ),
		Freq0:     freq0Hz,
		Dt:        dt,
		T0:        1.5 / freq0Hz,
		Samples:   make([]float64, L),
	}
	for i := 0; i < L; i++ {
		r.Samples[i] = r.sample(i)
	}
	return r, nil
}

// sample evaluates w[i] = A * (1 - 2a^2) * e^(-a^2), a = pi*f0*(i*dt - t0).
func (r *Ricker) sample(i int) float64 {
	t := float64(i)*r.Dt - r.T0
	a := math.Pi * r.Freq0 * t
	a2 := a * a
	return r.Amplitude * (1 - 2*a2) * math.Exp(-a2)
}

// Len returns the number of steps during which the wavelet injects.
func (r *Ricker) Len() int {
	return len(r.Samples)
}

// At returns w[step], or 0 once the wavelet has been fully injected.
func (r *Ricker) At(step int) float64 {
	if step < 0 || step >= len(r.Samples) {
		return 0
	}
	return r.Samples[step]
}

// F evaluates the wavelet as a function of continuous time t, in the
// same calling convention as the teacher's fun.Func boundary conditions
// (the second argument is unused spatial context, kept for shape parity).
func (r *Ricker) F(t float64, x []float64) float64 {
	a := math.Pi * r.Freq0 * (t - r.T0)
	a2 := a * a
	return r.Amplitude * (1 - 2*a2) * math.Exp(-a2)
}
