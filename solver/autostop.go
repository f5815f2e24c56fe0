// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import "math"

// AutoStop tracks the receiver-local kinetic + strain energy and
// signals termination once the energy has peaked and decayed below a
// ratio of its maximum.
type AutoStop struct {
	CheckInterval    int     // evaluate every N steps
	MinRequiredSteps int     // do not evaluate before this step
	ThresholdRatio   float64 // stop once energy < ratio * max_energy

	maxEnergy float64
	peaked    bool
}

// NewAutoStop builds a controller with the spec's defaults when the
// given values are zero: checkInterval=5, minRequiredSteps=max(50,maxSteps/10).
func NewAutoStop(checkInterval, minRequiredSteps int, thresholdRatio float64, maxSteps int) *AutoStop {
	if checkInterval <= 0 {
		checkInterval = 5
	}
	if minRequiredSteps <= 0 {
		minRequiredSteps = maxSteps / 10
		if minRequiredSteps < 50 {
			minRequiredSteps = 50
		}
	}
	if thresholdRatio <= 0 {
		thresholdRatio = 0.01
	}
	return &AutoStop{CheckInterval: checkInterval, MinRequiredSteps: minRequiredSteps, ThresholdRatio: thresholdRatio}
}

// Peaked reports whether the receiver energy has already peaked.
func (a *AutoStop) Peaked() bool {
	return a.peaked
}

// ShouldEvaluate reports whether step is a checkpoint at which energy
// should be sampled.
func (a *AutoStop) ShouldEvaluate(step int) bool {
	return step >= a.MinRequiredSteps && step%a.CheckInterval == 0
}

// Energy computes E_kin + E_str at the receiver from the raw field
// values there: E_kin = 1/2 rho (vx^2+vy^2+vz^2); E_str = (sxx^2+syy^2+
// szz^2 + 2(sxy^2+sxz^2+syz^2)) / (4 mu).
func Energy(rho, mu, vx, vy, vz, sxx, syy, szz, sxy, sxz, syz float64) float64 {
	eKin := 0.5 * rho * (vx*vx + vy*vy + vz*vz)
	eStr := (sxx*sxx + syy*syy + szz*szz + 2*(sxy*sxy+sxz*sxz+syz*syz)) / (4 * mu)
	return eKin + eStr
}

// Update feeds a new receiver-energy sample and reports whether the
// controller now signals stop.
func (a *AutoStop) Update(e float64) (stop bool) {
	a.maxEnergy = math.Max(a.maxEnergy, e)
	if a.maxEnergy <= 0 {
		return false
	}
	if !a.peaked && e < 0.5*a.maxEnergy {
		a.peaked = true
	}
	return a.peaked && e < a.ThresholdRatio*a.maxEnergy
}

// MaxEnergy returns the largest energy observed so far.
func (a *AutoStop) MaxEnergy() float64 {
	return a.maxEnergy
}
