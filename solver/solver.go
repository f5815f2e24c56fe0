// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"context"
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/mattemangia/acousticsim/inp"
	"github.com/mattemangia/acousticsim/mdl/elastic"
	"github.com/mattemangia/acousticsim/simerr"
	"github.com/mattemangia/acousticsim/wavelet"
)

// progressEveryNSteps is the cadence at which the solver publishes
// progress events, per the spec's progress/snapshot bus.
const progressEveryNSteps = 10

// receiverTouchThreshold is the magnitude above which a receiver
// velocity component counts as "touched" by the wave.
const receiverTouchThreshold = 1e-6

// Result is the final outcome of a run: measured (or analytically
// inferred) Vp/Vs, the touch-time step counts and the total executed
// steps, plus bookkeeping the caller may want to report. StepSEstimate
// is an estimate, StepFirstTouch * Vp/Vs, not a measured shear arrival.
type Result struct {
	Vp, Vs, VpVs       float64
	StepFirstTouch     int
	StepSEstimate      int
	TotalSteps         int
	Cancelled          bool
	DroppedFrames      int
	ReceiverWasTouched bool
}

// Solver owns the nine field arrays and runs the explicit staggered
// stencil update loop against a Volume and an elastic.Params, injecting
// a Ricker wavelet at TX and probing RX every step.
type Solver struct {
	Volume *inp.Volume
	Params elastic.Params
	Dt     float64
	Fields *Fields

	Wavelet *wavelet.Ricker

	MaxSteps         int
	MaxPostSteps     int
	AutoStopEnabled  bool
	AutoStop         *AutoStop
	ExpectedPreTouch float64

	Bus *Bus

	// Recorder, when non-nil, receives a FrameData every PersistEvery
	// steps. A dropped frame (simerr QueueFull) is counted, not fatal.
	Recorder    Recorder
	PersistEvery int

	pTrace []float32
	sTrace []float32
}

// New builds a Solver ready to Run. maxPostSteps defaults to maxSteps/4
// when zero, matching the spirit of the teacher's SetDefault idiom.
func New(vol *inp.Volume, params elastic.Params, dt float64, rick *wavelet.Ricker, maxSteps, maxPostSteps int, autoStop *AutoStop, expectedPreTouch float64) (*Solver, error) {
	if vol == nil {
		return nil, simerr.New(simerr.InvalidParameters, "volume must not be nil")
	}
	if dt <= 0 {
		return nil, simerr.New(simerr.InvalidParameters, "time step must be positive, got %v", dt)
	}
	if maxSteps <= 0 {
		return nil, simerr.New(simerr.InvalidParameters, "max_steps must be positive, got %v", maxSteps)
	}
	if maxPostSteps <= 0 {
		maxPostSteps = maxSteps / 4
		if maxPostSteps < 10 {
			maxPostSteps = 10
		}
	}
	if autoStop == nil {
		autoStop = NewAutoStop(0, 0, 0, maxSteps)
	}
	s := &Solver{
		Volume:           vol,
		Params:           params,
		Dt:               dt,
		Fields:           NewFields(vol.W, vol.H, vol.D),
		Wavelet:          rick,
		MaxSteps:         maxSteps,
		MaxPostSteps:     maxPostSteps,
		AutoStopEnabled:  true,
		AutoStop:         autoStop,
		ExpectedPreTouch: expectedPreTouch,
		Bus:              NewBus(),
		PersistEvery:     1,
	}
	return s, nil
}

// active reports whether (x,y,z) carries the solver's selected material id.
func (s *Solver) active(x, y, z int) bool {
	return s.Volume.Active(x, y, z)
}

// rho returns the density at (x,y,z).
func (s *Solver) rho(x, y, z int) float64 {
	return float64(s.Volume.Density[s.Volume.At(x, y, z)])
}

// Run executes the time loop until auto-stop fires, the receiver
// times out, or ctx is cancelled between steps. Cancellation is
// cooperative: the in-flight step always completes before Run checks
// ctx.Err(), and a terminal progress event is always published.
func (s *Solver) Run(ctx context.Context) (Result, error) {
	s.Fields.Reset()
	s.pTrace, s.sTrace = nil, nil

	tx, rx := s.Volume.TX, s.Volume.RX
	rxIdx := s.Volume.At(rx[0], rx[1], rx[2])
	txIdx := s.Volume.At(tx[0], tx[1], tx[2])

	touched := false
	stepTouch := 0
	postTouch := 0
	cancelled := false
	droppedFrames := 0

	step := 0
	for {
		stressPass(s.Fields, s.active, s.Volume.Pitch, s.Dt, s.Params.Lam, s.Params.Mu)
		velocityPass(s.Fields, s.active, s.Volume.Pitch, s.Dt, s.rho)

		if s.Wavelet != nil && step < s.Wavelet.Len() {
			s.Fields.Sxx[txIdx] += s.Wavelet.At(step)
		}

		vxr, vyr, vzr := s.Fields.Vx[rxIdx], s.Fields.Vy[rxIdx], s.Fields.Vz[rxIdx]
		if !touched && (math.Abs(vxr) > receiverTouchThreshold || math.Abs(vyr) > receiverTouchThreshold || math.Abs(vzr) > receiverTouchThreshold) {
			touched = true
			stepTouch = step
		}
		if touched {
			postTouch = step - stepTouch
		}

		s.pTrace = append(s.pTrace, float32(vxr))
		s.sTrace = append(s.sTrace, float32(la.VecNorm([]float64{vyr, vzr})))

		if step%progressEveryNSteps == 0 {
			pct := Percent(s.AutoStop.Peaked(), touched, step, s.MaxSteps, postTouch, s.MaxPostSteps, s.ExpectedPreTouch)
			s.publishProgress(pct, step, "running")
		}

		autoStopFires := false
		if s.AutoStopEnabled && s.AutoStop.ShouldEvaluate(step) {
			sxx, syy, szz := s.Fields.Sxx[rxIdx], s.Fields.Syy[rxIdx], s.Fields.Szz[rxIdx]
			sxy, sxz, syz := s.Fields.Sxy[rxIdx], s.Fields.Sxz[rxIdx], s.Fields.Syz[rxIdx]
			e := Energy(s.rho(rx[0], rx[1], rx[2]), s.Params.Mu, vxr, vyr, vzr, sxx, syy, szz, sxy, sxz, syz)
			autoStopFires = s.AutoStop.Update(e)
		}

		if s.Recorder != nil && s.PersistEvery > 0 && step%s.PersistEvery == 0 {
			if err := s.Recorder.WriteFrame(s.buildFrame(step)); err != nil {
				if simerr.Is(err, simerr.QueueFull) {
					droppedFrames++
				} else {
					return Result{}, err
				}
			}
		}

		stop := autoStopFires
		if !touched && step >= s.MaxSteps-1 {
			stop = true
		}
		if touched && postTouch >= s.MaxPostSteps {
			stop = true
		}

		step++

		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}

		if stop || cancelled || step >= s.MaxSteps*4 {
			break
		}
	}

	s.publishProgress(99, step, "finalising")
	s.Bus.Close()

	result, err := s.finalise(step, touched, stepTouch)
	if err != nil {
		return Result{}, err
	}
	result.Cancelled = cancelled
	result.DroppedFrames = droppedFrames
	result.ReceiverWasTouched = touched
	return result, nil
}

// finalise computes Vp/Vs either from the measured touch time or, when
// the receiver was never touched, from the analytic fallback
// Vp = sqrt((lambda+2mu)/rho_mean), with step_touch estimated
// analytically as dist/(Vp*dt).
func (s *Solver) finalise(totalSteps int, touched bool, stepTouch int) (Result, error) {
	dist := s.Volume.TXRXDistance()
	var vp float64
	if touched && stepTouch > 0 {
		vp = dist / (float64(stepTouch) * s.Dt)
	} else {
		rhoMean, err := s.Volume.MeanActiveDensity()
		if err != nil {
			return Result{}, err
		}
		vp = s.Params.PVelocity(rhoMean)
		if touched {
			// touched on step 0: degenerate but not an error; vp is the analytic value and stepTouch stays 0.
		} else {
			stepTouch = int(dist / (vp * s.Dt))
		}
	}
	vs := vp / math.Sqrt(3)
	vpVs := vp / vs
	stepSEstimate := int(float64(stepTouch) * vpVs)
	return Result{
		Vp: vp, Vs: vs, VpVs: vpVs,
		StepFirstTouch: stepTouch,
		StepSEstimate:  stepSEstimate,
		TotalSteps:     totalSteps,
	}, nil
}

// publishProgress builds and publishes a progress Event with f32 copies
// of the current velocity fields.
func (s *Solver) publishProgress(pct uint8, step int, msg string) {
	vx, vy := s.Fields.CopyVelocities()
	s.Bus.Publish(Event{Percent: pct, Step: uint32(step), Message: msg, Vx: vx, Vy: vy})
}

// buildFrame snapshots the current fields plus receiver metadata for the
// frame cache.
func (s *Solver) buildFrame(step int) FrameData {
	vx, vy := s.Fields.CopyVelocities()
	vz := make([]float32, len(s.Fields.Vz))
	for i := range s.Fields.Vz {
		vz[i] = float32(s.Fields.Vz[i])
	}
	rx := s.Volume.RX
	rxIdx := s.Volume.At(rx[0], rx[1], rx[2])
	pValue := float32(s.Fields.Vx[rxIdx])
	sValue := float32(la.VecNorm([]float64{s.Fields.Vy[rxIdx], s.Fields.Vz[rxIdx]}))

	progressP := float32(0)
	progressS := float32(0)
	if s.ExpectedPreTouch > 0 {
		progressP = float32(math.Min(1, float64(step)/s.ExpectedPreTouch))
		progressS = progressP
	}

	cross := crossSection(s.Fields, s.Volume)

	pTrace := make([]float32, len(s.pTrace))
	copy(pTrace, s.pTrace)
	sTrace := make([]float32, len(s.sTrace))
	copy(sTrace, s.sTrace)

	return FrameData{
		Step: step,
		Vx: vx, Vy: vy, Vz: vz,
		TomoSlice:    make([]float32, s.Volume.W*s.Volume.H),
		CrossSection: cross,
		PValue:       pValue,
		SValue:       sValue,
		ProgressP:    progressP,
		ProgressS:    progressS,
		PTrace:       pTrace,
		STrace:       sTrace,
	}
}

// crossSection extracts a W x H magnitude slice at the z mid-plane
// (z = D/2), used by the frame cache for quick playback. The plane
// contains TX and RX only when both lie at z = D/2, as with the default
// X- and Y-axis placements; it does not for the Z-axis placement.
func crossSection(f *Fields, vol *inp.Volume) []float32 {
	z := vol.D / 2
	out := make([]float32, vol.W*vol.H)
	for y := 0; y < vol.H; y++ {
		for x := 0; x < vol.W; x++ {
			i := f.idx(x, y, z)
			vx, vy, vz := f.Vx[i], f.Vy[i], f.Vz[i]
			out[y*vol.W+x] = float32(math.Sqrt(vx*vx + vy*vy + vz*vz))
		}
	}
	return out
}
