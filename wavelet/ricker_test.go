// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wavelet

import (
	"math"
	"testing"
)

func TestNewRickerRejectsBadParameters(t *testing.T) {
	if _, err := NewRicker(1, 1, 0, 1e-6); err == nil {
		t.Error("expected error for zero frequency")
	}
	if _, err := NewRicker(1, 1, 100e3, 0); err == nil {
		t.Error("expected error for zero dt")
	}
	if _, err := NewRicker(1, -1, 100e3, 1e-6); err == nil {
		t.Error("expected error for negative energy")
	}
}

func TestNewRickerMinimumLength(t *testing.T) {
	// a very high frequency would compute L < 100; the floor must apply.
	r, err := NewRicker(1, 1, 1e9, 1e-9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() < 100 {
		t.Fatalf("Len() = %d, want >= 100", r.Len())
	}
}

func TestRickerPulseNeverExceedsAmplitude(t *testing.T) {
	r, err := NewRicker(1, 1, 100e3, 1e-7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the Ricker kernel (1-2a^2)e^(-a^2) attains its global extremum 1 at a=0,
	// so no sample should exceed the wavelet's Amplitude in magnitude.
	for i := 0; i < r.Len(); i++ {
		if math.Abs(r.At(i)) > math.Abs(r.Amplitude)+1e-9 {
			t.Fatalf("sample %d (%v) exceeds amplitude bound (%v)", i, r.At(i), r.Amplitude)
		}
	}
}

func TestRickerAtOutOfRangeIsZero(t *testing.T) {
	r, err := NewRicker(1, 1, 100e3, 1e-7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.At(-1) != 0 {
		t.Error("At(-1) should be 0")
	}
	if r.At(r.Len()) != 0 {
		t.Error("At(Len()) should be 0")
	}
}

func TestRickerFMatchesSampleAtGridTimes(t *testing.T) {
	r, err := NewRicker(1, 1, 100e3, 1e-7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, i := range []int{0, 10, 50} {
		t1 := float64(i) * r.Dt
		got := r.F(t1, nil)
		want := r.At(i)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("F(%v) = %v, want %v", t1, got, want)
		}
	}
}
