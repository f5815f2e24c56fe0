// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import "testing"

func validConfig() Config {
	var c Config
	c.Volume = VolumeData{
		W: 3, H: 3, D: 3, Pitch: 0.001,
		Labels:  make([]uint8, 27),
		Density: make([]float32, 27),
	}
	c.Mechanical = MechanicalData{YoungMPa: 70e3, Poisson: 0.25}
	c.Source = SourceData{EnergyJ: 1, FreqKHz: 100, Amplitude: 1, MaxSteps: 1000}
	c.Control.SetDefault()
	return c
}

func TestControlDataSetDefault(t *testing.T) {
	var ctl ControlData
	ctl.SetDefault()
	if ctl.CheckInterval != 5 {
		t.Errorf("CheckInterval = %d, want 5", ctl.CheckInterval)
	}
	if ctl.ThresholdRatio != 0.01 {
		t.Errorf("ThresholdRatio = %v, want 0.01", ctl.ThresholdRatio)
	}
	// non-zero values must survive SetDefault untouched.
	ctl2 := ControlData{CheckInterval: 9, ThresholdRatio: 0.2}
	ctl2.SetDefault()
	if ctl2.CheckInterval != 9 || ctl2.ThresholdRatio != 0.2 {
		t.Errorf("SetDefault overwrote explicit values: %+v", ctl2)
	}
}

func TestConfigValidateAcceptsGoodConfig(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigValidateRejectsBadRanges(t *testing.T) {
	base := validConfig()

	bad := base
	bad.Mechanical.YoungMPa = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero Young's modulus")
	}

	bad = base
	bad.Mechanical.Poisson = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for Poisson ratio == 0.5")
	}

	bad = base
	bad.Source.FreqKHz = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero source frequency")
	}

	bad = base
	bad.Source.MaxSteps = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero max_steps")
	}
}

func TestParsedAxisAndWaveType(t *testing.T) {
	cases := []struct {
		axis string
		want Axis
	}{
		{"x", AxisX}, {"X", AxisX},
		{"y", AxisY}, {"Y", AxisY},
		{"z", AxisZ}, {"", AxisZ}, {"bogus", AxisZ},
	}
	for _, c := range cases {
		td := TransducerData{Axis: c.axis}
		if got := td.ParsedAxis(); got != c.want {
			t.Errorf("ParsedAxis(%q) = %v, want %v", c.axis, got, c.want)
		}
	}

	wtCases := []struct {
		wt   string
		want WaveType
	}{
		{"p", WaveP}, {"P", WaveP},
		{"s", WaveS}, {"S", WaveS},
		{"both", WaveBoth}, {"", WaveBoth},
	}
	for _, c := range wtCases {
		td := TransducerData{WaveType: c.wt}
		if got := td.ParsedWaveType(); got != c.want {
			t.Errorf("ParsedWaveType(%q) = %v, want %v", c.wt, got, c.want)
		}
	}
}

func TestBuildVolumeRejectsDimensionMismatch(t *testing.T) {
	c := validConfig()
	c.Volume.Labels = make([]uint8, 10) // wrong length for 3x3x3
	if _, err := c.BuildVolume(); err == nil {
		t.Error("expected error for mismatched label grid length")
	}

	c2 := validConfig()
	c2.Volume.Density = make([]float32, 5)
	if _, err := c2.BuildVolume(); err == nil {
		t.Error("expected error for mismatched density grid length")
	}
}

func TestBuildVolumeDefaultPlacement(t *testing.T) {
	c := validConfig()
	c.Transducer.Axis = "z"
	v, err := c.BuildVolume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TX[2] != 0 || v.RX[2] != v.D-1 {
		t.Fatalf("default placement wrong: TX=%v RX=%v", v.TX, v.RX)
	}
}

func TestBuildVolumeOverridePlacement(t *testing.T) {
	c := validConfig()
	c.Transducer.Override = true
	c.Transducer.TX = [3]int{0, 0, 0}
	c.Transducer.RX = [3]int{2, 2, 2}
	v, err := c.BuildVolume()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TX != [3]int{0, 0, 0} || v.RX != [3]int{2, 2, 2} {
		t.Fatalf("override placement not applied: TX=%v RX=%v", v.TX, v.RX)
	}
}

func TestBuildVolumeRejectsOutOfBoundsOverride(t *testing.T) {
	c := validConfig()
	c.Transducer.Override = true
	c.Transducer.TX = [3]int{0, 0, 0}
	c.Transducer.RX = [3]int{99, 99, 99}
	if _, err := c.BuildVolume(); err == nil {
		t.Error("expected error for out-of-bounds override RX")
	}
}

func TestResolveCacheRootHonoursOverride(t *testing.T) {
	c := validConfig()
	c.CacheRoot = "/tmp/my-cache"
	got, err := c.ResolveCacheRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/tmp/my-cache" {
		t.Errorf("ResolveCacheRoot() = %q, want %q", got, "/tmp/my-cache")
	}
}
