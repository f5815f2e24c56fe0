// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/io"
	"github.com/mattemangia/acousticsim/simerr"
)

// VolumeData is the JSON-facing description of the voxel volume; it is
// decoded then turned into a Volume by Config.BuildVolume.
type VolumeData struct {
	W        int       `json:"w"`        // grid width in voxels
	H        int       `json:"h"`        // grid height in voxels
	D        int       `json:"d"`        // grid depth in voxels
	Pitch    float64   `json:"pitch"`    // voxel pitch, metres
	Labels   []uint8   `json:"labels"`   // flat label grid; empty means caller fills it in code
	Density  []float32 `json:"density"`  // flat density grid; empty means caller fills it in code
	Selected uint8     `json:"selected"` // active material id
}

// TransducerData describes the transmitter/receiver placement.
type TransducerData struct {
	Axis     string `json:"axis"`     // "x", "y" or "z"
	WaveType string `json:"wavetype"` // "p", "s" or "both"
	Override bool   `json:"override"` // true to use TX/RX instead of the default placement
	TX       [3]int `json:"tx"`
	RX       [3]int `json:"rx"`
}

// MechanicalData carries the elastic parameters plus the inelastic
// fields reserved for future extensions; the elastic core reads only
// YoungMPa, Poisson and the volume's density.
type MechanicalData struct {
	YoungMPa          float64 `json:"young_mpa"`          // Young's modulus, MPa
	Poisson           float64 `json:"poisson"`            // Poisson's ratio
	ConfiningPressure float64 `json:"confining_pressure"` // reserved, pass-through only
	TensileStrength   float64 `json:"tensile_strength"`   // reserved, pass-through only
	FailureAngle      float64 `json:"failure_angle"`      // reserved, pass-through only
	Cohesion          float64 `json:"cohesion"`            // reserved, pass-through only
}

// SourceData carries the Ricker source wavelet parameters.
type SourceData struct {
	EnergyJ   float64 `json:"energy_j"`   // source energy, joules
	FreqKHz   float64 `json:"freq_khz"`   // centre frequency, kHz
	Amplitude int     `json:"amplitude"`  // integer amplitude scale
	MaxSteps  int     `json:"max_steps"`  // hard step cap
}

// ControlData tunes the auto-stop controller and post-touch behaviour.
type ControlData struct {
	AutoStopEnabled  bool    `json:"autostop_enabled"`
	CheckInterval    int     `json:"check_interval"`
	MinRequiredSteps int     `json:"min_required_steps"`
	ThresholdRatio   float64 `json:"threshold_ratio"`
	MaxPostSteps     int     `json:"max_post_steps"`
}

// Config is the top-level JSON document describing one simulation, in
// the same nested-sections style as the teacher's inp.Simulation.
type Config struct {
	Volume      VolumeData      `json:"volume"`
	Transducer  TransducerData  `json:"transducer"`
	Mechanical  MechanicalData  `json:"mechanical"`
	Source      SourceData      `json:"source"`
	Control     ControlData     `json:"control"`
	CacheRoot   string          `json:"cache_root"` // overrides the default app-data cache directory

	// derived
	Key    string `json:"-"`
	DirOut string `json:"-"`
}

// SetDefault fills zero-valued optional fields with the spec's defaults,
// mirroring SolverData.SetDefault in the teacher.
func (c *ControlData) SetDefault() {
	if c.CheckInterval == 0 {
		c.CheckInterval = 5
	}
	if c.ThresholdRatio == 0 {
		c.ThresholdRatio = 0.01
	}
}

// LoadConfig reads and decodes a simulation JSON file, mirroring
// inp.ReadSim: read the file, set defaults, unmarshal, then derive the
// key/output directory from the file path.
func LoadConfig(path string) (*Config, error) {
	b, err := io.ReadFile(path)
	if err != nil {
		return nil, simerr.New(simerr.IoFailure, "cannot read config file %q: %v", path, err)
	}
	var c Config
	c.Control.SetDefault()
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, simerr.New(simerr.Corrupted, "cannot unmarshal config file %q: %v", path, err)
	}
	dir := filepath.Dir(path)
	fn := filepath.Base(path)
	c.Key = io.FnKey(fn)
	c.DirOut = os.ExpandEnv(dir)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the ranges of Young's modulus, Poisson's ratio, source
// frequency and max_steps. Transducer bounds are checked by BuildVolume.
func (c *Config) Validate() error {
	if c.Mechanical.YoungMPa <= 0 {
		return simerr.New(simerr.InvalidParameters, "Young's modulus must be positive, got %v MPa", c.Mechanical.YoungMPa)
	}
	if c.Mechanical.Poisson <= 0 || c.Mechanical.Poisson >= 0.5 {
		return simerr.New(simerr.InvalidParameters, "Poisson's ratio must be in (0, 0.5), got %v", c.Mechanical.Poisson)
	}
	if c.Source.FreqKHz <= 0 {
		return simerr.New(simerr.InvalidParameters, "source centre frequency must be positive, got %v kHz", c.Source.FreqKHz)
	}
	if c.Source.MaxSteps <= 0 {
		return simerr.New(simerr.InvalidParameters, "max_steps must be positive, got %v", c.Source.MaxSteps)
	}
	return nil
}

// ParsedAxis parses the transducer axis tag, defaulting to AxisZ.
func (t TransducerData) ParsedAxis() Axis {
	switch t.Axis {
	case "x", "X":
		return AxisX
	case "y", "Y":
		return AxisY
	default:
		return AxisZ
	}
}

// ParsedWaveType parses the wavetype tag, defaulting to WaveBoth.
func (t TransducerData) ParsedWaveType() WaveType {
	switch t.WaveType {
	case "p", "P":
		return WaveP
	case "s", "S":
		return WaveS
	default:
		return WaveBoth
	}
}

// BuildVolume turns the VolumeData section into a Volume, applying the
// default or overridden transducer placement.
func (c *Config) BuildVolume() (*Volume, error) {
	if len(c.Volume.Labels) != c.Volume.W*c.Volume.H*c.Volume.D {
		return nil, simerr.New(simerr.DimensionMismatch, "label grid length %d does not match dims %dx%dx%d", len(c.Volume.Labels), c.Volume.W, c.Volume.H, c.Volume.D)
	}
	if len(c.Volume.Density) != len(c.Volume.Labels) {
		return nil, simerr.New(simerr.DimensionMismatch, "density grid length %d does not match label grid length %d", len(c.Volume.Density), len(c.Volume.Labels))
	}
	v, err := NewVolume(c.Volume.W, c.Volume.H, c.Volume.D, c.Volume.Pitch)
	if err != nil {
		return nil, err
	}
	copy(v.Labels, c.Volume.Labels)
	copy(v.Density, c.Volume.Density)
	v.Selected = c.Volume.Selected
	if c.Transducer.Override {
		v.TX, v.RX = c.Transducer.TX, c.Transducer.RX
	} else {
		v.DefaultTransducers(c.Transducer.ParsedAxis())
	}
	if err := v.ValidateTransducers(); err != nil {
		return nil, err
	}
	return v, nil
}

// DefaultCacheRoot returns the user-local app-data cache directory used
// when Config.CacheRoot is empty.
func DefaultCacheRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", simerr.New(simerr.IoFailure, "cannot resolve user cache directory: %v", err)
	}
	return filepath.Join(base, "AcousticSimulator", "SimulationCache"), nil
}

// ResolveCacheRoot returns Config.CacheRoot if set, else DefaultCacheRoot.
func (c *Config) ResolveCacheRoot() (string, error) {
	if c.CacheRoot != "" {
		return c.CacheRoot, nil
	}
	return DefaultCacheRoot()
}
