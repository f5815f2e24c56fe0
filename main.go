// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/mattemangia/acousticsim/cache"
	"github.com/mattemangia/acousticsim/inp"
	"github.com/mattemangia/acousticsim/mdl/elastic"
	"github.com/mattemangia/acousticsim/persist"
	"github.com/mattemangia/acousticsim/solver"
	"github.com/mattemangia/acousticsim/wavelet"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	io.PfWhite("\nAcousticSim -- elastic wave propagation simulator\n\n")

	if len(os.Args) < 2 {
		chk.Panic("please provide a subcommand: run, replay or inspect")
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "replay":
		cmdReplay(os.Args[2:])
	case "inspect":
		cmdInspect(os.Args[2:])
	default:
		chk.Panic("unknown subcommand %q; use run, replay or inspect", os.Args[1])
	}
}

// cmdRun loads a simulation config, runs the solver end to end and
// prints the Completed summary.
func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cacheOn := fs.Bool("cache", false, "persist frames to the frame cache")
	outPath := fs.String("out", "", "write the persisted result to this file")
	fs.Parse(args)
	if fs.NArg() < 1 {
		chk.Panic("usage: acousticsim run [-cache] [-out FILE] CONFIG.json")
	}

	cfg, err := inp.LoadConfig(fs.Arg(0))
	if err != nil {
		chk.Panic("%v", err)
	}

	vol, err := cfg.BuildVolume()
	if err != nil {
		chk.Panic("%v", err)
	}

	rhoMin, err := vol.MinActiveDensity()
	if err != nil {
		chk.Panic("%v", err)
	}

	plan, err := elastic.Compute(cfg.Mechanical.YoungMPa, cfg.Mechanical.Poisson, vol.Pitch, rhoMin, cfg.Source.FreqKHz*1e3, vol.TXRXDistance())
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pf("> dt = %v s, expected pre-touch steps = %v\n", plan.Dt, plan.ExpectedPreTouchSteps)

	rick, err := wavelet.NewRicker(float64(cfg.Source.Amplitude), cfg.Source.EnergyJ, cfg.Source.FreqKHz*1e3, plan.Dt)
	if err != nil {
		chk.Panic("%v", err)
	}

	autoStop := solver.NewAutoStop(cfg.Control.CheckInterval, cfg.Control.MinRequiredSteps, cfg.Control.ThresholdRatio, cfg.Source.MaxSteps)
	sv, err := solver.New(vol, plan.Params, plan.Dt, rick, cfg.Source.MaxSteps, cfg.Control.MaxPostSteps, autoStop, plan.ExpectedPreTouchSteps)
	if err != nil {
		chk.Panic("%v", err)
	}
	sv.AutoStopEnabled = cfg.Control.AutoStopEnabled

	var writer *cache.Writer
	if *cacheOn {
		root, err := cfg.ResolveCacheRoot()
		if err != nil {
			chk.Panic("%v", err)
		}
		dir := root + string(os.PathSeparator) + cfg.Key
		writer, err = cache.NewWriter(dir, vol.W, vol.H, vol.D)
		if err != nil {
			chk.Panic("%v", err)
		}
		sv.Recorder = writer
		io.Pf("> frame cache: %s\n", dir)
	}

	sub := sv.Bus.Subscribe()
	go func() {
		for ev := range sub {
			io.Pf(">> step %d, %d%%: %s\n", ev.Step, ev.Percent, ev.Message)
		}
	}()

	result, err := sv.Run(context.Background())
	if writer != nil {
		if cerr := writer.Close(); cerr != nil {
			io.Pfred("warning: cache close failed: %v\n", cerr)
		}
	}
	if err != nil {
		chk.Panic("%v", err)
	}

	io.PfGreen("> Success\n")
	io.Pf("Vp=%.4f Vs=%.4f Vp/Vs=%.4f step_touch=%d step_s=%d total_steps=%d dropped_frames=%d\n",
		result.Vp, result.Vs, result.VpVs, result.StepFirstTouch, result.StepSEstimate, result.TotalSteps, result.DroppedFrames)

	if *outPath != "" {
		err := persist.Save(*outPath, persist.Result{
			W: vol.W, H: vol.H, D: vol.D,
			Vp: result.Vp, Vs: result.Vs, VpVs: result.VpVs,
			StepFirstTouch: result.StepFirstTouch, StepSEstimate: result.StepSEstimate,
			TX: vol.TX, RX: vol.RX,
			Vx: sv.Fields.Vx, Vy: sv.Fields.Vy, Vz: sv.Fields.Vz,
		})
		if err != nil {
			chk.Panic("%v", err)
		}
		io.Pf("> result saved to %s\n", *outPath)
	}
}

// cmdReplay opens a frame cache directory and prints per-frame metadata.
func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		chk.Panic("usage: acousticsim replay CACHE_DIR")
	}
	r, err := cache.OpenReader(fs.Arg(0))
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pf("> %d frames recorded\n", r.FrameCount())
	r.Playback(func(step int, f solver.FrameData) {
		fmt.Printf("step=%d p=%.6g s=%.6g progressP=%.3f progressS=%.3f\n", step, f.PValue, f.SValue, f.ProgressP, f.ProgressS)
	})
}

// cmdInspect loads a persisted result file and prints Vp/Vs/ratio.
func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		chk.Panic("usage: acousticsim inspect RESULT_FILE")
	}
	r, err := persist.Load(fs.Arg(0), 0, 0, 0)
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pf("Vp=%.4f Vs=%.4f Vp/Vs=%.4f step_touch=%d step_s=%d dims=%dx%dx%d\n",
		r.Vp, r.Vs, r.VpVs, r.StepFirstTouch, r.StepSEstimate, r.W, r.H, r.D)
}
