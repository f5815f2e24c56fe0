// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/mattemangia/acousticsim/simerr"
	"github.com/mattemangia/acousticsim/solver"
)

// frameFileName is the relative file name for a given step.
func frameFileName(step int) string {
	return fmt.Sprintf("frame_%08d.dat", step)
}

// writeFrameFile persists one FrameData as a FRAME-tagged file: header,
// three 3-D f32 blocks, two 2-D f32 blocks, four f32 scalars, two
// length-prefixed f32 series.
func writeFrameFile(path string, f solver.FrameData) error {
	file, err := os.Create(path)
	if err != nil {
		return simerr.New(simerr.IoFailure, "create frame file %q: %v", path, err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := writeMagic(bw, frameMagic); err != nil {
		return simerr.New(simerr.IoFailure, "write frame magic: %v", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, formatVersion); err != nil {
		return simerr.New(simerr.IoFailure, "write frame version: %v", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(f.Step)); err != nil {
		return simerr.New(simerr.IoFailure, "write frame step: %v", err)
	}
	for _, block := range [][]float32{f.Vx, f.Vy, f.Vz} {
		if err := write3D(bw, block); err != nil {
			return simerr.New(simerr.IoFailure, "write frame 3d block: %v", err)
		}
	}
	for _, block := range [][]float32{f.TomoSlice, f.CrossSection} {
		if err := write3D(bw, block); err != nil {
			return simerr.New(simerr.IoFailure, "write frame 2d block: %v", err)
		}
	}
	for _, v := range []float32{f.PValue, f.SValue, f.ProgressP, f.ProgressS} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write frame scalar: %v", err)
		}
	}
	for _, series := range [][]float32{f.PTrace, f.STrace} {
		if err := writeSeries(bw, series); err != nil {
			return simerr.New(simerr.IoFailure, "write frame series: %v", err)
		}
	}
	return bw.Flush()
}

// readFrameFile decodes one FRAME-tagged file. W, H, D size the 3-D and
// 2-D blocks.
func readFrameFile(path string, W, H, D int) (solver.FrameData, error) {
	file, err := os.Open(path)
	if err != nil {
		return solver.FrameData{}, simerr.New(simerr.IoFailure, "open frame file %q: %v", path, err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	ok, err := readMagic(br, frameMagic)
	if err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame magic %q: %v", path, err)
	}
	if !ok {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "frame file %q has wrong magic tag", path)
	}
	var version, step uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame version %q: %v", path, err)
	}
	if err := binary.Read(br, binary.LittleEndian, &step); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame step %q: %v", path, err)
	}

	n3d := W * H * D
	n2d := W * H
	var f solver.FrameData
	f.Step = int(step)
	if f.Vx, err = read3D(br, n3d); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame vx %q: %v", path, err)
	}
	if f.Vy, err = read3D(br, n3d); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame vy %q: %v", path, err)
	}
	if f.Vz, err = read3D(br, n3d); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame vz %q: %v", path, err)
	}
	if f.TomoSlice, err = read3D(br, n2d); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame tomo slice %q: %v", path, err)
	}
	if f.CrossSection, err = read3D(br, n2d); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame cross section %q: %v", path, err)
	}
	scalars := make([]*float32, 4)
	scalars[0], scalars[1], scalars[2], scalars[3] = &f.PValue, &f.SValue, &f.ProgressP, &f.ProgressS
	for _, s := range scalars {
		if err := binary.Read(br, binary.LittleEndian, s); err != nil {
			return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame scalar %q: %v", path, err)
		}
	}
	if f.PTrace, err = readSeries(br); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame p trace %q: %v", path, err)
	}
	if f.STrace, err = readSeries(br); err != nil {
		return solver.FrameData{}, simerr.New(simerr.Corrupted, "read frame s trace %q: %v", path, err)
	}
	return f, nil
}
