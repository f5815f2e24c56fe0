// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package persist implements the compact binary serialisation of final
// solver results and sparse wave-field snapshots described by the spec:
// a little-endian "ACOUSTICSIM" file carrying the measured Vp/Vs, the
// travel-time step counts, the transducer coordinates, and the three
// velocity fields encoded as sparse (index, value) pairs.
package persist

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/mattemangia/acousticsim/simerr"
)

const magicWord = "ACOUSTICSIM"
const formatVersion = uint32(1)

// sparseThreshold is the retention cutoff below which a field value is
// dropped from the sparse encoding.
const sparseThreshold = 1e-10

// Result is the persisted subset of a solver run.
type Result struct {
	W, H, D        int
	Vp, Vs, VpVs   float64
	StepFirstTouch int
	StepSEstimate  int
	TX, RX         [3]int
	Vx, Vy, Vz     []float64 // full dense fields; only |v| > 1e-10 survive the round trip
}

// Save writes Result to path in the layout specified by the spec.
func Save(path string, r Result) error {
	f, err := os.Create(path)
	if err != nil {
		return simerr.New(simerr.IoFailure, "create result file %q: %v", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	if err := writeLengthPrefixedString(bw, magicWord); err != nil {
		return err
	}
	for _, v := range []uint32{formatVersion, uint32(r.W), uint32(r.H), uint32(r.D)} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write result header: %v", err)
		}
	}
	for _, v := range []float64{r.Vp, r.Vs, r.VpVs} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write result velocities: %v", err)
		}
	}
	for _, v := range []uint32{uint32(r.StepFirstTouch), uint32(r.StepSEstimate)} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write result step counts: %v", err)
		}
	}
	for _, v := range []int32{int32(r.TX[0]), int32(r.TX[1]), int32(r.TX[2]), int32(r.RX[0]), int32(r.RX[1]), int32(r.RX[2])} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write transducer coordinates: %v", err)
		}
	}
	for _, field := range [][]float64{r.Vx, r.Vy, r.Vz} {
		if err := writeSparseField(bw, field); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return simerr.New(simerr.IoFailure, "flush result file %q: %v", path, err)
	}
	return nil
}

// Load reads a result file, rejecting a dimension mismatch against
// (W, H, D) when those are non-zero.
func Load(path string, W, H, D int) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, simerr.New(simerr.IoFailure, "open result file %q: %v", path, err)
	}
	defer f.Close()
	br := bufio.NewReader(f)

	word, err := readLengthPrefixedString(br)
	if err != nil {
		return Result{}, simerr.New(simerr.Corrupted, "read result magic word: %v", err)
	}
	if word != magicWord {
		return Result{}, simerr.New(simerr.Corrupted, "result file %q has wrong magic word %q", path, word)
	}

	var version, w, h, d uint32
	for _, v := range []*uint32{&version, &w, &h, &d} {
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return Result{}, simerr.New(simerr.Corrupted, "read result header: %v", err)
		}
	}
	if W != 0 && (int(w) != W || int(h) != H || int(d) != D) {
		return Result{}, simerr.New(simerr.DimensionMismatch, "result file dims %dx%dx%d do not match expected %dx%dx%d", w, h, d, W, H, D)
	}

	r := Result{W: int(w), H: int(h), D: int(d)}
	for _, v := range []*float64{&r.Vp, &r.Vs, &r.VpVs} {
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return Result{}, simerr.New(simerr.Corrupted, "read result velocities: %v", err)
		}
	}
	var stepP, stepS uint32
	if err := binary.Read(br, binary.LittleEndian, &stepP); err != nil {
		return Result{}, simerr.New(simerr.Corrupted, "read step_p: %v", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &stepS); err != nil {
		return Result{}, simerr.New(simerr.Corrupted, "read step_s: %v", err)
	}
	r.StepFirstTouch, r.StepSEstimate = int(stepP), int(stepS)

	var coords [6]int32
	for i := range coords {
		if err := binary.Read(br, binary.LittleEndian, &coords[i]); err != nil {
			return Result{}, simerr.New(simerr.Corrupted, "read transducer coordinates: %v", err)
		}
	}
	r.TX = [3]int{int(coords[0]), int(coords[1]), int(coords[2])}
	r.RX = [3]int{int(coords[3]), int(coords[4]), int(coords[5])}

	n := r.W * r.H * r.D
	var err2 error
	if r.Vx, err2 = readSparseField(br, n); err2 != nil {
		return Result{}, err2
	}
	if r.Vy, err2 = readSparseField(br, n); err2 != nil {
		return Result{}, err2
	}
	if r.Vz, err2 = readSparseField(br, n); err2 != nil {
		return Result{}, err2
	}
	return r, nil
}

// writeSparseField encodes only |v| > 1e-10 as (flat_index, value)
// pairs, prefixed by a count.
func writeSparseField(w *bufio.Writer, field []float64) error {
	count := uint32(0)
	for _, v := range field {
		if v > sparseThreshold || v < -sparseThreshold {
			count++
		}
	}
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return simerr.New(simerr.IoFailure, "write sparse field count: %v", err)
	}
	for i, v := range field {
		if v > sparseThreshold || v < -sparseThreshold {
			if err := binary.Write(w, binary.LittleEndian, uint32(i)); err != nil {
				return simerr.New(simerr.IoFailure, "write sparse field index: %v", err)
			}
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return simerr.New(simerr.IoFailure, "write sparse field value: %v", err)
			}
		}
	}
	return nil
}

// readSparseField decodes a sparse_field into a dense buffer of length n.
func readSparseField(r *bufio.Reader, n int) ([]float64, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, simerr.New(simerr.Corrupted, "read sparse field count: %v", err)
	}
	field := make([]float64, n)
	for i := uint32(0); i < count; i++ {
		var idx uint32
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, simerr.New(simerr.Corrupted, "read sparse field index: %v", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, simerr.New(simerr.Corrupted, "read sparse field value: %v", err)
		}
		if int(idx) < len(field) {
			field[idx] = v
		}
	}
	return field, nil
}

func writeLengthPrefixedString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return simerr.New(simerr.IoFailure, "write string length: %v", err)
	}
	if _, err := w.WriteString(s); err != nil {
		return simerr.New(simerr.IoFailure, "write string bytes: %v", err)
	}
	return nil
}

func readLengthPrefixedString(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
