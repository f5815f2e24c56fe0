// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

// FrameData is the payload the solver core hands the frame cache for
// one persisted step: three 3-D f32 wave-field blocks, two 2-D f32
// blocks (tomography slice and cross-section), four f32 scalars and two
// length-prefixed f32 series (the receiver traces accumulated so far).
type FrameData struct {
	Step int

	Vx, Vy, Vz []float32 // W*H*D blocks

	TomoSlice    []float32 // W*H plane, zero until tomography has run
	CrossSection []float32 // W*H plane, |v| magnitude at the z = D/2 mid-plane

	PValue, SValue       float32
	ProgressP, ProgressS float32

	PTrace []float32 // vx[RX] accumulated over executed steps
	STrace []float32 // sqrt(vy[RX]^2+vz[RX]^2) accumulated over executed steps
}

// Recorder receives frames from the solver. The frame cache is the
// canonical implementation; tests may substitute an in-memory stub.
// WriteFrame must never block the caller for long: the real
// implementation enqueues and returns promptly (see cache.Writer).
type Recorder interface {
	WriteFrame(f FrameData) error
}
