// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattemangia/acousticsim/simerr"
	"github.com/mattemangia/acousticsim/solver"
)

// defaultQueueLen is the writer's bounded queue capacity.
const defaultQueueLen = 100

// offerTimeout is how long WriteFrame waits for room in the queue
// before dropping the frame.
const offerTimeout = 500 * time.Millisecond

// State names the one-way lifecycle of a Writer: Writing is the
// exclusive-producer phase, Flushing drains the queue on Close, and
// ReadOnly is the terminal state after the drain completes.
type State int32

// cache states
const (
	Writing State = iota
	Flushing
	ReadOnly
)

// Writer is the frame cache's single producer-facing handle: an
// unbounded logical producer (the solver) writes into a bounded queue;
// one consumer goroutine performs all disk I/O, so no field memory
// escapes across threads uncopied.
type Writer struct {
	dir         string
	W, H, D     int
	queue       chan solver.FrameData
	done        chan struct{}
	state       int32
	metaFile    *os.File
	frameCount  uint32
	dropped     int64
	firstErr    error
	mu          sync.Mutex
}

// NewWriter creates dir (if needed), writes the metadata header and
// starts the consumer goroutine. dir must be unique per simulation run.
func NewWriter(dir string, W, H, D int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, simerr.New(simerr.IoFailure, "create cache directory %q: %v", dir, err)
	}
	metaPath := filepath.Join(dir, "metadata.dat")
	f, err := os.Create(metaPath)
	if err != nil {
		return nil, simerr.New(simerr.IoFailure, "create metadata file %q: %v", metaPath, err)
	}
	if err := writeMetaHeader(f, uint32(W), uint32(H), uint32(D)); err != nil {
		f.Close()
		return nil, err
	}
	w := &Writer{
		dir: dir, W: W, H: H, D: D,
		queue: make(chan solver.FrameData, defaultQueueLen),
		done:  make(chan struct{}),
		metaFile: f,
	}
	go w.consume()
	return w, nil
}

// WriteFrame enqueues a frame for the consumer to persist. If the queue
// is still full after a 500ms offer, the frame is dropped: this is
// QueueFull, a non-fatal condition the running solver never blocks on.
func (w *Writer) WriteFrame(f solver.FrameData) error {
	if State(atomic.LoadInt32(&w.state)) != Writing {
		return simerr.New(simerr.IoFailure, "cache is not in the Writing state")
	}
	select {
	case w.queue <- f:
		return nil
	case <-time.After(offerTimeout):
		atomic.AddInt64(&w.dropped, 1)
		return simerr.New(simerr.QueueFull, "frame cache queue full after %v, dropped step %d", offerTimeout, f.Step)
	}
}

// consume is the sole disk-I/O goroutine: it drains the queue, writes
// one frame file per item, and updates the metadata file.
func (w *Writer) consume() {
	defer close(w.done)
	for f := range w.queue {
		if err := w.persist(f); err != nil {
			w.mu.Lock()
			if w.firstErr == nil {
				w.firstErr = err
			}
			w.mu.Unlock()
		}
	}
}

// persist writes one frame file then appends/updates the metadata file.
func (w *Writer) persist(f solver.FrameData) error {
	name := frameFileName(f.Step)
	path := filepath.Join(w.dir, name)
	if err := writeFrameFile(path, f); err != nil {
		return err
	}
	rec := frameRecord{Step: uint32(f.Step), FileName: name, PValue: f.PValue, SValue: f.SValue, ProgP: f.ProgressP, ProgS: f.ProgressS}
	if err := appendFrameRecord(w.metaFile, rec); err != nil {
		return err
	}
	w.frameCount++
	return updateFrameCount(w.metaFile, w.frameCount)
}

// DroppedFrames returns the number of frames dropped due to QueueFull.
func (w *Writer) DroppedFrames() int {
	return int(atomic.LoadInt64(&w.dropped))
}

// Close transitions Writing -> Flushing -> ReadOnly: it stops accepting
// new frames, drains the queue, then closes the metadata file. The
// transition is one-way; Close is idempotent after the first call.
func (w *Writer) Close() error {
	if !atomic.CompareAndSwapInt32(&w.state, int32(Writing), int32(Flushing)) {
		return nil
	}
	close(w.queue)
	<-w.done
	atomic.StoreInt32(&w.state, int32(ReadOnly))
	w.mu.Lock()
	err := w.firstErr
	w.mu.Unlock()
	if cerr := w.metaFile.Close(); cerr != nil && err == nil {
		err = simerr.New(simerr.IoFailure, "close metadata file: %v", cerr)
	}
	return err
}

// Dir returns the cache directory, valid for Reader use once ReadOnly.
func (w *Writer) Dir() string {
	return w.dir
}
