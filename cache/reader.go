// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"container/list"
	"path/filepath"
	"sync"

	"github.com/cpmech/gosl/io"
	"github.com/mattemangia/acousticsim/simerr"
	"github.com/mattemangia/acousticsim/solver"
)

// lruCapacity bounds the number of decoded frames a Reader keeps
// resident; this plays the role the spec assigns to weak references
// (Go has no portable weak-pointer primitive pre-1.24's runtime/weak,
// so eviction by strict LRU bound is used instead of true weak refs).
const lruCapacity = 10

// Reader is a memory-light, read-through playback handle over a
// ReadOnly cache directory.
type Reader struct {
	dir  string
	meta Metadata

	mu    sync.Mutex
	order *list.List
	index map[int]*list.Element
}

type lruEntry struct {
	step  int
	frame solver.FrameData
}

// OpenReader decodes the metadata file and returns a read-through Reader.
func OpenReader(dir string) (*Reader, error) {
	meta, err := readMetadata(filepath.Join(dir, "metadata.dat"))
	if err != nil {
		return nil, err
	}
	return &Reader{
		dir: dir, meta: meta,
		order: list.New(),
		index: make(map[int]*list.Element),
	}, nil
}

// FrameCount returns the number of frames recorded in the metadata file.
func (r *Reader) FrameCount() int {
	return len(r.meta.Frames)
}

// StepAt returns the recorded step number for the i-th metadata entry.
func (r *Reader) StepAt(i int) int {
	return int(r.meta.Frames[i].Step)
}

// ReadFrame returns the decoded frame for the given step, using the
// bounded LRU cache when possible and falling back to disk otherwise.
func (r *Reader) ReadFrame(step int) (solver.FrameData, error) {
	r.mu.Lock()
	if el, ok := r.index[step]; ok {
		r.order.MoveToFront(el)
		f := el.Value.(*lruEntry).frame
		r.mu.Unlock()
		return f, nil
	}
	r.mu.Unlock()

	rec, err := r.findRecord(step)
	if err != nil {
		return solver.FrameData{}, err
	}
	path := filepath.Join(r.dir, rec.FileName)
	f, err := readFrameFile(path, int(r.meta.W), int(r.meta.H), int(r.meta.D))
	if err != nil {
		return solver.FrameData{}, err
	}

	r.mu.Lock()
	r.insertLRU(step, f)
	r.mu.Unlock()
	return f, nil
}

func (r *Reader) insertLRU(step int, f solver.FrameData) {
	el := r.order.PushFront(&lruEntry{step: step, frame: f})
	r.index[step] = el
	for r.order.Len() > lruCapacity {
		back := r.order.Back()
		if back == nil {
			break
		}
		entry := back.Value.(*lruEntry)
		delete(r.index, entry.step)
		r.order.Remove(back)
	}
}

func (r *Reader) findRecord(step int) (frameRecord, error) {
	for _, rec := range r.meta.Frames {
		if int(rec.Step) == step {
			return rec, nil
		}
	}
	return frameRecord{}, simerr.New(simerr.Corrupted, "no frame recorded for step %d in %q", step, r.dir)
}

// Playback decodes every recorded frame in step order, calling fn for
// each. A frame that fails to decode (missing file or mis-magic) is
// skipped with a warning rather than aborting playback.
func (r *Reader) Playback(fn func(step int, f solver.FrameData)) {
	for _, rec := range r.meta.Frames {
		f, err := r.ReadFrame(int(rec.Step))
		if err != nil {
			io.Pfyel("warning: skipping corrupted frame at step %d: %v\n", rec.Step, err)
			continue
		}
		fn(int(rec.Step), f)
	}
}
