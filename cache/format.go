// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cache implements the disk-backed, append-only frame cache:
// one metadata file plus one file per persisted simulation step, with a
// bounded-queue writer and an LRU-bounded reader for read-through
// playback.
package cache

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/mattemangia/acousticsim/simerr"
)

const (
	metaMagic  = "ACSIM"
	frameMagic = "FRAME"
	formatVersion = uint32(1)
)

// writeMagic writes a fixed 5-byte tag, unpadded.
func writeMagic(w io.Writer, tag string) error {
	_, err := w.Write([]byte(tag))
	return err
}

// readMagic reads 5 bytes and reports whether they equal want.
func readMagic(r io.Reader, want string) (bool, error) {
	b := make([]byte, len(want))
	if _, err := io.ReadFull(r, b); err != nil {
		return false, err
	}
	return string(b) == want, nil
}

// frameRecord is the per-frame entry appended to the metadata file.
type frameRecord struct {
	Step     uint32
	FileName string
	PValue   float32
	SValue   float32
	ProgP    float32
	ProgS    float32
}

// metaHeaderSize is the fixed-offset prefix: magic + version + W + H + D
// + frame count, all before the variable-length frame records.
const metaHeaderSize = 5 + 4 + 4 + 4 + 4 + 4

// writeMetaHeader writes the fixed header (with frameCount=0) to a fresh
// metadata file positioned at offset 0.
func writeMetaHeader(f *os.File, W, H, D uint32) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return simerr.New(simerr.IoFailure, "seek metadata header: %v", err)
	}
	bw := bufio.NewWriter(f)
	if err := writeMagic(bw, metaMagic); err != nil {
		return simerr.New(simerr.IoFailure, "write metadata magic: %v", err)
	}
	for _, v := range []uint32{formatVersion, W, H, D, 0} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write metadata header: %v", err)
		}
	}
	return bw.Flush()
}

// frameCountOffset is the byte offset of the frame-count field, updated
// in place after each append.
const frameCountOffset = 5 + 4 + 4 + 4 + 4

// updateFrameCount rewrites the count field at its fixed offset.
func updateFrameCount(f *os.File, count uint32) error {
	if _, err := f.Seek(frameCountOffset, io.SeekStart); err != nil {
		return simerr.New(simerr.IoFailure, "seek frame count: %v", err)
	}
	if err := binary.Write(f, binary.LittleEndian, count); err != nil {
		return simerr.New(simerr.IoFailure, "write frame count: %v", err)
	}
	return nil
}

// appendFrameRecord appends one frame record at EOF.
func appendFrameRecord(f *os.File, rec frameRecord) error {
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return simerr.New(simerr.IoFailure, "seek metadata EOF: %v", err)
	}
	bw := bufio.NewWriter(f)
	if err := binary.Write(bw, binary.LittleEndian, rec.Step); err != nil {
		return simerr.New(simerr.IoFailure, "write frame record step: %v", err)
	}
	if err := writeLengthPrefixedString(bw, rec.FileName); err != nil {
		return err
	}
	for _, v := range []float32{rec.PValue, rec.SValue, rec.ProgP, rec.ProgS} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return simerr.New(simerr.IoFailure, "write frame record scalar: %v", err)
		}
	}
	return bw.Flush()
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return simerr.New(simerr.IoFailure, "write string length: %v", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return simerr.New(simerr.IoFailure, "write string bytes: %v", err)
	}
	return nil
}

func readLengthPrefixedString(r io.Reader) (string, error) {
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

// Metadata is the decoded content of metadata.dat.
type Metadata struct {
	W, H, D uint32
	Frames  []frameRecord
}

// readMetadata decodes the full metadata file.
func readMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, simerr.New(simerr.IoFailure, "open metadata file %q: %v", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	ok, err := readMagic(br, metaMagic)
	if err != nil {
		return Metadata{}, simerr.New(simerr.Corrupted, "read metadata magic: %v", err)
	}
	if !ok {
		return Metadata{}, simerr.New(simerr.Corrupted, "metadata file %q has wrong magic tag", path)
	}
	var version, W, H, D, count uint32
	for _, v := range []*uint32{&version, &W, &H, &D, &count} {
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return Metadata{}, simerr.New(simerr.Corrupted, "read metadata header: %v", err)
		}
	}
	m := Metadata{W: W, H: H, D: D}
	for i := uint32(0); i < count; i++ {
		var rec frameRecord
		if err := binary.Read(br, binary.LittleEndian, &rec.Step); err != nil {
			break
		}
		name, err := readLengthPrefixedString(br)
		if err != nil {
			break
		}
		rec.FileName = name
		for _, p := range []*float32{&rec.PValue, &rec.SValue, &rec.ProgP, &rec.ProgS} {
			if err := binary.Read(br, binary.LittleEndian, p); err != nil {
				break
			}
		}
		m.Frames = append(m.Frames, rec)
	}
	return m, nil
}

func write3D(w io.Writer, block []float32) error {
	return binary.Write(w, binary.LittleEndian, block)
}

func read3D(r io.Reader, n int) ([]float32, error) {
	block := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, block); err != nil {
		return nil, err
	}
	return block, nil
}

func writeSeries(w io.Writer, series []float32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(series))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, series)
}

func readSeries(r io.Reader) ([]float32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	series := make([]float32, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, series); err != nil {
			return nil, err
		}
	}
	return series, nil
}
