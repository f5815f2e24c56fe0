// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package simerr defines the typed error surface shared by every
// public operation of the acoustic simulator.
package simerr

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// Kind classifies a simulator error so that callers can branch on it
// without parsing messages.
type Kind int

const (
	// InvalidParameters flags a precondition violated at construction time.
	InvalidParameters Kind = iota
	// DimensionMismatch flags grid dimensions that disagree with persisted data.
	DimensionMismatch
	// IoFailure flags a failed read/write against the filesystem.
	IoFailure
	// QueueFull flags a frame dropped by the cache writer's bounded queue.
	QueueFull
	// Cancelled flags cooperative cancellation observed between steps.
	Cancelled
	// Corrupted flags a mis-magic or truncated persisted file.
	Corrupted
)

// String names the Kind for log messages.
func (k Kind) String() string {
	switch k {
	case InvalidParameters:
		return "InvalidParameters"
	case DimensionMismatch:
		return "DimensionMismatch"
	case IoFailure:
		return "IoFailure"
	case QueueFull:
		return "QueueFull"
	case Cancelled:
		return "Cancelled"
	case Corrupted:
		return "Corrupted"
	}
	return "Unknown"
}

// Error is the typed error value returned by public operations.
type Error struct {
	Kind Kind
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds a typed error, reusing gosl/chk's message formatting so the
// rest of the codebase keeps the teacher's chk.Err call shape.
func New(k Kind, msg string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: chk.Err(msg, args...).Error()}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, k Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == k
}
