// Package faultfs implements a fault-injection filesystem: a virtual
// filesystem that wraps a host filesystem and, transparently to the
// storage engine layered on top of it, buffers unsynced writes, tracks
// per-file and per-directory durability state, and deterministically
// injects read, write, and metadata errors.
//
// Reference: RocksDB v10.7.5 utilities/fault_injection_fs.h/.cc, as
// reflected in github.com/aalhour/rockyardkv's internal/vfs package.
package faultfs

import (
	"errors"
	"fmt"
)

// Kind classifies an error returned by the fault-injection filesystem,
// giving callers a closed enum to branch on instead of string matching
// — the Go realization of spec.md's "sum type {Ok | IOError | Corruption
// | NotFound}" (nil error is Ok).
type Kind int

const (
	// KindIOError is a generic I/O failure, injected or genuine.
	KindIOError Kind = iota
	// KindCorruption is a checksum mismatch or forced pre-write corruption.
	KindCorruption
	// KindNotFound reflects a genuine NotFound from an underlying probe.
	KindNotFound
	// KindInactive is the synthetic sticky error returned while the
	// filesystem is deactivated.
	KindInactive
)

func (k Kind) String() string {
	switch k {
	case KindIOError:
		return "IOError"
	case KindCorruption:
		return "Corruption"
	case KindNotFound:
		return "NotFound"
	case KindInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// Error is the error type every fault-injection filesystem operation
// returns. It wraps one of the package's sentinel errors so
// errors.Is(err, ErrCorruption) etc. works, while also exposing Kind()
// for callers that want to branch without string matching.
type Error struct {
	kind Kind
	msg  string
	err  error // sentinel this wraps, for errors.Is
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return e.err.Error()
}

func (e *Error) Unwrap() error { return e.err }

// Kind reports the classification of e. Errors that come straight from
// the host filesystem are not *Error values and carry no Kind.
func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, sentinel error, msg string) *Error {
	return &Error{kind: kind, msg: msg, err: sentinel}
}

// ErrFilesystemInactive is the sticky error returned by every gated
// operation once the facade has been deactivated, until ResetState or
// reactivation.
var ErrFilesystemInactive = errors.New("faultfs: filesystem is inactive")

// ErrInjectedRead is returned when the read-error injector fires.
var ErrInjectedRead = errors.New("faultfs: injected read error")

// ErrInjectedWrite is returned when the write-error injector fires.
var ErrInjectedWrite = errors.New("faultfs: injected write error")

// ErrInjectedMetadata is returned when the metadata-write-error injector
// fires (directory fsync, file create/delete/rename/link/close).
var ErrInjectedMetadata = errors.New("faultfs: injected metadata error")

// ErrCorruption is returned when a checksum handoff fails verification,
// or when the data-corruption-before-write toggle forces corruption.
var ErrCorruption = errors.New("faultfs: data is corrupted")

// ErrNotFound is the sentinel for a genuine not-found result. No
// operation in this package returns it: ReopenWritableFile probes prior
// existence with BaseFS.FileExists, which reports a bool.
var ErrNotFound = errors.New("faultfs: not found")

func errInactive() error {
	return newError(KindInactive, ErrFilesystemInactive, "")
}

func errInjectedRead() error {
	return newError(KindIOError, ErrInjectedRead, "faultfs: injected read error")
}

func errInjectedWrite(path string) error {
	return newError(KindIOError, ErrInjectedWrite, fmt.Sprintf("faultfs: injected write error: %s", path))
}

func errInjectedMetadata(op, path string) error {
	return newError(KindIOError, ErrInjectedMetadata, fmt.Sprintf("faultfs: injected metadata error: %s %s", op, path))
}

func errForcedCorruption() error {
	return newError(KindCorruption, ErrCorruption, "faultfs: data is corrupted! (forced before write)")
}

func errChecksumMismatch(origin, current uint32) error {
	return newError(KindCorruption, ErrCorruption,
		fmt.Sprintf("faultfs: data is corrupted! Origin checksum: %08x, current checksum: %08x", origin, current))
}
