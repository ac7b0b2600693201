package faultfs

import (
	"sync"

	"github.com/aalhour/faultfs/internal/checksum"
	"github.com/aalhour/faultfs/internal/logging"
)

// Verification carries a caller-supplied checksum to hand off to Append
// or PositionedAppend for verification against the bytes actually
// received, per spec.md §4.1/§4.3.
type Verification struct {
	Type     checksum.Type
	Checksum []byte
}

// WritableFile is the instrumented writable-file handle the facade
// hands out from NewWritableFile/ReopenWritableFile. It owns a
// *fileState, serializes all operations on it with a per-file mutex,
// and applies the append/flush/sync/close contract of spec.md §4.3.
//
// Reference: grounded on faultWritableFile in the teacher's
// internal/vfs/fault_injection.go, generalized from a single Write/Sync
// pair to the buffered-append, checksum-verifying, direct-I/O-aware
// contract spec.md §4.3 specifies.
type WritableFile struct {
	mu sync.Mutex

	fs       *FileSystem
	base     BaseWritableFile
	state    *fileState
	directIO bool
	closed   bool
}

func newWritableFile(fs *FileSystem, base BaseWritableFile, filename string, directIO bool) *WritableFile {
	return &WritableFile{
		fs:       fs,
		base:     base,
		state:    newFileState(filename),
		directIO: directIO,
	}
}

// Append appends data to the file with no checksum verification.
func (wf *WritableFile) Append(data []byte) error {
	return wf.appendVerified(data, nil)
}

// AppendWithVerification appends data, first verifying v against a
// freshly computed checksum of data when v.Type is not TypeNoChecksum.
// On mismatch, returns ErrCorruption and buffers nothing, per spec.md
// §4.3's "Append(data, verification)" row and §8 property 5.
func (wf *WritableFile) AppendWithVerification(data []byte, v Verification) error {
	return wf.appendVerified(data, &v)
}

func (wf *WritableFile) appendVerified(data []byte, v *Verification) error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if err := wf.fs.inj.gate(); err != nil {
		return err
	}

	if v != nil {
		if wf.fs.inj.shouldCorruptBeforeWrite() {
			wf.fs.inj.recordCorruption()
			return errForcedCorruption()
		}
		if v.Type != checksum.TypeNoChecksum {
			origin, ok := checksum.Decode(v.Checksum)
			current := checksum.Compute(v.Type, data)
			if !ok || origin != current {
				wf.fs.log.Warnf(logging.NSFault+"checksum mismatch filename=%s", wf.state.filename)
				wf.fs.inj.recordCorruption()
				return errChecksumMismatch(origin, current)
			}
		}
	}

	if wf.directIO {
		_ = wf.base.Append(data)
	} else {
		wf.state.append(data)
		wf.fs.writableFileAppended(wf.state)
	}

	if wf.fs.inj.shouldInjectWrite(wf.state.filename) {
		wf.fs.log.Debugf(logging.NSFault+"injected write error filename=%s", wf.state.filename)
		return errInjectedWrite(wf.state.filename)
	}
	return nil
}

// PositionedAppend writes data at offset, verifying v the same way
// AppendWithVerification does, then forwards to the underlying file's
// positioned append (ignoring its error, per spec.md §4.3) before
// consulting write-error injection.
func (wf *WritableFile) PositionedAppend(data []byte, offset int64, v Verification) error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if err := wf.fs.inj.gate(); err != nil {
		return err
	}

	if wf.fs.inj.shouldCorruptBeforeWrite() {
		wf.fs.inj.recordCorruption()
		return errForcedCorruption()
	}
	if v.Type != checksum.TypeNoChecksum {
		origin, ok := checksum.Decode(v.Checksum)
		current := checksum.Compute(v.Type, data)
		if !ok || origin != current {
			wf.fs.inj.recordCorruption()
			return errChecksumMismatch(origin, current)
		}
	}

	_ = wf.base.PositionedAppend(data, offset)
	if !wf.directIO {
		wf.state.write(offset, data)
		wf.fs.writableFileAppended(wf.state)
	}

	if wf.fs.inj.shouldInjectWrite(wf.state.filename) {
		return errInjectedWrite(wf.state.filename)
	}
	return nil
}

// Flush marks the buffer's current length as handed to the host
// filesystem, without forcing it to stable storage.
func (wf *WritableFile) Flush() error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if err := wf.fs.inj.gate(); err != nil {
		return err
	}
	wf.state.markFlushed()
	return nil
}

// Sync forwards the buffered bytes to the underlying file, best-effort
// syncs it, and marks the buffer fully durable, per spec.md §4.3.
func (wf *WritableFile) Sync() error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if err := wf.fs.inj.gate(); err != nil {
		return err
	}
	if wf.directIO {
		return nil
	}

	err := wf.base.Append(wf.state.buffer)
	wf.state.buffer = nil
	_ = wf.base.Sync()
	wf.state.markSynced()
	wf.fs.writableFileSynced(wf.state)
	return err
}

// RangeSync flushes only the portion of the buffer covering
// [offset, offset+nbytes) to the underlying file, per spec.md §4.3. It
// notifies the facade of a sync unconditionally, even though only a
// prefix may have actually been flushed (spec.md §9 open question,
// preserved as-is).
func (wf *WritableFile) RangeSync(offset, nbytes int64) error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if err := wf.fs.inj.gate(); err != nil {
		return err
	}
	if wf.directIO {
		return nil
	}

	syncLimit := offset + nbytes
	bufBegin := wf.state.posAtLastSync
	if bufBegin < 0 {
		bufBegin = 0
	}
	if syncLimit < bufBegin {
		return nil
	}

	n := int64(len(wf.state.buffer))
	if remaining := syncLimit - bufBegin; remaining < n {
		n = remaining
	}
	if n < 0 {
		n = 0
	}

	if n > 0 {
		_ = wf.base.Append(wf.state.buffer[:n])
		wf.state.buffer = wf.state.buffer[n:]
	}
	_ = wf.base.RangeSync(offset, nbytes)
	wf.state.posAtLastSync = offset + n
	wf.fs.writableFileSynced(wf.state)
	return nil
}

// Close flushes any remaining buffered bytes to the underlying file,
// best-effort syncs and closes it, and notifies the facade. Metadata
// error injection is consulted both before and after the underlying
// close, per spec.md §4.3/§7.
func (wf *WritableFile) Close() error {
	wf.mu.Lock()
	defer wf.mu.Unlock()

	if wf.closed {
		return nil
	}
	if err := wf.fs.inj.gate(); err != nil {
		return err
	}
	if wf.fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("close", wf.state.filename)
	}

	wf.closed = true
	var err error
	if !wf.directIO {
		err = wf.base.Append(wf.state.buffer)
	}
	if err == nil {
		wf.state.buffer = nil
		_ = wf.base.Sync()
		err = wf.base.Close()
	}
	if err == nil {
		wf.fs.writableFileClosed(wf.state)
		if wf.fs.inj.shouldInjectMetadata() {
			return errInjectedMetadata("close", wf.state.filename)
		}
	}
	return err
}

// Filename returns the absolute path this handle was opened for.
func (wf *WritableFile) Filename() string { return wf.state.filename }
