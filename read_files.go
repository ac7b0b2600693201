package faultfs

import "github.com/aalhour/faultfs/internal/logging"

// RandomAccessFile is the instrumented read-only random-access handle
// the facade hands out from NewRandomAccessFile. Reads delegate to the
// underlying handle, then consult the calling goroutine's read-error
// program and the global random-read-error toggle, per spec.md §4.5.
type RandomAccessFile struct {
	fs       *FileSystem
	base     BaseRandomAccessFile
	directIO bool
}

func newRandomAccessFile(fs *FileSystem, base BaseRandomAccessFile, directIO bool) *RandomAccessFile {
	return &RandomAccessFile{fs: fs, base: base, directIO: directIO}
}

// Read delegates to ReadAt, then injects per spec.md §4.5: a whole-call
// IOError from the thread-local program, or from the unconditional
// random-read-error toggle.
func (rf *RandomAccessFile) Read(p []byte, offset int64) (int, error) {
	if err := rf.fs.inj.gate(); err != nil {
		return 0, err
	}
	n, err := rf.base.ReadAt(p, offset)
	if err != nil {
		return n, err
	}
	if ctx := rf.fs.ctxs.Get(); ctx != nil {
		outcome := ctx.consult(opRead, true, rf.directIO, false)
		if outcome.injected && outcome.err != nil {
			rf.fs.inj.recordReadError()
			return n, outcome.err
		}
	}
	if rf.fs.inj.randomReadErrorArmed() {
		rf.fs.log.Debugf(logging.NSFault + "injected random read error")
		rf.fs.inj.recordReadError()
		return n, errInjectedRead()
	}
	return n, nil
}

// ReadCompletion is the signature of the callback ReadAsync invokes on
// completion, mirroring spec.md §4.5's "completion callback" plumbing.
type ReadCompletion func(n int, err error)

// ReadAsync issues an asynchronous read. If the thread-local read-error
// program or the random-read-error toggle fires before the underlying
// call is even made, it synthesizes a completed request and invokes cb
// inline with the injected status instead of touching the underlying
// handle, per spec.md §4.5.
func (rf *RandomAccessFile) ReadAsync(p []byte, offset int64, cb ReadCompletion) error {
	if err := rf.fs.inj.gate(); err != nil {
		return err
	}
	if ctx := rf.fs.ctxs.Get(); ctx != nil {
		outcome := ctx.consult(opRead, true, rf.directIO, false)
		if outcome.injected && outcome.err != nil {
			rf.fs.inj.recordReadError()
			cb(0, outcome.err)
			return nil
		}
	}
	if rf.fs.inj.randomReadErrorArmed() {
		rf.fs.inj.recordReadError()
		cb(0, errInjectedRead())
		return nil
	}
	n, err := rf.base.ReadAt(p, offset)
	cb(n, err)
	return nil
}

// MultiReadRequest is one sub-request of a MultiRead batch.
type MultiReadRequest struct {
	Data   []byte
	Offset int64
	// Scratch is true when Data is a caller-owned buffer, making
	// last-byte corruption observable in place (spec.md §4.6).
	Scratch bool
}

// MultiReadResult is the outcome of one MultiReadRequest.
type MultiReadResult struct {
	N   int
	Err error
}

// MultiRead services a batch of reads, delegating each to ReadAt, then
// consulting read-error injection per sub-request with op
// MultiReadSingleReq, and finally one trailing call with op MultiRead
// whose needCountIncrease is true only if no sub-request injected, per
// spec.md §4.5.
func (rf *RandomAccessFile) MultiRead(reqs []MultiReadRequest) ([]MultiReadResult, error) {
	if err := rf.fs.inj.gate(); err != nil {
		return nil, err
	}
	results := make([]MultiReadResult, len(reqs))
	anyInjected := false
	for i, req := range reqs {
		n, err := rf.base.ReadAt(req.Data, req.Offset)
		results[i] = MultiReadResult{N: n, Err: err}
		if err != nil {
			continue
		}
		if ctx := rf.fs.ctxs.Get(); ctx != nil {
			outcome := ctx.consult(opMultiReadSingleReq, true, rf.directIO, req.Scratch)
			if outcome.injected {
				anyInjected = true
				rf.fs.inj.recordReadError()
				switch {
				case outcome.err != nil:
					results[i].Err = outcome.err
				case outcome.returnEmpty:
					results[i].N = 0
				case outcome.corruptLastByte && len(req.Data) > 0:
					req.Data[len(req.Data)-1]++
				}
			}
		}
	}
	if ctx := rf.fs.ctxs.Get(); ctx != nil {
		ctx.consult(opMultiRead, !anyInjected, rf.directIO, false)
	}
	if rf.fs.inj.randomReadErrorArmed() {
		rf.fs.inj.recordReadError()
		return results, errInjectedRead()
	}
	return results, nil
}

// Close delegates to the underlying handle.
func (rf *RandomAccessFile) Close() error { return rf.base.Close() }

// Size returns the file's size as observed at open time.
func (rf *RandomAccessFile) Size() int64 { return rf.base.Size() }

// GetUniqueID returns a stable identifier for the underlying file, or 0
// when the facade's unique-id-fail toggle is armed, per spec.md §4.5.
func (rf *RandomAccessFile) GetUniqueID() (uint64, error) {
	if rf.fs.inj.shouldFailUniqueID() {
		return 0, nil
	}
	return rf.base.GetUniqueID()
}

// SequentialFile is the instrumented sequential-read handle the facade
// hands out from NewSequentialFile.
type SequentialFile struct {
	fs   *FileSystem
	base BaseSequentialFile
}

func newSequentialFile(fs *FileSystem, base BaseSequentialFile) *SequentialFile {
	return &SequentialFile{fs: fs, base: base}
}

// Read delegates to the underlying sequential read, then applies the
// random-read-error toggle, per spec.md §4.5.
func (sf *SequentialFile) Read(p []byte) (int, error) {
	if err := sf.fs.inj.gate(); err != nil {
		return 0, err
	}
	n, err := sf.base.Read(p)
	if err != nil {
		return n, err
	}
	if sf.fs.inj.randomReadErrorArmed() {
		sf.fs.inj.recordReadError()
		return n, errInjectedRead()
	}
	return n, nil
}

// PositionedRead delegates to the underlying positioned read, then
// applies the random-read-error toggle, per spec.md §4.5.
func (sf *SequentialFile) PositionedRead(p []byte, offset int64) (int, error) {
	if err := sf.fs.inj.gate(); err != nil {
		return 0, err
	}
	n, err := sf.base.PositionedRead(p, offset)
	if err != nil {
		return n, err
	}
	if sf.fs.inj.randomReadErrorArmed() {
		sf.fs.inj.recordReadError()
		return n, errInjectedRead()
	}
	return n, nil
}

// Close delegates to the underlying handle.
func (sf *SequentialFile) Close() error { return sf.base.Close() }

// RandomRWFile is the instrumented read/write-at-offset handle the
// facade hands out from NewRandomRWFile. It is tracked for durability
// like a writable file, but writes go straight to the underlying file
// (no append buffering), matching the teacher's handling of random-RW
// files used for in-place WAL header updates.
type RandomRWFile struct {
	fs   *FileSystem
	base BaseRandomRWFile
	name string
}

func newRandomRWFile(fs *FileSystem, base BaseRandomRWFile, name string) *RandomRWFile {
	return &RandomRWFile{fs: fs, base: base, name: name}
}

// ReadAt delegates to the underlying handle, then applies the
// random-read-error toggle.
func (rw *RandomRWFile) ReadAt(p []byte, offset int64) (int, error) {
	if err := rw.fs.inj.gate(); err != nil {
		return 0, err
	}
	n, err := rw.base.ReadAt(p, offset)
	if err != nil {
		return n, err
	}
	if rw.fs.inj.randomReadErrorArmed() {
		rw.fs.inj.recordReadError()
		return n, errInjectedRead()
	}
	return n, nil
}

// WriteAt delegates to the underlying handle, then consults write-error
// injection for this filename.
func (rw *RandomRWFile) WriteAt(p []byte, offset int64) (int, error) {
	if err := rw.fs.inj.gate(); err != nil {
		return 0, err
	}
	n, err := rw.base.WriteAt(p, offset)
	if err != nil {
		return n, err
	}
	if rw.fs.inj.shouldInjectWrite(rw.name) {
		return n, errInjectedWrite(rw.name)
	}
	return n, nil
}

// Sync gates, delegates, and injects a metadata error.
func (rw *RandomRWFile) Sync() error {
	if err := rw.fs.inj.gate(); err != nil {
		return err
	}
	if err := rw.base.Sync(); err != nil {
		return err
	}
	if rw.fs.inj.shouldInjectMetadata() {
		return errInjectedMetadata("random_rw_sync", rw.name)
	}
	return nil
}

// Flush gates and delegates.
func (rw *RandomRWFile) Flush() error {
	if err := rw.fs.inj.gate(); err != nil {
		return err
	}
	return rw.base.Flush()
}

// Close gates and delegates.
func (rw *RandomRWFile) Close() error {
	if err := rw.fs.inj.gate(); err != nil {
		return err
	}
	return rw.base.Close()
}
