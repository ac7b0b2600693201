package faultfs

import "path/filepath"

// WritableFileHandle is the writable-file surface the facade hands
// back from NewWritableFile/ReopenWritableFile. *WritableFile is the
// instrumented implementation; rawWritableFile is returned instead when
// the direct-writable predicate says to bypass instrumentation
// entirely (spec.md §4.7).
type WritableFileHandle interface {
	Append(data []byte) error
	AppendWithVerification(data []byte, v Verification) error
	PositionedAppend(data []byte, offset int64, v Verification) error
	Flush() error
	Sync() error
	RangeSync(offset, nbytes int64) error
	Close() error
}

// rawWritableFile forwards straight to a BaseWritableFile with no
// tracking, checksum verification, or error injection. It is what
// NewWritableFile/ReopenWritableFile return both for direct-I/O opens
// and for files the facade observed but never tracked,
// per spec.md §4.7's "direct writable predicate says bypass" rule and
// ReopenWritableFile's untracked-file case.
//
// alignment is 0 unless this handle is backed by an actual Direct I/O
// open, in which case it is the block size PositionedAppend must align
// to — a misaligned Direct I/O write would otherwise fail deep inside
// the kernel with a confusing EINVAL.
type rawWritableFile struct {
	base      BaseWritableFile
	alignment int
}

// newDirectWritableFile wraps base for an actual Direct I/O open against
// name, enforcing alignment on PositionedAppend.
func newDirectWritableFile(base BaseWritableFile, name string) *rawWritableFile {
	return &rawWritableFile{base: base, alignment: blockSizeFor(name)}
}

func (r *rawWritableFile) Append(data []byte) error { return r.base.Append(data) }

func (r *rawWritableFile) AppendWithVerification(data []byte, _ Verification) error {
	return r.base.Append(data)
}

func (r *rawWritableFile) PositionedAppend(data []byte, offset int64, _ Verification) error {
	if r.alignment > 0 && (!IsAligned(int(offset), r.alignment) || !IsAligned(len(data), r.alignment)) {
		return ErrNotAligned
	}
	return r.base.PositionedAppend(data, offset)
}

func (r *rawWritableFile) Flush() error { return r.base.Flush() }

func (r *rawWritableFile) Sync() error { return r.base.Sync() }

func (r *rawWritableFile) RangeSync(offset, nbytes int64) error { return r.base.RangeSync(offset, nbytes) }

func (r *rawWritableFile) Close() error { return r.base.Close() }

// RandomRWFileHandle is the random-read-write surface the facade hands
// back from NewRandomRWFile. *RandomRWFile is the instrumented
// implementation; rawRandomRWFile bypasses it for direct-I/O opens.
type RandomRWFileHandle interface {
	ReadAt(p []byte, offset int64) (int, error)
	WriteAt(p []byte, offset int64) (int, error)
	Sync() error
	Flush() error
	Close() error
}

// rawRandomRWFile forwards straight to a BaseRandomRWFile with no
// tracking or error injection. Like rawWritableFile, alignment is 0
// unless this handle backs an actual Direct I/O open, in which case it
// enforces alignment on both ReadAt and WriteAt.
type rawRandomRWFile struct {
	base      BaseRandomRWFile
	alignment int
}

// newDirectRandomRWFile wraps base for an actual Direct I/O open against
// name, enforcing alignment on ReadAt/WriteAt.
func newDirectRandomRWFile(base BaseRandomRWFile, name string) *rawRandomRWFile {
	return &rawRandomRWFile{base: base, alignment: blockSizeFor(name)}
}

func (r *rawRandomRWFile) ReadAt(p []byte, offset int64) (int, error) {
	if r.alignment > 0 && (!IsAligned(int(offset), r.alignment) || !IsAligned(len(p), r.alignment)) {
		return 0, ErrNotAligned
	}
	return r.base.ReadAt(p, offset)
}

func (r *rawRandomRWFile) WriteAt(p []byte, offset int64) (int, error) {
	if r.alignment > 0 && (!IsAligned(int(offset), r.alignment) || !IsAligned(len(p), r.alignment)) {
		return 0, ErrNotAligned
	}
	return r.base.WriteAt(p, offset)
}

func (r *rawRandomRWFile) Sync() error { return r.base.Sync() }

func (r *rawRandomRWFile) Flush() error { return r.base.Flush() }

func (r *rawRandomRWFile) Close() error { return r.base.Close() }

// isDirectWritable reports whether opts requests direct writes that
// bypass the facade's buffering and instrumentation entirely. Direct
// I/O files are never tracked in dbFileState: their durability is the
// host OS's problem, not the facade's (spec.md §4.3, §4.7).
func isDirectWritable(opts FileOptions) bool {
	return opts.UseDirectWrites
}

// blockSizeFor returns the block size a Direct I/O open against name
// should align to: the host filesystem's actual block size where it can
// be queried, DefaultBlockSize otherwise.
func blockSizeFor(name string) int {
	if bs, err := getBlockSize(filepath.Dir(name)); err == nil && bs > 0 {
		return bs
	}
	return DefaultBlockSize
}
